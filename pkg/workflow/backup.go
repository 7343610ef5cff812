package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ErrStagingDirRequired is returned when a workflow needs a staging
// directory and none was given.
var ErrStagingDirRequired = errors.New("staging directory is required")

// BackupToFile exports every project of c into stagingDir and compresses
// the directory into file.
func (r *Runner) BackupToFile(ctx context.Context, c rundeck.Client, stagingDir, file string) ([]string, error) {
	if stagingDir == "" {
		return nil, fmt.Errorf("backup: %w", ErrStagingDirRequired)
	}

	written, err := r.ExportProjects(ctx, c, stagingDir)
	if err != nil {
		return written, err
	}

	err = r.fs.MkdirAll(filepath.Dir(file), constants.ArchiveDirPerm)
	if err != nil {
		return written, fmt.Errorf("creating %s: %w", filepath.Dir(file), err)
	}

	err = r.codec.Compress(ctx, stagingDir, file)
	if err != nil {
		return written, r.fail(ctx, Event{Workflow: "backup", Instance: c.Instance(), Path: file}, err)
	}

	r.emit(ctx, Event{
		Kind:     EventArchiveWritten,
		Workflow: "backup",
		Instance: c.Instance(),
		Path:     file,
		Message:  fmt.Sprintf("Backed up %d projects to %s", len(written), file),
	})

	return written, nil
}

// RestoreFromFile unpacks a backup made by BackupToFile into stagingDir and
// imports every project archive it holds, replacing existing projects.
func (r *Runner) RestoreFromFile(ctx context.Context, c rundeck.Client, file, stagingDir string) ([]string, error) {
	if stagingDir == "" {
		return nil, fmt.Errorf("restore: %w", ErrStagingDirRequired)
	}

	count, err := r.codec.Decompress(ctx, file, stagingDir, nil)
	if err != nil {
		return nil, r.fail(ctx, Event{Workflow: "restore", Instance: c.Instance(), Path: file}, err)
	}

	r.emit(ctx, Event{Kind: EventArchiveUnpacked, Workflow: "restore", Path: stagingDir,
		Message: fmt.Sprintf("Unpacked %d files from %s", count, file)})

	archives, err := r.ListArchives(stagingDir)
	if err != nil {
		return nil, err
	}

	if len(archives) == 0 {
		return nil, fmt.Errorf("%w in %s", rundeck.ErrNoArchivesFound, file)
	}

	return r.ImportProjects(ctx, c, stagingDir, ImportProjectOptions{
		DeleteExisting:   true,
		ImportExecutions: true,
	})
}
