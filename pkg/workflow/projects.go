package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ImportProjectOptions control ImportProjects.
type ImportProjectOptions struct {
	// DeleteExisting deletes a destination project before importing over it.
	DeleteExisting bool
	// ImportExecutions restores execution history from the archive.
	ImportExecutions bool
	// RollbackDir, when set, receives a snapshot of every project deleted by
	// DeleteExisting. A failed import restores the snapshot.
	RollbackDir string
	// Projects limits the import to these project names. Empty means every
	// archive in the directory.
	Projects []string

	// snapshots holds rollback archives taken before the import started,
	// keyed by project.
	snapshots map[string]string
}

// ProjectNameFromArchive returns the project an archive file belongs to:
// its base name without the .zip extension.
func ProjectNameFromArchive(path string) string {
	return strings.TrimSuffix(filepath.Base(path), constants.ArchiveExtension)
}

// ArchivePath returns where the archive of project lives in dir.
func ArchivePath(dir, project string) string {
	return filepath.Join(dir, project+constants.ArchiveExtension)
}

// ExportProjects writes <dir>/<project>.zip for each named project, or for
// every project on src when names is empty. It returns the written paths.
func (r *Runner) ExportProjects(ctx context.Context, src rundeck.Client, dir string, names ...string) ([]string, error) {
	const workflow = "export-projects"

	if len(names) == 0 {
		var err error

		names, err = src.Projects().ListNames(ctx)
		if err != nil {
			return nil, r.fail(ctx, Event{Workflow: workflow, Instance: src.Instance()}, err)
		}
	}

	err := r.fs.MkdirAll(dir, constants.ArchiveDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	written := make([]string, 0, len(names))

	for _, name := range names {
		err = ctx.Err()
		if err != nil {
			return written, err
		}

		path := ArchivePath(dir, name)

		err = r.exportProject(ctx, src, name, path)
		if err != nil {
			return written, r.fail(ctx, Event{Workflow: workflow, Instance: src.Instance(), Project: name}, err)
		}

		written = append(written, path)

		r.emit(ctx, Event{
			Kind:     EventProjectExported,
			Workflow: workflow,
			Instance: src.Instance(),
			Project:  name,
			Path:     path,
			Message:  fmt.Sprintf("Export project %s to %s", name, path),
		})
	}

	return written, nil
}

func (r *Runner) exportProject(ctx context.Context, src rundeck.Client, name, path string) error {
	data, err := src.Projects().Export(ctx, name)
	if err != nil {
		return err
	}

	err = r.fs.MkdirAll(filepath.Dir(path), constants.ArchiveDirPerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	err = afero.WriteFile(r.fs, path, data, constants.ArchiveFilePerm)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// ListArchives returns the *.zip files of dir in lexical order.
func (r *Runner) ListArchives(dir string) ([]string, error) {
	matches, err := afero.Glob(r.fs, filepath.Join(dir, "*"+constants.ArchiveExtension))
	if err != nil {
		return nil, fmt.Errorf("listing archives in %s: %w", dir, err)
	}

	sort.Strings(matches)

	return matches, nil
}

// ImportProjects imports every <project>.zip in dir into dst and returns the
// imported project names. It stops at the first failure.
func (r *Runner) ImportProjects(ctx context.Context, dst rundeck.Client, dir string, opts ImportProjectOptions) ([]string, error) {
	archives, err := r.ListArchives(dir)
	if err != nil {
		return nil, err
	}

	wanted := map[string]bool{}
	for _, name := range opts.Projects {
		wanted[name] = true
	}

	imported := make([]string, 0, len(archives))

	for _, path := range archives {
		err = ctx.Err()
		if err != nil {
			return imported, err
		}

		project := ProjectNameFromArchive(path)
		if len(wanted) > 0 && !wanted[project] {
			continue
		}

		err = r.importProject(ctx, dst, project, path, opts)
		if err != nil {
			return imported, err
		}

		imported = append(imported, project)
	}

	return imported, nil
}

func (r *Runner) importProject(ctx context.Context, dst rundeck.Client, project, path string, opts ImportProjectOptions) error {
	const workflow = "import-projects"

	base := Event{Workflow: workflow, Instance: dst.Instance(), Project: project, Path: path}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return r.fail(ctx, base, fmt.Errorf("reading %s: %w", path, err))
	}

	exists, err := dst.Projects().Exists(ctx, project)
	if err != nil {
		return r.fail(ctx, base, err)
	}

	snapshot := opts.snapshots[project]

	if opts.DeleteExisting && exists {
		if opts.RollbackDir != "" {
			snapshot = ArchivePath(opts.RollbackDir, project)

			err = r.exportProject(ctx, dst, project, snapshot)
			if err != nil {
				return r.fail(ctx, base, fmt.Errorf("snapshotting %s before delete: %w", project, err))
			}

			r.emit(ctx, Event{Kind: EventSnapshotTaken, Workflow: workflow, Instance: dst.Instance(), Project: project, Path: snapshot})
		}

		err = dst.Projects().Delete(ctx, project)
		if err != nil {
			return r.fail(ctx, base, err)
		}

		exists = false

		r.emit(ctx, Event{Kind: EventProjectDeleted, Workflow: workflow, Instance: dst.Instance(), Project: project,
			Message: "Deleting " + project})
	}

	if !exists {
		err = dst.Projects().Create(ctx, project)
		if err != nil {
			return r.fail(ctx, base, err)
		}

		r.emit(ctx, Event{Kind: EventProjectCreated, Workflow: workflow, Instance: dst.Instance(), Project: project,
			Message: "Creating " + project})
	}

	importOpts := rundeck.DefaultImportOptions()
	importOpts.ImportExecutions = opts.ImportExecutions

	_, err = dst.Projects().Import(ctx, project, data, importOpts)
	if err != nil {
		err = fmt.Errorf("importing %s: %w", path, err)

		if snapshot != "" {
			err = r.rollback(ctx, dst, project, snapshot, err)
		}

		return r.fail(ctx, base, err)
	}

	r.emit(ctx, Event{
		Kind:     EventProjectImported,
		Workflow: workflow,
		Instance: dst.Instance(),
		Project:  project,
		Path:     path,
		Message:  fmt.Sprintf("Project %s imported successfully", project),
	})

	return nil
}

// rollback recreates project from snapshot after a failed import. The
// import error is always returned; restore failures are appended to it.
func (r *Runner) rollback(ctx context.Context, dst rundeck.Client, project, snapshot string, importErr error) error {
	result := multierror.Append(nil, importErr)

	data, err := afero.ReadFile(r.fs, snapshot)
	if err != nil {
		return multierror.Append(result, fmt.Errorf("reading snapshot %s: %w", snapshot, err))
	}

	exists, err := dst.Projects().Exists(ctx, project)
	if err != nil {
		return multierror.Append(result, fmt.Errorf("rollback of %s: %w", project, err))
	}

	if exists {
		err = dst.Projects().Delete(ctx, project)
		if err != nil {
			return multierror.Append(result, fmt.Errorf("rollback of %s: %w", project, err))
		}
	}

	err = dst.Projects().Create(ctx, project)
	if err != nil {
		return multierror.Append(result, fmt.Errorf("rollback of %s: %w", project, err))
	}

	_, err = dst.Projects().Import(ctx, project, data, rundeck.DefaultImportOptions())
	if err != nil {
		return multierror.Append(result, fmt.Errorf("rollback of %s: %w", project, err))
	}

	r.emit(ctx, Event{
		Kind:     EventRollback,
		Workflow: "import-projects",
		Instance: dst.Instance(),
		Project:  project,
		Path:     snapshot,
		Message:  fmt.Sprintf("Project %s restored from %s", project, snapshot),
	})

	return result.ErrorOrNil()
}
