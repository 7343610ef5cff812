package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// CopyJobs exports the job definitions of project from, keeps them at
// <stagingDir>/<from>.yaml and imports them into project to with fresh UUIDs.
func (r *Runner) CopyJobs(ctx context.Context, c rundeck.Client, from, to, stagingDir string) (*rundeck.JobImportResult, error) {
	const workflow = "copy-jobs"

	base := Event{Workflow: workflow, Instance: c.Instance(), Project: from}

	definitions, err := c.Jobs().Export(ctx, from)
	if err != nil {
		return nil, r.fail(ctx, base, err)
	}

	path := filepath.Join(stagingDir, from+".yaml")

	err = r.fs.MkdirAll(stagingDir, constants.ArchiveDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", stagingDir, err)
	}

	err = afero.WriteFile(r.fs, path, definitions, constants.ArchiveFilePerm)
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	r.emit(ctx, Event{Kind: EventJobsExported, Workflow: workflow, Instance: c.Instance(), Project: from, Path: path})

	opts := rundeck.DefaultJobImportOptions()

	result, err := c.Jobs().Import(ctx, to, definitions, opts)
	if err != nil {
		event := base
		event.Project = to
		event.Path = path

		return result, r.fail(ctx, event, err)
	}

	r.emit(ctx, Event{
		Kind:     EventJobsImported,
		Workflow: workflow,
		Instance: c.Instance(),
		Project:  to,
		Path:     path,
		Message:  fmt.Sprintf("Imported %d jobs from %s into %s", len(result.Succeeded), from, to),
	})

	return result, nil
}
