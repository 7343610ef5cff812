package workflow

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// TransferOptions select how projects move from one instance to another.
type TransferOptions struct {
	// Projects restricts the transfer. Empty means every source project.
	Projects []string
	// DeleteBeforeImport deletes a destination project before importing it.
	DeleteBeforeImport bool
	// ImportExecutions carries execution history across.
	ImportExecutions bool
	// ReplaceDestination deletes every destination project before importing,
	// including projects absent from the source.
	ReplaceDestination bool
	// StagingDir receives the exported archives.
	StagingDir string
	// RollbackDir, when set, receives snapshots of deleted destination
	// projects.
	RollbackDir string
}

// ReplicateOptions makes the destination an exact copy of the source.
func ReplicateOptions() TransferOptions {
	return TransferOptions{
		DeleteBeforeImport: true,
		ImportExecutions:   true,
		ReplaceDestination: true,
	}
}

// PromoteOptions moves one project's definitions to the destination and
// leaves its history there untouched.
func PromoteOptions(project string) TransferOptions {
	return TransferOptions{
		Projects: []string{project},
	}
}

// Transfer exports projects from src into the staging dir and imports them
// into dst.
func (r *Runner) Transfer(ctx context.Context, src, dst rundeck.Client, opts TransferOptions) ([]string, error) {
	if opts.StagingDir == "" {
		return nil, fmt.Errorf("transfer: %w", ErrStagingDirRequired)
	}

	_, err := r.ExportProjects(ctx, src, opts.StagingDir, opts.Projects...)
	if err != nil {
		return nil, fmt.Errorf("exporting from %s: %w", src.Instance(), err)
	}

	var snapshots map[string]string

	if opts.ReplaceDestination {
		snapshots, err = r.clearDestination(ctx, dst, opts.RollbackDir)
		if err != nil {
			return nil, err
		}
	}

	imported, err := r.ImportProjects(ctx, dst, opts.StagingDir, ImportProjectOptions{
		DeleteExisting:   opts.DeleteBeforeImport,
		ImportExecutions: opts.ImportExecutions,
		RollbackDir:      opts.RollbackDir,
		Projects:         opts.Projects,
		snapshots:        snapshots,
	})
	if err != nil {
		return imported, fmt.Errorf("importing into %s: %w", dst.Instance(), err)
	}

	return imported, nil
}

// clearDestination deletes every project of dst and returns the snapshot
// taken of each one when rollbackDir is set.
func (r *Runner) clearDestination(ctx context.Context, dst rundeck.Client, rollbackDir string) (map[string]string, error) {
	const workflow = "transfer"

	names, err := dst.Projects().ListNames(ctx)
	if err != nil {
		return nil, r.fail(ctx, Event{Workflow: workflow, Instance: dst.Instance()}, err)
	}

	snapshots := map[string]string{}

	for _, name := range names {
		err = ctx.Err()
		if err != nil {
			return snapshots, err
		}

		base := Event{Workflow: workflow, Instance: dst.Instance(), Project: name}

		if rollbackDir != "" {
			path := ArchivePath(rollbackDir, name)

			err = r.exportProject(ctx, dst, name, path)
			if err != nil {
				return snapshots, r.fail(ctx, base, fmt.Errorf("snapshotting %s before delete: %w", name, err))
			}

			snapshots[name] = path

			r.emit(ctx, Event{Kind: EventSnapshotTaken, Workflow: workflow, Instance: dst.Instance(), Project: name, Path: path})
		}

		err = dst.Projects().Delete(ctx, name)
		if err != nil {
			return snapshots, r.fail(ctx, base, err)
		}

		r.emit(ctx, Event{Kind: EventProjectDeleted, Workflow: workflow, Instance: dst.Instance(), Project: name,
			Message: "Deleting " + name})
	}

	return snapshots, nil
}
