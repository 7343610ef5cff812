package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/archive"
)

// UnpackToRepository decompresses every <project>.zip of archivesDir into
// <repoDir>/<project>. Entries matching exclude are skipped. When repoDir
// is a git working tree the volatile lines are stripped so successive
// exports diff cleanly.
func (r *Runner) UnpackToRepository(ctx context.Context, archivesDir, repoDir string, exclude *regexp.Regexp) ([]string, error) {
	const workflow = "unzip-to-repo"

	archives, err := r.ListArchives(archivesDir)
	if err != nil {
		return nil, err
	}

	sanitize, err := afero.DirExists(r.fs, filepath.Join(repoDir, constants.RepositoryMarker))
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", repoDir, err)
	}

	sanitizer := archive.NewSanitizer(r.fs, r.missingPolicy, r.logger)
	unpacked := make([]string, 0, len(archives))
	count := 0

	for _, path := range archives {
		project := ProjectNameFromArchive(path)
		target := filepath.Join(repoDir, project)
		base := Event{Workflow: workflow, Project: project, Path: target}

		count, err = r.codec.Decompress(ctx, path, target, exclude)
		if err != nil {
			return unpacked, r.fail(ctx, base, err)
		}

		if sanitize {
			err = sanitizer.Sanitize(target)
			if err != nil {
				return unpacked, r.fail(ctx, base, err)
			}
		}

		unpacked = append(unpacked, target)

		event := base
		event.Kind = EventArchiveUnpacked
		event.Message = fmt.Sprintf("Unpacked %d files from %s", count, path)
		r.emit(ctx, event)
	}

	return unpacked, nil
}

// PackDirectories compresses every sub-directory of projectsDir into
// <destDir>/<name>.zip.
func (r *Runner) PackDirectories(ctx context.Context, projectsDir, destDir string) ([]string, error) {
	const workflow = "zip-dirs"

	entries, err := afero.ReadDir(r.fs, projectsDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", projectsDir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	err = r.fs.MkdirAll(destDir, constants.ArchiveDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", destDir, err)
	}

	written := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == constants.RepositoryMarker {
			continue
		}

		dest := ArchivePath(destDir, entry.Name())

		err = r.codec.Compress(ctx, filepath.Join(projectsDir, entry.Name()), dest)
		if err != nil {
			return written, r.fail(ctx, Event{Workflow: workflow, Project: entry.Name(), Path: dest}, err)
		}

		written = append(written, dest)

		r.emit(ctx, Event{Kind: EventArchiveWritten, Workflow: workflow, Project: entry.Name(), Path: dest})
	}

	return written, nil
}
