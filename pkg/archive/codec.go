// Package archive compresses and decompresses Rundeck project archives and
// strips volatile lines from unpacked archives so they diff cleanly.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// Codec reads and writes zip archives on an afero filesystem.
type Codec struct {
	fs     afero.Fs
	logger rundeck.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger.
func WithLogger(logger rundeck.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// NewCodec creates a codec on fs. A nil fs means the OS filesystem.
func NewCodec(fs afero.Fs, opts ...Option) *Codec {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	codec := &Codec{fs: fs, logger: rundeck.NoopLogger{}}
	for _, opt := range opts {
		opt(codec)
	}

	return codec
}

// Compress writes every file under sourceDir into destZip, with entry names
// relative to sourceDir.
func (c *Codec) Compress(ctx context.Context, sourceDir, destZip string) error {
	err := c.fs.MkdirAll(filepath.Dir(destZip), constants.ArchiveDirPerm)
	if err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	out, err := c.fs.OpenFile(destZip, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.ArchiveFilePerm)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", destZip, err)
	}

	writer := zip.NewWriter(out)
	entries := 0

	walkErr := afero.Walk(c.fs, sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}

		if rel == "." {
			return nil
		}

		entries++

		return c.addEntry(writer, path, filepath.ToSlash(rel), info)
	})

	closeErr := writer.Close()
	fileErr := out.Close()

	switch {
	case walkErr != nil:
		return fmt.Errorf("compressing %s: %w", sourceDir, walkErr)
	case closeErr != nil:
		return fmt.Errorf("finalizing archive %s: %w", destZip, closeErr)
	case fileErr != nil:
		return fmt.Errorf("closing archive %s: %w", destZip, fileErr)
	}

	c.logger.Debug("archive written", map[string]interface{}{
		"source":  sourceDir,
		"archive": destZip,
		"entries": entries,
	})

	return nil
}

func (c *Codec) addEntry(writer *zip.Writer, path, name string, info os.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("building header for %s: %w", path, err)
	}

	header.Name = name

	if info.IsDir() {
		header.Name += "/"
		header.Method = zip.Store

		_, err = writer.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("adding directory %s: %w", name, err)
		}

		return nil
	}

	header.Method = zip.Deflate

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	in, err := c.fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	defer func() { _ = in.Close() }()

	_, err = io.Copy(entry, in)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}

// Decompress extracts zipPath into destDir and returns the number of files
// written. Entries whose name matches exclude are skipped. Entries that would
// land outside destDir fail the extraction.
func (c *Codec) Decompress(ctx context.Context, zipPath, destDir string, exclude *regexp.Regexp) (int, error) {
	in, err := c.fs.Open(zipPath)
	if err != nil {
		return 0, fmt.Errorf("opening archive %s: %w", zipPath, err)
	}

	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive %s: %w", zipPath, err)
	}

	reader, err := zip.NewReader(in, info.Size())
	if err != nil {
		return 0, fmt.Errorf("reading archive %s: %w", zipPath, err)
	}

	err = c.fs.MkdirAll(destDir, constants.ArchiveDirPerm)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", destDir, err)
	}

	root := filepath.Clean(destDir)
	written := 0

	for _, file := range reader.File {
		err = ctx.Err()
		if err != nil {
			return written, err
		}

		if exclude != nil && exclude.MatchString(file.Name) {
			continue
		}

		target, err := safeJoin(root, file.Name)
		if err != nil {
			return written, err
		}

		if file.FileInfo().IsDir() {
			err = c.fs.MkdirAll(target, constants.ArchiveDirPerm)
			if err != nil {
				return written, fmt.Errorf("creating %s: %w", target, err)
			}

			continue
		}

		err = c.extractFile(file, target)
		if err != nil {
			return written, err
		}

		written++
	}

	c.logger.Debug("archive extracted", map[string]interface{}{
		"archive":     zipPath,
		"destination": destDir,
		"files":       written,
	})

	return written, nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", rundeck.ErrPathTraversalDetected, name)
	}

	return target, nil
}

func (c *Codec) extractFile(file *zip.File, target string) error {
	err := c.fs.MkdirAll(filepath.Dir(target), constants.ArchiveDirPerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", file.Name, err)
	}

	defer func() { _ = src.Close() }()

	dst, err := c.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.ArchiveFilePerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	// #nosec G110 -- archives come from the operator's own Rundeck instances
	_, err = io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()

		return fmt.Errorf("extracting %s: %w", file.Name, err)
	}

	err = dst.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	return nil
}
