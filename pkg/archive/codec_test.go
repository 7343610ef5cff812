package archive_test

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/rundeck-admin/pkg/archive"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/src/alpha/META-INF/MANIFEST.MF":                       "Manifest-Version: 1.0\n",
		"/src/alpha/rundeck-alpha/jobs/job-1.xml":               "<joblist/>",
		"/src/alpha/rundeck-alpha/files/etc/project.properties": "#generated\nproject.name=alpha\n",
		"/src/alpha/rundeck-alpha/executions/execution-1.xml":   "<execution/>",
	})

	codec := archive.NewCodec(fs)
	ctx := context.Background()

	require.NoError(t, codec.Compress(ctx, "/src/alpha", "/out/alpha.zip"))

	written, err := codec.Decompress(ctx, "/out/alpha.zip", "/restored/alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, written)

	data, err := afero.ReadFile(fs, "/restored/alpha/rundeck-alpha/files/etc/project.properties")
	require.NoError(t, err)
	assert.Equal(t, "#generated\nproject.name=alpha\n", string(data))
}

func TestCodec_DecompressExclude(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/src/p/rundeck-p/jobs/job.xml":              "job",
		"/src/p/rundeck-p/executions/output-1.rdlog": "log",
	})

	codec := archive.NewCodec(fs)
	require.NoError(t, codec.Compress(context.Background(), "/src/p", "/p.zip"))

	written, err := codec.Decompress(context.Background(), "/p.zip", "/dst", regexp.MustCompile(`/executions/`))
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	_, err = fs.Stat("/dst/rundeck-p/executions/output-1.rdlog")
	assert.True(t, os.IsNotExist(err))
}

func TestCodec_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)
	entry, err := writer.Create("../../etc/passwd")
	require.NoError(t, err)
	_, err = entry.Write([]byte("root"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/evil.zip", buf.Bytes(), 0o644))

	_, err = archive.NewCodec(fs).Decompress(context.Background(), "/evil.zip", "/dst", nil)
	require.Error(t, err)

	_, err = fs.Stat("/etc/passwd")
	assert.True(t, os.IsNotExist(err))
}

func TestCodec_Errors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	codec := archive.NewCodec(fs)

	_, err := codec.Decompress(context.Background(), "/missing.zip", "/dst", nil)
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/not-a.zip", []byte("plain text"), 0o644))
	_, err = codec.Decompress(context.Background(), "/not-a.zip", "/dst", nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	writeFiles(t, fs, map[string]string{"/src/a.txt": "a"})
	require.ErrorIs(t, codec.Compress(ctx, "/src", "/out.zip"), context.Canceled)
}
