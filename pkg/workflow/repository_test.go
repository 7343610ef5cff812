package workflow_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/rundeck-admin/pkg/archive"
	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

const (
	manifest   = "Manifest-Version: 1.0\r\nRundeck-Archive-Export-Date: 2024-03-15T10:00:00Z\r\nRundeck-Archive-Project-Name: alpha\r\n"
	properties = "#Exported at Fri Mar 15 10:00:00 UTC 2024\nproject.name=alpha\nproject.description=Alpha\n"
)

func packAlpha(t *testing.T, fs afero.Fs) {
	t.Helper()

	writeFile(t, fs, "/export/alpha/META-INF/MANIFEST.MF", manifest)
	writeFile(t, fs, "/export/alpha/rundeck-alpha/files/etc/project.properties", properties)
	writeFile(t, fs, "/export/alpha/rundeck-alpha/executions/output-1.rdlog", "log")
	require.NoError(t, archive.NewCodec(fs).Compress(context.Background(), "/export/alpha", "/archives/alpha.zip"))
}

func TestUnpackToRepository_Sanitizes(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	packAlpha(t, fs)
	require.NoError(t, fs.MkdirAll("/repo/.git", 0o755))

	recorder := &eventRecorder{}

	unpacked, err := newRunner(fs, recorder).UnpackToRepository(context.Background(), "/archives", "/repo",
		regexp.MustCompile(`\.rdlog$`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/repo/alpha"}, unpacked)

	assert.Equal(t, "Manifest-Version: 1.0\r\nRundeck-Archive-Project-Name: alpha\r\n",
		readFile(t, fs, "/repo/alpha/META-INF/MANIFEST.MF"))
	assert.Equal(t, "project.name=alpha\nproject.description=Alpha\n",
		readFile(t, fs, "/repo/alpha/rundeck-alpha/files/etc/project.properties"))

	exists, err := afero.Exists(fs, "/repo/alpha/rundeck-alpha/executions/output-1.rdlog")
	require.NoError(t, err)
	assert.False(t, exists)

	event, ok := recorder.last(workflow.EventArchiveUnpacked)
	require.True(t, ok)
	assert.Equal(t, "alpha", event.Project)
}

func TestUnpackToRepository_PlainDirectory(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	packAlpha(t, fs)

	_, err := newRunner(fs, &eventRecorder{}).UnpackToRepository(context.Background(), "/archives", "/plain", nil)
	require.NoError(t, err)

	assert.Equal(t, manifest, readFile(t, fs, "/plain/alpha/META-INF/MANIFEST.MF"))
	assert.Equal(t, properties, readFile(t, fs, "/plain/alpha/rundeck-alpha/files/etc/project.properties"))
}

func TestUnpackToRepository_MissingFail(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/export/beta/rundeck-beta/jobs/job.xml", "<joblist/>")
	require.NoError(t, archive.NewCodec(fs).Compress(context.Background(), "/export/beta", "/archives/beta.zip"))
	require.NoError(t, fs.MkdirAll("/repo/.git", 0o755))

	runner := workflow.New(workflow.WithFs(fs), workflow.WithMissingPolicy(archive.MissingFail))

	_, err := runner.UnpackToRepository(context.Background(), "/archives", "/repo", nil)
	require.ErrorIs(t, err, archive.ErrMissingSanitizeTarget)

	_, err = newRunner(fs, &eventRecorder{}).UnpackToRepository(context.Background(), "/archives", "/repo", nil)
	require.NoError(t, err)
}

func TestPackDirectories(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/repo/alpha/META-INF/MANIFEST.MF", "a")
	writeFile(t, fs, "/repo/beta/META-INF/MANIFEST.MF", "b")
	writeFile(t, fs, "/repo/README.md", "readme")
	require.NoError(t, fs.MkdirAll("/repo/.git/objects", 0o755))

	runner := newRunner(fs, &eventRecorder{})

	written, err := runner.PackDirectories(context.Background(), "/repo", "/out")
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/alpha.zip", "/out/beta.zip"}, written)

	count, err := archive.NewCodec(fs).Decompress(context.Background(), "/out/beta.zip", "/check/beta", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "b", readFile(t, fs, "/check/beta/META-INF/MANIFEST.MF"))
}
