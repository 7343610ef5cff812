package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

func TestProjectNameFromArchive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", workflow.ProjectNameFromArchive("/tmp/stage/foo.zip"))
	assert.Equal(t, "my.project", workflow.ProjectNameFromArchive("my.project.zip"))
	assert.Equal(t, "/tmp/stage/foo.zip", workflow.ArchivePath("/tmp/stage", "foo"))
}

func TestExportProjects(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	recorder := &eventRecorder{}
	src := newFakeInstance("src.example.com", map[string]string{"alpha": "A", "beta": "B"})

	written, err := newRunner(fs, recorder).ExportProjects(context.Background(), src, "/stage")
	require.NoError(t, err)

	assert.Equal(t, []string{"/stage/alpha.zip", "/stage/beta.zip"}, written)
	assert.Equal(t, "A", readFile(t, fs, "/stage/alpha.zip"))
	assert.Equal(t, "B", readFile(t, fs, "/stage/beta.zip"))
	assert.Equal(t, []workflow.EventKind{workflow.EventProjectExported, workflow.EventProjectExported}, recorder.kinds())

	event, ok := recorder.last(workflow.EventProjectExported)
	require.True(t, ok)
	assert.Equal(t, "src.example.com", event.Instance)
	assert.Equal(t, "beta", event.Project)
	assert.Equal(t, fixedNow.UTC(), event.Time)
}

func TestExportProjects_Subset(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	src := newFakeInstance("src", map[string]string{"alpha": "A", "beta": "B"})

	written, err := newRunner(fs, &eventRecorder{}).ExportProjects(context.Background(), src, "/stage", "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"/stage/beta.zip"}, written)

	exists, err := afero.Exists(fs, "/stage/alpha.zip")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExportProjects_Failure(t *testing.T) {
	t.Parallel()

	recorder := &eventRecorder{}
	src := newFakeInstance("src", nil)

	_, err := newRunner(afero.NewMemMapFs(), recorder).ExportProjects(context.Background(), src, "/stage", "missing")
	require.Error(t, err)
	assert.True(t, rundeck.IsNotFound(err))

	event, ok := recorder.last(workflow.EventStepFailed)
	require.True(t, ok)
	assert.Equal(t, "missing", event.Project)
	assert.NotEmpty(t, event.Error)
}

func TestImportProjects_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	runner := newRunner(fs, &eventRecorder{})
	ctx := context.Background()

	src := newFakeInstance("src", map[string]string{"P": "archive-P"})
	dst := newFakeInstance("dst", nil)

	_, err := runner.ExportProjects(ctx, src, "/stage")
	require.NoError(t, err)

	imported, err := runner.ImportProjects(ctx, dst, "/stage", workflow.ImportProjectOptions{
		DeleteExisting:   true,
		ImportExecutions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, imported)

	names, err := dst.Projects().ListNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "P")
	assert.Equal(t, "archive-P", string(dst.projects["P"]))
	assert.Equal(t, []string{"create P", "import P"}, dst.calls)
}

func TestImportProjects_NameFromFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/foo.zip", "zip-bytes")
	writeFile(t, fs, "/in/notes.txt", "ignored")

	dst := newFakeInstance("dst", nil)

	imported, err := newRunner(fs, &eventRecorder{}).ImportProjects(context.Background(), dst, "/in", workflow.ImportProjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, imported)
	assert.Equal(t, []string{"foo"}, dst.names())
	assert.False(t, dst.importOpts["foo"].ImportExecutions)
}

func TestImportProjects_ExistingWithoutDelete(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/alpha.zip", "new")

	dst := newFakeInstance("dst", map[string]string{"alpha": "old"})

	_, err := newRunner(fs, &eventRecorder{}).ImportProjects(context.Background(), dst, "/in", workflow.ImportProjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"import alpha"}, dst.calls)
	assert.Equal(t, "new", string(dst.projects["alpha"]))
}

func TestImportProjects_StopsAtFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/P1.zip", "one")
	writeFile(t, fs, "/in/P2.zip", "two")
	writeFile(t, fs, "/in/P3.zip", "three")

	dst := newFakeInstance("dst", nil)
	dst.importStatus["P2"] = "failed"

	imported, err := newRunner(fs, &eventRecorder{}).ImportProjects(context.Background(), dst, "/in", workflow.ImportProjectOptions{})
	require.Error(t, err)
	assert.Equal(t, []string{"P1"}, imported)
	assert.Contains(t, err.Error(), "P2")
	assert.Contains(t, err.Error(), "failed")

	var importErr *rundeck.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, "P2", importErr.Project)

	_, attempted := dst.importOpts["P3"]
	assert.False(t, attempted)
}

func TestImportProjects_RollbackRestoresSnapshot(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/P2.zip", "broken")

	recorder := &eventRecorder{}
	dst := newFakeInstance("dst", map[string]string{"P2": "previous"})
	dst.importStatus["P2"] = "failed"

	_, err := newRunner(fs, recorder).ImportProjects(context.Background(), dst, "/in", workflow.ImportProjectOptions{
		DeleteExisting: true,
		RollbackDir:    "/rollback",
	})
	require.Error(t, err)

	var importErr *rundeck.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, "failed", importErr.Status)

	assert.Equal(t, "previous", readFile(t, fs, "/rollback/P2.zip"))
	assert.Equal(t, "previous", string(dst.projects["P2"]))
	assert.Equal(t, []workflow.EventKind{
		workflow.EventSnapshotTaken,
		workflow.EventProjectDeleted,
		workflow.EventProjectCreated,
		workflow.EventRollback,
		workflow.EventStepFailed,
	}, recorder.kinds())
}

func TestImportProjects_DeleteWithoutRollback(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/P2.zip", "broken")

	dst := newFakeInstance("dst", map[string]string{"P2": "previous"})
	dst.importStatus["P2"] = "failed"

	_, err := newRunner(fs, &eventRecorder{}).ImportProjects(context.Background(), dst, "/in", workflow.ImportProjectOptions{
		DeleteExisting: true,
	})
	require.Error(t, err)
	assert.Empty(t, dst.projects["P2"])
	assert.Equal(t, []string{"delete P2", "create P2", "import P2"}, dst.calls)
}

func TestImportProjects_Canceled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/alpha.zip", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := newFakeInstance("dst", nil)

	_, err := newRunner(fs, &eventRecorder{}).ImportProjects(ctx, dst, "/in", workflow.ImportProjectOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dst.calls)
}
