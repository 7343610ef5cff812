package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

// eventRecorder keeps every event it is notified of.
type eventRecorder struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (r *eventRecorder) Notify(_ context.Context, event workflow.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *eventRecorder) kinds() []workflow.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]workflow.EventKind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind)
	}

	return kinds
}

func (r *eventRecorder) last(kind workflow.EventKind) (workflow.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}

	return workflow.Event{}, false
}

var fixedNow = time.Date(2024, time.March, 15, 13, 45, 0, 0, time.FixedZone("CEST", 2*60*60))

func newRunner(fs afero.Fs, recorder *eventRecorder) *workflow.Runner {
	return workflow.New(
		workflow.WithFs(fs),
		workflow.WithObserver(recorder),
		workflow.WithClock(func() time.Time { return fixedNow }),
	)
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	return string(data)
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()

	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}
