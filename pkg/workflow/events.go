package workflow

import (
	"context"
	"time"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// EventKind names a workflow step.
type EventKind string

// Workflow event kinds.
const (
	EventProjectExported EventKind = "project.exported"
	EventProjectCreated  EventKind = "project.created"
	EventProjectDeleted  EventKind = "project.deleted"
	EventProjectImported EventKind = "project.imported"
	EventSnapshotTaken   EventKind = "project.snapshot"
	EventRollback        EventKind = "project.rollback"
	EventExecutionsPurge EventKind = "executions.purged"
	EventJobsExported    EventKind = "jobs.exported"
	EventJobsImported    EventKind = "jobs.imported"
	EventArchiveWritten  EventKind = "archive.written"
	EventArchiveUnpacked EventKind = "archive.unpacked"
	EventStepFailed      EventKind = "step.failed"
)

// Event reports progress of a workflow. Fields irrelevant to a kind are empty.
type Event struct {
	Kind     EventKind            `json:"kind"`
	Workflow string               `json:"workflow"`
	Instance string               `json:"instance,omitempty"`
	Project  string               `json:"project,omitempty"`
	Path     string               `json:"path,omitempty"`
	Message  string               `json:"message,omitempty"`
	Result   *rundeck.BatchResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
	Time     time.Time            `json:"time"`
}

// Observer receives workflow events. Notify must not block for long; the
// workflow waits for it.
type Observer interface {
	Notify(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

// Notify implements Observer.
func (m MultiObserver) Notify(ctx context.Context, event Event) {
	for _, observer := range m {
		if observer != nil {
			observer.Notify(ctx, event)
		}
	}
}

// LoggingObserver writes events to a logger.
type LoggingObserver struct {
	logger rundeck.Logger
}

// NewLoggingObserver creates an observer that logs every event at info, and
// failures at error.
func NewLoggingObserver(logger rundeck.Logger) *LoggingObserver {
	if logger == nil {
		logger = rundeck.NoopLogger{}
	}

	return &LoggingObserver{logger: logger}
}

// Notify implements Observer.
func (o *LoggingObserver) Notify(_ context.Context, event Event) {
	fields := map[string]interface{}{
		"workflow": event.Workflow,
	}

	if event.Instance != "" {
		fields["instance"] = event.Instance
	}

	if event.Project != "" {
		fields["project"] = event.Project
	}

	if event.Path != "" {
		fields["path"] = event.Path
	}

	if event.Result != nil {
		fields["requested"] = event.Result.Requested
		fields["succeeded"] = event.Result.Succeeded
		fields["failed"] = event.Result.Failed
	}

	msg := string(event.Kind)
	if event.Message != "" {
		msg = event.Message
	}

	if event.Error != "" {
		fields["error"] = event.Error
		o.logger.Error(msg, fields)

		return
	}

	o.logger.Info(msg, fields)
}
