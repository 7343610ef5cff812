// Package workflow sequences multi-step administrative operations against
// one or two Rundeck instances: exporting and importing projects, purging
// execution history, replicating or promoting projects between instances,
// copying jobs, and turning archives into diffable directories.
//
// Every workflow runs strictly sequentially and checks its context between
// steps. Progress is reported to an Observer rather than printed.
package workflow

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/pkg/archive"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// Runner executes workflows.
type Runner struct {
	fs            afero.Fs
	codec         *archive.Codec
	observer      Observer
	logger        rundeck.Logger
	now           func() time.Time
	missingPolicy archive.MissingPolicy
}

// Option configures a Runner.
type Option func(*Runner)

// WithFs sets the filesystem used for staging, archives and repositories.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithObserver sets the event observer.
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithLogger sets the logger.
func WithLogger(logger rundeck.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClock overrides the current time, used for the purge cut-off.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithMissingPolicy sets what sanitation does with files absent from an
// unpacked archive.
func WithMissingPolicy(policy archive.MissingPolicy) Option {
	return func(r *Runner) {
		r.missingPolicy = policy
	}
}

// New creates a runner. Defaults: OS filesystem, no observer, no logging,
// wall clock, missing sanitation targets ignored.
func New(opts ...Option) *Runner {
	runner := &Runner{
		fs:            afero.NewOsFs(),
		observer:      MultiObserver{},
		logger:        rundeck.NoopLogger{},
		now:           time.Now,
		missingPolicy: archive.MissingIgnore,
	}

	for _, opt := range opts {
		opt(runner)
	}

	runner.codec = archive.NewCodec(runner.fs, archive.WithLogger(runner.logger))

	return runner
}

func (r *Runner) emit(ctx context.Context, event Event) {
	event.Time = r.now().UTC()
	r.observer.Notify(ctx, event)
}

func (r *Runner) fail(ctx context.Context, event Event, err error) error {
	event.Kind = EventStepFailed
	event.Error = err.Error()
	r.emit(ctx, event)

	return err
}
