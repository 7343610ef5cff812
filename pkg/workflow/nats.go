package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ErrNATSCloseTimeout is returned when the event connection does not close in
// time.
var ErrNATSCloseTimeout = errors.New("timed out closing NATS connection")

// Publisher is the subset of *nats.Conn used to publish events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes every event as JSON on a NATS subject. Publish
// failures are logged and never fail the workflow.
type NATSObserver struct {
	publisher Publisher
	subject   string
	logger    rundeck.Logger
}

// NewNATSObserver creates an observer publishing on subject. An empty
// subject means constants.DefaultEventSubject.
func NewNATSObserver(publisher Publisher, subject string, logger rundeck.Logger) *NATSObserver {
	if subject == "" {
		subject = constants.DefaultEventSubject
	}

	if logger == nil {
		logger = rundeck.NoopLogger{}
	}

	return &NATSObserver{publisher: publisher, subject: subject, logger: logger}
}

// Notify implements Observer.
func (o *NATSObserver) Notify(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		o.logger.Warn("encoding workflow event", map[string]interface{}{"error": err.Error()})

		return
	}

	err = o.publisher.Publish(o.subject+"."+string(event.Kind), data)
	if err != nil {
		o.logger.Warn("publishing workflow event", map[string]interface{}{
			"subject": o.subject,
			"error":   err.Error(),
		})
	}
}

// ConnectNATS dials url and returns an observer on subject together with a
// function that flushes pending events and closes the connection.
func ConnectNATS(url, subject string, logger rundeck.Logger) (*NATSObserver, func() error, error) {
	closed := make(chan struct{})

	conn, err := nats.Connect(url,
		nats.Name("rdadmin"),
		nats.MaxReconnects(constants.NATSMaxReconnects),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	closeFn := func() error {
		return flushAndDrain(conn, closed, constants.NATSCloseTimeout)
	}

	return NewNATSObserver(conn, subject, logger), closeFn, nil
}

// natsDrainer is the subset of *nats.Conn used to shut the connection down.
type natsDrainer interface {
	FlushTimeout(timeout time.Duration) error
	Drain() error
	Close()
}

// flushAndDrain waits until published events reached the server, then
// drains the connection and blocks until it is closed.
func flushAndDrain(conn natsDrainer, closed <-chan struct{}, timeout time.Duration) error {
	err := conn.FlushTimeout(timeout)
	if err != nil {
		conn.Close()

		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	err = conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	select {
	case <-closed:
		return nil
	case <-time.After(timeout):
		conn.Close()

		return ErrNATSCloseTimeout
	}
}
