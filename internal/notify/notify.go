// Package notify delivers Stage Failure notifications to the developer: a
// desktop notification and a styled console line.
package notify

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// Message is one notification.
type Message struct {
	Title    string
	Subtitle string
	Body     string
}

// Notifier delivers messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

// Notify implements Notifier. Every notifier is called even if one fails.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every notifier that delivers in the background is done.
func (m Multi) Wait() {
	for _, n := range m {
		if w, ok := n.(waiter); ok {
			w.Wait()
		}
	}
}

type waiter interface {
	Wait()
}

// Flush waits up to timeout for n to finish background deliveries and
// reports whether it did.
func Flush(n Notifier, timeout time.Duration) bool {
	w, ok := n.(waiter)
	if !ok {
		return true
	}
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// FromConfig builds the notifiers enabled by settings. Console output goes
// to w.
func FromConfig(settings *config.NotifyDefinition, w io.Writer) Notifier {
	if settings == nil {
		settings = config.DefaultNotify()
	}
	var m Multi
	if settings.Console {
		m = append(m, NewConsole(w))
	}
	if settings.Desktop {
		m = append(m, NewDesktop())
	}
	return m
}

// Handler adapts a Notifier into the runner's error handler. Delivery
// problems are logged and never reach the task.
func Handler(n Notifier, settings *config.NotifyDefinition) pipeline.ErrorHandler {
	if settings == nil {
		settings = config.DefaultNotify()
	}
	return func(ctx context.Context, failure *pipeline.StageFailure) {
		msg := Message{
			Title:    settings.Title,
			Subtitle: settings.Subtitle,
			Body:     failure.Error(),
		}
		if err := n.Notify(ctx, msg); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to deliver notification.", "error", err)
		}
	}
}
