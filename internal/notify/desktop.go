package notify

import (
	"context"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Desktop shows system notifications. Delivery happens in the background
// so a slow notification daemon never stalls a task.
type Desktop struct {
	send func(title, message string, icon any) error
	wg   sync.WaitGroup
}

// NewDesktop creates a Desktop notifier backed by the OS notification center.
func NewDesktop() *Desktop {
	return &Desktop{send: beeep.Notify}
}

// Notify implements Notifier.
func (d *Desktop) Notify(ctx context.Context, msg Message) error {
	body := msg.Body
	if msg.Subtitle != "" {
		body = msg.Subtitle + "\n" + msg.Body
	}

	logger := ctxlog.FromContext(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.send(msg.Title, body, ""); err != nil {
			logger.Debug("Desktop notification failed.", "error", err)
		}
	}()
	return nil
}

// Wait blocks until every pending notification has been handed to the OS.
func (d *Desktop) Wait() {
	d.wg.Wait()
}
