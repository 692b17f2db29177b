// Package listen follows a running dev server's reload events over
// socket.io.
package listen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event is one reload notification received from the server.
type Event struct {
	Type  string   `json:"type"`
	Paths []string `json:"paths"`
}

// Listen connects to serverURL and sends every reload event to out until ctx
// is cancelled. A failed initial connection is returned as an error.
func Listen(ctx context.Context, serverURL string, out chan<- Event) error {
	logger := ctxlog.FromContext(ctx).With("url", serverURL)

	parsed, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL %q must include scheme and host", serverURL)
	}

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	connectErr := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("👂 Listening for reloads.", "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		select {
		case connectErr <- connectError(errs):
		default:
		}
	})
	io.On(types.EventName("reload"), func(data ...any) {
		if len(data) == 0 {
			return
		}
		ev, err := decodeEvent(data[0])
		if err != nil {
			logger.Warn("Ignoring malformed reload event.", "error", err)
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	})

	io.Connect()

	select {
	case <-ctx.Done():
		return nil
	case err := <-connectErr:
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
}

// decodeEvent converts the generic payload produced by the socket.io parser.
func decodeEvent(payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

var errConnectFailed = errors.New("connection failed")

// connectError picks the error reported with a connect_error event.
func connectError(args []any) error {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			return err
		}
	}
	return errConnectFailed
}
