package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/yasakei/xos/internal/domain/vfs"
)

const eventsPath = "/api/vfs/events"

// Watch streams change events for the active user until ctx is done or the
// server closes the feed. fn runs on the reading goroutine.
func (c *Client) Watch(ctx context.Context, fn func(vfs.Event)) error {
	u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + eventsPath)
	if err != nil {
		return fmt.Errorf("parse events url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: "change feed unavailable"}
		}
		return fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev vfs.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("change feed closed: %w", err)
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		fn(ev)
	}
}
