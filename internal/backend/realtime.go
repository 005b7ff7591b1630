package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventsReconnectMin = 2 * time.Second
	eventsReconnectMax = 60 * time.Second
)

// Events opens the auth-change notification stream. The returned channel
// stays open across reconnects and closes when ctx is cancelled.
func (c *httpClient) Events(ctx context.Context) (<-chan AuthEvent, error) {
	wsURL, err := c.eventsURL()
	if err != nil {
		return nil, err
	}

	ch := make(chan AuthEvent, 8)
	go c.readEvents(ctx, wsURL, ch)
	return ch, nil
}

func (c *httpClient) eventsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/realtime/v1/auth"
	q := u.Query()
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *httpClient) readEvents(ctx context.Context, wsURL string, ch chan<- AuthEvent) {
	defer close(ch)

	delay := eventsReconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			slog.Info("auth event stream connect failed", "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > eventsReconnectMax {
				delay = eventsReconnectMax
			}
			continue
		}
		delay = eventsReconnectMin

		c.pumpEvents(ctx, conn, ch)
		conn.Close()
	}
}

func (c *httpClient) pumpEvents(ctx context.Context, conn *websocket.Conn, ch chan<- AuthEvent) {
	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Info("auth event stream closed", "error", err.Error())
			}
			return
		}

		var ev AuthEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Info("auth event decode failed", "error", err.Error())
			continue
		}

		switch ev.Type {
		case EventSignedIn, EventTokenRefreshed:
			if ev.Session != nil {
				c.SetSession(ev.Session)
			}
		case EventSignedOut:
			c.SetSession(nil)
		default:
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}
