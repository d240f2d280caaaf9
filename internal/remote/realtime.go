package remote

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"campusnet/internal/observability"

	"github.com/gorilla/websocket"
)

// ChangeEvent is a row-change notification from the realtime feed.
type ChangeEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"` // insert, update, delete
}

// Subscriber maintains a WebSocket subscription to the data service's change
// feed and invokes the handler for every event. The subscription is best
// effort: connection failures are logged and retried, never surfaced.
type Subscriber struct {
	url     string
	token   TokenSource
	handler func(ChangeEvent)
}

// NewSubscriber returns a subscriber for the service at baseURL.
func NewSubscriber(baseURL string, token TokenSource, handler func(ChangeEvent)) *Subscriber {
	wsURL := strings.TrimRight(baseURL, "/") + "/realtime"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	return &Subscriber{url: wsURL, token: token, handler: handler}
}

// Run connects and dispatches events until the context is cancelled,
// reconnecting with backoff on failure.
func (s *Subscriber) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := s.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.GlobalLogger.WarnContext(ctx, "realtime subscription dropped",
				"error", err.Error(), "retry_in", backoff.String())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *Subscriber) connectAndRead(ctx context.Context) error {
	url := s.url
	if tok := s.token(); tok != "" {
		url += "?token=" + tok
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watcher must not outlive this connection; otherwise every reconnect
	// would leave one behind.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev ChangeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		observability.RealtimeEvents.WithLabelValues(ev.Table).Inc()
		s.handler(ev)
	}
}
