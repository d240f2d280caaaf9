package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRealtimeServer(t *testing.T, serve func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
}

func TestSubscriberDispatchesEvents(t *testing.T) {
	srv := newRealtimeServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteJSON(ChangeEvent{Table: "posts", Action: "insert"}))
	})
	defer srv.Close()

	events := make(chan ChangeEvent, 1)
	s := NewSubscriber(srv.URL, func() string { return "tok" }, func(ev ChangeEvent) {
		events <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- s.connectAndRead(ctx) }()

	select {
	case ev := <-events:
		assert.Equal(t, "posts", ev.Table)
		assert.Equal(t, "insert", ev.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
	}
	<-errc
}

func TestWatcherExitsWhenConnectionDrops(t *testing.T) {
	// Server accepts and immediately hangs up, forcing a read error on the
	// client and a reconnect by the caller.
	srv := newRealtimeServer(t, func(*websocket.Conn) {})
	defer srv.Close()

	s := NewSubscriber(srv.URL, func() string { return "" }, func(ChangeEvent) {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	for i := 0; i < 8; i++ {
		require.Error(t, s.connectAndRead(ctx))
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+1 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines grew from %d to %d across reconnects", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
