package devserver

import (
	"encoding/json"
	"sync"

	"campusnet/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Hub fans row-change notifications out to every connected realtime
// subscriber.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Register adds a subscriber connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes a subscriber connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// BroadcastChange notifies every subscriber that rows in table changed.
func (h *Hub) BroadcastChange(table, action string) {
	payload, err := json.Marshal(map[string]string{
		"table":  table,
		"action": action,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			observability.GlobalLogger.Warn("realtime write failed", "error", err.Error())
		}
	}
}

// RealtimeUpgrade rejects requests that are not WebSocket upgrades.
func RealtimeUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// RealtimeHandler keeps the subscriber connection registered until the client
// disconnects. The feed is one way; reads are discarded.
func (s *Server) RealtimeHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		s.hub.Register(conn)
		defer func() {
			s.hub.Unregister(conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
