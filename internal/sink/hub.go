package sink

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub broadcasts frames to connected websocket clients. New clients receive the last
// frame of each phase and type, and of each field chart, so they do not start blank.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan Frame

	lastMu sync.RWMutex
	last   map[string]Frame
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Frame, 256),
		last:      make(map[string]Frame),
	}
}

// Run delivers queued frames until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case f := <-h.broadcast:
			h.clientsMu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(f); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.clientsMu.Unlock()
		}
	}
}

func replayKey(f Frame) string {
	key := string(f.Phase) + "/" + f.Type
	if f.Type == FrameSeries && f.Series != nil {
		key += "/" + f.Series.Key
	}
	return key
}

// Publish queues a frame for broadcast.
func (h *Hub) Publish(ctx context.Context, f Frame) error {
	h.lastMu.Lock()
	h.last[replayKey(f)] = f
	h.lastMu.Unlock()

	select {
	case h.broadcast <- f:
		return observe("websocket", nil)
	case <-ctx.Done():
		return observe("websocket", ctx.Err())
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	h.clientsMu.Lock()
	h.lastMu.RLock()
	for _, f := range h.last {
		_ = conn.WriteJSON(f)
	}
	h.lastMu.RUnlock()
	h.clients[conn] = true
	h.clientsMu.Unlock()

	defer func() {
		h.clientsMu.Lock()
		if h.clients[conn] {
			delete(h.clients, conn)
			conn.Close()
		}
		h.clientsMu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
