package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/cakewish/internal/scene"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameSource returns the most recently rendered frame, or nil before the
// first render.
type FrameSource interface {
	Latest() *scene.Frame
}

// FramesHandler broadcasts rendered frames to websocket clients.
type FramesHandler struct {
	source   FrameSource
	interval time.Duration
	logger   *slog.Logger
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
}

// NewFramesHandler creates a FramesHandler sending at most fps frames per
// second. Call Run to start broadcasting.
func NewFramesHandler(source FrameSource, fps int, logger *slog.Logger) *FramesHandler {
	if fps <= 0 {
		fps = 30
	}
	return &FramesHandler{
		source:   source,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
		clients:  make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", slog.Any("error", err))
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *FramesHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *FramesHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts new frames until ctx is done, then closes all clients.
func (h *FramesHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastID uint64
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		frame := h.source.Latest()
		if frame == nil || frame.ID == lastID {
			continue
		}
		lastID = frame.ID

		msg, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("failed to encode frame", slog.Any("error", err))
			continue
		}
		h.broadcast(msg)
	}
}

func (h *FramesHandler) broadcast(msg []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", slog.Any("error", err))
			h.remove(conn)
			conn.Close()
		}
	}
}

func (h *FramesHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
}
