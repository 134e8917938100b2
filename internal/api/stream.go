package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/quantoracle/internal/pipeline"
	"github.com/wonny/quantoracle/pkg/logger"
)

const writeTimeout = 5 * time.Second

// Hub broadcasts pipeline events to websocket subscribers.
// It implements pipeline.Sink, so a running pipeline streams its progress
// to anyone watching GET /api/stream.
// ⭐ SSOT: 파이프라인 이벤트 브로드캐스트는 여기서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an event hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the API is same-host tooling, not a browser product
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Publish sends the event to every connected client. Slow or dead clients
// are dropped, never waited on: the pipeline must not block on observers.
func (h *Hub) Publish(e pipeline.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal pipeline event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleStream upgrades the request and subscribes it to pipeline events
// GET /api/stream
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Stream client connected")

	// read loop only to observe the close; inbound messages are ignored
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
