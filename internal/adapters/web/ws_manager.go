// Package web holds the HTTP-facing adapters: the websocket event feed and
// the handlers and middleware in their subpackages.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/middleware"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow same-origin (no Origin header)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

// WSMessage is the envelope for every event pushed to clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// WSManager fans scan, enrichment, and report events out to connected
// dashboard clients. It implements ports.EventBroadcaster so services can
// publish without knowing about websockets.
type WSManager struct {
	clients map[*websocket.Conn]*domain.User
	queue   chan WSMessage
	mu      sync.Mutex
}

// NewWSManager creates the websocket manager.
func NewWSManager() *WSManager {
	return &WSManager{
		clients: make(map[*websocket.Conn]*domain.User),
		queue:   make(chan WSMessage, 256),
	}
}

// Start runs the broadcast loop until the context is cancelled.
func (m *WSManager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-m.queue:
				m.send(msg)
			}
		}
	}()
}

// Broadcast queues an event for all connected clients. It never blocks the
// calling service; events are dropped when the queue is full.
func (m *WSManager) Broadcast(eventType string, payload interface{}) {
	msg := WSMessage{Type: eventType, Payload: payload, Time: time.Now().UTC()}
	select {
	case m.queue <- msg:
	default:
		log.Printf("WebSocket: dropping %s event, queue full", eventType)
	}
}

// HandleWebSocket upgrades an authenticated request to a websocket
// connection.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = user
	m.mu.Unlock()

	log.Printf("WebSocket connected: user=%s, role=%s", user.Username, user.Role)

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: user=%s", user.Username)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// ClientCount reports the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) send(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

// Ensure interface compliance
var _ ports.EventBroadcaster = (*WSManager)(nil)
