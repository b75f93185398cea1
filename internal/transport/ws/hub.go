package ws

import (
	"encoding/json"
	"examforge/internal/logger"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgSessionEnded MessageType = "session_ended"
	MsgError        MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SessionEndedPayload is sent when a session is finalized by any path
type SessionEndedPayload struct {
	SessionID         string  `json:"sessionId"`
	StandardizedScore float64 `json:"standardizedScore"`
}

// Hub fans messages out to every live connection of a user
type Hub struct {
	conns map[string]map[*Connection]struct{} // userID -> connections
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *outbound
	quit       chan struct{}
	closeOnce  sync.Once
}

// Connection is one WebSocket client. A user may hold several.
type Connection struct {
	UserID string
	Send   chan []byte
	Hub    *Hub
}

type outbound struct {
	userID string
	data   []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 256),
		quit:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for userID, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, userID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.UserID] == nil {
				h.conns[conn.UserID] = make(map[*Connection]struct{})
			}
			h.conns[conn.UserID][conn] = struct{}{}
			h.mu.Unlock()
			logger.Debug("ws: user %s connected", conn.UserID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.UserID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.UserID)
					}
					logger.Debug("ws: user %s disconnected", conn.UserID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns[msg.userID] {
				select {
				case conn.Send <- msg.data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Close stops the hub and closes every connection's send channel.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// ConnectionCount returns how many connections a user has open.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// SendToUser queues a message for all of a user's connections
func (h *Hub) SendToUser(userID string, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("ws: failed to encode %s payload: %v", msgType, err)
		return
	}
	envelope, _ := json.Marshal(&Message{Type: msgType, Payload: data})
	select {
	case h.broadcast <- &outbound{userID: userID, data: envelope}:
	case <-h.quit:
	}
}

// NotifyEnded implements service.Notifier
func (h *Hub) NotifyEnded(userID, sessionID string, standardizedScore float64) {
	h.SendToUser(userID, MsgSessionEnded, SessionEndedPayload{
		SessionID:         sessionID,
		StandardizedScore: standardizedScore,
	})
}
