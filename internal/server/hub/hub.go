// Package hub pushes document change notifications to connected clients
// over WebSocket. Rooms are keyed by user id, so every session a user has
// open hears about changes made in any other one.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inkpad/internal/logging"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event is one change notification.
type Event struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
}

// Hub fans change events out to the owner's connected sessions.
type Hub struct {
	Broadcast  chan Event
	Register   chan *Session
	Unregister chan *Session

	mu     sync.Mutex
	rooms  map[string]map[*Session]bool
	done   chan struct{}
	logger logging.Logger
}

// Session is one connected websocket client.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

func New(logger logging.Logger) *Hub {
	return &Hub{
		Broadcast:  make(chan Event),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		rooms:      make(map[string]map[*Session]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case s := <-h.Register:
			h.mu.Lock()
			if h.rooms[s.userID] == nil {
				h.rooms[s.userID] = make(map[*Session]bool)
			}
			h.rooms[s.userID][s] = true
			h.mu.Unlock()

		case s := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.rooms[s.userID][s]; ok {
				delete(h.rooms[s.userID], s)
				close(s.send)
				if len(h.rooms[s.userID]) == 0 {
					delete(h.rooms, s.userID)
				}
			}
			h.mu.Unlock()

		case ev := <-h.Broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error(context.Background(), "error marshalling event", "error", err)
				continue
			}

			// Copy recipients under the lock, write outside it.
			h.mu.Lock()
			sessions := make([]*Session, 0, len(h.rooms[ev.UserID]))
			for s := range h.rooms[ev.UserID] {
				sessions = append(sessions, s)
			}
			h.mu.Unlock()

			for _, s := range sessions {
				select {
				case s.send <- payload:
				default:
					// Lagging client; drop it rather than block the hub.
					h.logger.Warn(context.Background(), "session send buffer full, dropping", "user_id", s.userID)
					go func(s *Session) { h.Unregister <- s }(s)
				}
			}
		}
	}
}

// Stop shuts the hub down and closes every connected session.
func (h *Hub) Stop() {
	close(h.done)
}

// Notify is a convenience wrapper around the Broadcast channel.
func (h *Hub) Notify(eventType, documentID, userID string) {
	h.Broadcast <- Event{Type: eventType, DocumentID: documentID, UserID: userID}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sessions := range h.rooms {
		for s := range sessions {
			close(s.send)
			s.conn.Close()
		}
	}
	h.rooms = make(map[string]map[*Session]bool)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the protocol is server push only. It
// exists to notice closed connections and answer pings.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
