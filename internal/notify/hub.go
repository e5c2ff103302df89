package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Hub tracks live websocket sessions per user and fans pushes out to
// them. A user may hold several sessions (multiple tabs); a push goes
// to all of them. Implements Notifier.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
	upgrader websocket.Upgrader
}

type session struct {
	conn *websocket.Conn
	send chan Notification
}

// NewHub creates an empty hub. Origin checking is left to the fronting
// proxy, same as the rest of the API surface.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Reachable reports whether the user has at least one live session.
func (h *Hub) Reachable(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// Push queues the notification on every live session of the user.
// Sessions with a full send buffer are dropped rather than blocked on.
func (h *Hub) Push(userID string, n Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions[userID] {
		select {
		case s.send <- n:
		default:
			log.Warn().Str("user_id", userID).Msg("slow websocket session, dropping push")
		}
	}
	return nil
}

// Serve upgrades the request and pumps notifications until the client
// disconnects. The caller has already authenticated userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	s := &session{conn: conn, send: make(chan Notification, 8)}
	h.attach(userID, s)
	log.Debug().Str("user_id", userID).Msg("websocket session opened")

	go h.writePump(userID, s)
	h.readPump(userID, s)
}

func (h *Hub) attach(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
}

func (h *Hub) detach(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[userID]; ok {
		if _, ok := set[s]; ok {
			delete(set, s)
			close(s.send)
			if len(set) == 0 {
				delete(h.sessions, userID)
			}
		}
	}
}

// readPump discards client frames but keeps the read side alive so
// pong handling and close detection work.
func (h *Hub) readPump(userID string, s *session) {
	defer func() {
		h.detach(userID, s)
		s.conn.Close()
		log.Debug().Str("user_id", userID).Msg("websocket session closed")
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(userID string, s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case n, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				log.Warn().Err(err).Msg("notification encode failed")
				continue
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
