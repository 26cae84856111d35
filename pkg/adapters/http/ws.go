package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
	wsReadLimit    = 64 << 10
)

// StreamManager fans replies out to every websocket watching a session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- []byte]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- []byte]struct{}),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- []byte]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast delivers msg to every subscriber of sessionID. Slow clients drop
// messages rather than block the sender.
func (sm *StreamManager) Broadcast(sessionID string, msg []byte) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	delivered := 0
	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (s *Server) publish(reply *domain.Reply) {
	raw, err := json.Marshal(reply)
	if err != nil {
		return
	}
	s.streams.Broadcast(reply.SessionID, raw)
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowed(origin)
		},
	}
}

// ServeWS handles GET /api/v1/chat/{id}/ws. Clients send MessageRequest
// frames and receive every Reply for the session, including replies to
// messages posted over plain HTTP.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), id); err != nil {
		s.fail(w, r, "websocket", err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	updates, unsubscribe := s.streams.Subscribe(id)
	defer unsubscribe()

	// gorilla connections allow one concurrent writer, so errors for this
	// client go through the writer goroutine too.
	direct := make(chan []byte, 4)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()

		write := func(kind int, data []byte) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteMessage(kind, data) == nil
		}
		for {
			select {
			case <-done:
				return
			case msg, ok := <-updates:
				if !ok || !write(websocket.TextMessage, msg) {
					return
				}
			case msg := <-direct:
				if !write(websocket.TextMessage, msg) {
					return
				}
			case <-ticker.C:
				if !write(websocket.PingMessage, nil) {
					return
				}
			}
		}
	}()

	s.logger.Info("websocket connected", "session_id", id)
	for {
		var in MessageRequest
		if err := conn.ReadJSON(&in); err != nil {
			break
		}

		reply, err := s.Service.Submit(r.Context(), id, in.Message)
		if err != nil {
			raw, _ := json.Marshal(errorResponse{Error: err.Error()})
			select {
			case direct <- raw:
			case <-writerDone:
			}
			continue
		}
		s.publish(reply)
	}

	close(done)
	<-writerDone
	s.logger.Info("websocket disconnected", "session_id", id)
}
