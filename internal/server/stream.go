package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/yaungchi/assistant-go/internal/models"
)

// StreamEvent is one websocket frame on a conversation feed.
type StreamEvent struct {
	Type    string          `json:"type"` // "message"
	Message *models.Message `json:"message"`
}

// Hub fans appended messages out to websocket subscribers, keyed by
// conversation.
type Hub struct {
	log *slog.Logger

	mu     sync.Mutex
	subs   map[string]map[chan StreamEvent]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: map[string]map[chan StreamEvent]struct{}{},
	}
}

// Subscribe registers a feed for a conversation. The returned cancel func
// must be called when the subscriber goes away.
func (h *Hub) Subscribe(conversationID string) (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, 16)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[conversationID] == nil {
		h.subs[conversationID] = map[chan StreamEvent]struct{}{}
	}
	h.subs[conversationID][ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[conversationID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, conversationID)
			}
		}
	}
}

// Publish delivers an appended message to the conversation's subscribers.
// A subscriber that cannot keep up has the event dropped rather than
// blocking the publisher.
func (h *Hub) Publish(conversationID string, msg *models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[conversationID] {
		select {
		case ch <- StreamEvent{Type: "message", Message: msg}:
		default:
			h.log.Debug("stream subscriber lagging, dropping event", "conversation", conversationID)
		}
	}
}

// Close drops all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const streamWriteTimeout = 10 * time.Second

// handleStream upgrades to a websocket and forwards appended messages for
// one conversation until either side goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := s.dir.GetConversation(r.Context(), conversationID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "load conversation failed")
		return
	}
	if conv == nil {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(conversationID)
	defer cancel()

	// Reader goroutine only to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
