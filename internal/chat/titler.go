package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yaungchi/assistant-go/internal/models"
)

// TitleMaxLength is the longest derived title before truncation.
const TitleMaxLength = 40

// DeriveTitle turns the first user message into a conversation title:
// a 40-character prefix with a trailing ellipsis when truncated.
func DeriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= TitleMaxLength {
		return message
	}
	return string(runes[:TitleMaxLength]) + "..."
}

// TitleStore is the persistence surface the titler needs.
// Satisfied by *Store.
type TitleStore interface {
	FirstUserMessage(ctx context.Context, conversationID string) (*models.Message, error)
	RenameIfDefault(ctx context.Context, conversationID, title string) (bool, error)
}

// Titler renames a conversation from its first user message after a
// quiescence delay. Each Schedule call resets the conversation's timer, so
// the rename fires once the conversation has been idle for the full window.
// Cancel drops a pending rename, used when the user renames manually.
type Titler struct {
	store      TitleStore
	log        *slog.Logger
	quiescence time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewTitler creates an auto-titler with the given quiescence window.
func NewTitler(store TitleStore, log *slog.Logger, quiescence time.Duration) *Titler {
	return &Titler{
		store:      store,
		log:        log,
		quiescence: quiescence,
		pending:    map[string]*time.Timer{},
	}
}

// Schedule queues (or re-queues) a rename for the conversation after the
// quiescence window. Safe to call on every message; only the last call per
// window takes effect.
func (t *Titler) Schedule(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if timer, ok := t.pending[conversationID]; ok {
		timer.Stop()
	}
	t.pending[conversationID] = time.AfterFunc(t.quiescence, func() {
		t.fire(conversationID)
	})
}

// Cancel drops any pending rename for the conversation.
func (t *Titler) Cancel(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.pending[conversationID]; ok {
		timer.Stop()
		delete(t.pending, conversationID)
	}
}

// Close cancels all pending renames. The titler is unusable afterwards.
func (t *Titler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}

func (t *Titler) fire(conversationID string) {
	t.mu.Lock()
	delete(t.pending, conversationID)
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := t.store.FirstUserMessage(ctx, conversationID)
	if err != nil {
		t.log.Error("auto-title: load first message", "conversation", conversationID, "error", err)
		return
	}
	if first == nil {
		return
	}

	renamed, err := t.store.RenameIfDefault(ctx, conversationID, DeriveTitle(first.Content))
	if err != nil {
		t.log.Error("auto-title: rename", "conversation", conversationID, "error", err)
		return
	}
	if renamed {
		t.log.Debug("auto-titled conversation", "conversation", conversationID)
	}
}
