// Package chat implements the assistant reply pipeline: quota gating,
// message persistence, model-or-fallback generation and conversation
// auto-titling.
package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yaungchi/assistant-go/internal/db"
	"github.com/yaungchi/assistant-go/internal/llm"
	"github.com/yaungchi/assistant-go/internal/models"
)

// Store is the conversation persistence surface the pipeline needs.
type Store struct {
	db *db.Client
}

// NewStore wraps the database client for conversation access.
func NewStore(client *db.Client) *Store {
	return &Store{db: client}
}

// Conversation loads a conversation row, nil when absent.
func (s *Store) Conversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return s.db.GetConversation(ctx, conversationID)
}

// AppendUserMessage persists an incoming user message and refreshes the
// conversation's recency timestamp.
func (s *Store) AppendUserMessage(ctx context.Context, conversationID, content string, imageURL, audioURL *string) (*models.Message, error) {
	msg, err := s.db.CreateMessage(ctx, uuid.NewString(), conversationID, models.RoleUser, content, imageURL, audioURL)
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("append user message: no row returned")
	}
	return msg, nil
}

// AppendAssistantMessage persists a generated reply.
func (s *Store) AppendAssistantMessage(ctx context.Context, conversationID, content string) (*models.Message, error) {
	msg, err := s.db.CreateMessage(ctx, uuid.NewString(), conversationID, models.RoleAssistant, content, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("append assistant message: no row returned")
	}
	return msg, nil
}

// History returns up to limit of the most recent turns in chronological
// order, ready to pass as model context.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]llm.Turn, error) {
	messages, err := s.db.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// RenameIfDefault applies a derived title only while the conversation still
// carries the creation default.
func (s *Store) RenameIfDefault(ctx context.Context, conversationID, title string) (bool, error) {
	return s.db.RenameConversationIfDefault(ctx, conversationID, title)
}

// FirstUserMessage returns the oldest user message, the auto-titler's input.
func (s *Store) FirstUserMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	return s.db.FirstUserMessage(ctx, conversationID)
}
