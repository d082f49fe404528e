package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// DefaultConversationTitle is the title given to a conversation at creation,
// before the auto-titler derives one from the first user message.
const DefaultConversationTitle = "New Conversation"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation represents a persistent chat session owned by a user.
// UpdatedAt is refreshed whenever a message is appended so conversations
// can be listed by recency.
type Conversation struct {
	ID        surrealmodels.RecordID `json:"id"`
	User      surrealmodels.RecordID `json:"user"`
	Title     string                 `json:"title"`
	Language  string                 `json:"language"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Message is a single chat message within a conversation. Messages are
// append-only and totally ordered by creation time.
type Message struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
	ImageURL     *string                `json:"image_url,omitempty"`
	AudioURL     *string                `json:"audio_url,omitempty"`
	Metadata     map[string]any         `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
