package db

import (
	"context"
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/yaungchi/assistant-go/internal/models"
)

// CreateConversation inserts a conversation with the default title.
func (c *Client) CreateConversation(ctx context.Context, id, userID, language string) (*models.Conversation, error) {
	results, err := query[models.Conversation](ctx, c, `
		CREATE type::record("conversation", $id) SET
			user = $user,
			language = $lang
	`, map[string]any{
		"id":   id,
		"user": surrealmodels.NewRecordID("user", userID),
		"lang": language,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return first(results), nil
}

// GetConversation retrieves a conversation by id. Returns nil if not found.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	results, err := query[models.Conversation](ctx, c, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return first(results), nil
}

// ListConversations returns a user's conversations, most recently active first.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	results, err := query[models.Conversation](ctx, c, `
		SELECT * FROM conversation WHERE user = $user ORDER BY updated_at DESC
	`, map[string]any{"user": surrealmodels.NewRecordID("user", userID)})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return rows(results), nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := query[any](ctx, c, `
		BEGIN TRANSACTION;
		DELETE message WHERE conversation = type::record("conversation", $id);
		DELETE type::record("conversation", $id);
		COMMIT TRANSACTION;
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// UpdateConversationTitle sets a conversation's title unconditionally.
func (c *Client) UpdateConversationTitle(ctx context.Context, id, title string) error {
	_, err := query[any](ctx, c, `
		UPDATE type::record("conversation", $id) SET title = $title
	`, map[string]any{"id": id, "title": title})
	if err != nil {
		return fmt.Errorf("update conversation title: %w", err)
	}
	return nil
}

// RenameConversationIfDefault sets the title only while it is still the
// system default, so a manual rename is never clobbered. Reports whether
// the rename was applied.
func (c *Client) RenameConversationIfDefault(ctx context.Context, id, title string) (bool, error) {
	results, err := query[models.Conversation](ctx, c, `
		UPDATE type::record("conversation", $id) SET title = $title
		WHERE title = $default
		RETURN AFTER
	`, map[string]any{
		"id":      id,
		"title":   title,
		"default": models.DefaultConversationTitle,
	})
	if err != nil {
		return false, fmt.Errorf("rename conversation: %w", err)
	}
	return first(results) != nil, nil
}

// CreateMessage appends a message to a conversation and refreshes the
// conversation's updated_at in the same transaction.
func (c *Client) CreateMessage(
	ctx context.Context,
	id, conversationID, role, content string,
	imageURL, audioURL *string,
) (*models.Message, error) {
	vars := map[string]any{
		"id":      id,
		"conv":    surrealmodels.NewRecordID("conversation", conversationID),
		"role":    role,
		"content": content,
	}
	if imageURL != nil {
		vars["image_url"] = *imageURL
	}
	if audioURL != nil {
		vars["audio_url"] = *audioURL
	}

	results, err := query[models.Message](ctx, c, `
		BEGIN TRANSACTION;
		LET $msg = (CREATE type::record("message", $id) SET
			conversation = $conv,
			role = $role,
			content = $content,
			image_url = $image_url,
			audio_url = $audio_url);
		UPDATE $conv SET updated_at = time::now();
		RETURN $msg;
		COMMIT TRANSACTION;
	`, vars)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return first(results), nil
}

// ListMessages returns a conversation's messages in ascending creation order,
// the canonical history order.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	results, err := query[models.Message](ctx, c, `
		SELECT * FROM message
		WHERE conversation = $conv
		ORDER BY created_at ASC
	`, map[string]any{"conv": surrealmodels.NewRecordID("conversation", conversationID)})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return rows(results), nil
}

// FirstUserMessage returns the oldest user-role message of a conversation,
// or nil if there is none yet.
func (c *Client) FirstUserMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	results, err := query[models.Message](ctx, c, `
		SELECT * FROM message
		WHERE conversation = $conv AND role = $role
		ORDER BY created_at ASC
		LIMIT 1
	`, map[string]any{
		"conv": surrealmodels.NewRecordID("conversation", conversationID),
		"role": models.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("first user message: %w", err)
	}
	return first(results), nil
}
