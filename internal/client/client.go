// Package client is a typed HTTP client for the assistant API, used by the
// CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yaungchi/assistant-go/internal/metrics"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

// DefaultBaseURL is used when no server address is configured.
const DefaultBaseURL = "http://localhost:8686"

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsQuotaDenied reports whether the error is a daily-limit denial.
func IsQuotaDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// Client talks to the assistant API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, falling back to
// DefaultBaseURL when empty.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// RequestCode asks the server to issue a login code for a phone number.
func (c *Client) RequestCode(ctx context.Context, phoneNumber string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/code", map[string]string{
		"phone_number": phoneNumber,
	}, &resp)
	return resp.Code, err
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, phoneNumber, name, code string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"phone_number": phoneNumber,
		"name":         name,
		"code":         code,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login redeems a code for the account it belongs to.
func (c *Client) Login(ctx context.Context, phoneNumber, code string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"phone_number": phoneNumber,
		"code":         code,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Limits fetches the user's current quota state.
func (c *Client) Limits(ctx context.Context, userID string) (*quota.Limits, error) {
	var limits quota.Limits
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/limits", nil, &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}

// Subscription fetches the user's current subscription.
func (c *Client) Subscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/subscription", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upgrade moves the user to the paid tier.
func (c *Client) Upgrade(ctx context.Context, userID, paymentReference string) (*models.Subscription, error) {
	var sub models.Subscription
	err := c.do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/subscription/upgrade", map[string]string{
		"payment_reference": paymentReference,
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateLanguage changes the user's preferred language.
func (c *Client) UpdateLanguage(ctx context.Context, userID, language string) error {
	return c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(userID)+"/language", map[string]string{
		"language": language,
	}, nil)
}

// ListConversations fetches the user's conversations, most recent first.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation starts a new conversation.
func (c *Client) CreateConversation(ctx context.Context, userID, language string) (*models.Conversation, error) {
	var conv models.Conversation
	err := c.do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/conversations", map[string]string{
		"language": language,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(conversationID), nil, nil)
}

// RenameConversation sets a manual title.
func (c *Client) RenameConversation(ctx context.Context, conversationID, title string) error {
	return c.do(ctx, http.MethodPut, "/api/conversations/"+url.PathEscape(conversationID)+"/title", map[string]string{
		"title": title,
	}, nil)
}

// ListMessages fetches a conversation's messages in chronological order.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendResult is the server's reply to a sent message.
type SendResult struct {
	UserMessage      models.Message `json:"user_message"`
	AssistantMessage models.Message `json:"assistant_message"`
	Source           string         `json:"source"`
	Remaining        int            `json:"remaining_messages"`
	IsPaidUser       bool           `json:"is_paid_user"`
}

// SendMessage runs one message through the reply pipeline.
func (c *Client) SendMessage(ctx context.Context, conversationID, userID, content string) (*SendResult, error) {
	var result SendResult
	err := c.do(ctx, http.MethodPost, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", map[string]string{
		"user_id": userID,
		"content": content,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Weather fetches the weather panel for a location.
func (c *Client) Weather(ctx context.Context, userID, location string) (*models.WeatherData, error) {
	query := url.Values{"user_id": {userID}}
	if location != "" {
		query.Set("location", location)
	}
	var data models.WeatherData
	if err := c.do(ctx, http.MethodGet, "/api/weather?"+query.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Market fetches the market price panel.
func (c *Client) Market(ctx context.Context, userID, location string) ([]models.MarketPrice, error) {
	query := url.Values{"user_id": {userID}}
	if location != "" {
		query.Set("location", location)
	}
	var prices []models.MarketPrice
	if err := c.do(ctx, http.MethodGet, "/api/market?"+query.Encode(), nil, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// Stats fetches the server metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
