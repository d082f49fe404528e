package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yaungchi/assistant-go/internal/llm"
	"github.com/yaungchi/assistant-go/internal/metrics"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

// Pipeline errors. Handlers map these onto HTTP statuses.
var (
	// ErrInvalidID means the conversation id is not a well-formed UUID.
	ErrInvalidID = errors.New("invalid conversation id")

	// ErrConversationNotFound covers both a missing conversation and one
	// owned by a different user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrQuotaExceeded means the free-tier daily message cap is spent.
	ErrQuotaExceeded = errors.New("daily message limit reached")
)

// Gate is the quota surface the pipeline needs. Satisfied by *quota.Tracker.
type Gate interface {
	CheckLimits(ctx context.Context, userID string) (quota.Limits, error)
	IncrementMessageCount(ctx context.Context, userID string) error
}

// ConversationStore is the persistence surface the pipeline needs.
// Satisfied by *Store backed by the database client.
type ConversationStore interface {
	Conversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	AppendUserMessage(ctx context.Context, conversationID, content string, imageURL, audioURL *string) (*models.Message, error)
	AppendAssistantMessage(ctx context.Context, conversationID, content string) (*models.Message, error)
	History(ctx context.Context, conversationID string, limit int) ([]llm.Turn, error)
}

// SendRequest is one user message entering the pipeline.
type SendRequest struct {
	UserID         string
	ConversationID string
	Content        string
	Image          []byte
	ImageURL       *string
	AudioURL       *string
}

// SendResult is the pipeline outcome for a sent message.
type SendResult struct {
	UserMessage      *models.Message
	AssistantMessage *models.Message
	Source           ReplySource
	Remaining        int
	IsPaidUser       bool
}

// Service runs the reply pipeline: gate, persist the user message, generate,
// persist the reply, then count the message and kick the auto-titler.
type Service struct {
	store     ConversationStore
	gate      Gate
	generator *Generator
	titler    *Titler
	log       *slog.Logger
	metrics   *metrics.Collector
}

// NewService wires the pipeline. The titler may be nil to disable
// auto-titling; the metrics collector may be nil.
func NewService(
	store ConversationStore,
	gate Gate,
	generator *Generator,
	titler *Titler,
	log *slog.Logger,
	mc *metrics.Collector,
) *Service {
	return &Service{
		store:     store,
		gate:      gate,
		generator: generator,
		titler:    titler,
		log:       log,
		metrics:   mc,
	}
}

// SendAndRespond runs one message through the full pipeline. The quota gate
// runs before anything is persisted; a denied message leaves no trace. Once
// the user message is stored, generation failures still yield a fallback
// reply, and the usage increment is fire-and-forget: its failure is logged
// but never unwinds the persisted messages.
func (s *Service) SendAndRespond(ctx context.Context, req SendRequest) (*SendResult, error) {
	start := time.Now()

	if _, err := uuid.Parse(req.ConversationID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, req.ConversationID)
	}

	conv, err := s.store.Conversation(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if owner, err := models.RecordIDString(conv.User); err != nil || owner != req.UserID {
		return nil, ErrConversationNotFound
	}

	limits, err := s.gate.CheckLimits(ctx, req.UserID)
	if err != nil {
		// Deny on gate failure rather than letting traffic through unmetered.
		return nil, fmt.Errorf("quota check: %w", err)
	}
	if !limits.CanSendMessage {
		return nil, ErrQuotaExceeded
	}

	// History is read before the append so the new message enters the model
	// call once, as the prompt, not duplicated in context.
	history, err := s.store.History(ctx, req.ConversationID, HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	userMsg, err := s.store.AppendUserMessage(ctx, req.ConversationID, req.Content, req.ImageURL, req.AudioURL)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	reply := s.generator.Generate(ctx, GenerateRequest{
		Message: req.Content,
		Image:   req.Image,
		History: history,
		Paid:    limits.IsPaidUser,
	})

	assistantMsg, err := s.store.AppendAssistantMessage(ctx, req.ConversationID, reply.Text)
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	go s.countMessage(req.UserID)

	if s.titler != nil {
		s.titler.Schedule(req.ConversationID)
	}

	remaining := limits.RemainingMessages
	if !limits.IsPaidUser && remaining > 0 {
		remaining--
	}

	s.metrics.RecordTiming(metrics.OpPipeline, time.Since(start))
	return &SendResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Source:           reply.Source,
		Remaining:        remaining,
		IsPaidUser:       limits.IsPaidUser,
	}, nil
}

// countMessage bumps the daily counter detached from the request that
// triggered it.
func (s *Service) countMessage(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.gate.IncrementMessageCount(ctx, userID); err != nil {
		s.log.Error("message count increment failed", "user", userID, "error", err)
	}
}
