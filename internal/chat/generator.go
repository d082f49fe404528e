package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/yaungchi/assistant-go/internal/fallback"
	"github.com/yaungchi/assistant-go/internal/llm"
	"github.com/yaungchi/assistant-go/internal/metrics"
)

// Generation parameters.
const (
	// HistoryWindow is the number of prior turns passed as model context.
	HistoryWindow = 10

	// Token caps by tier.
	MaxTokensFree = 1024
	MaxTokensPaid = 2048

	defaultTemperature = 0.7
)

const systemPrompt = `You are Yaung Chi, a helpful agriculture assistant for farmers. ` +
	`You advise on crop diseases, pests, fertilizers, irrigation, weather and market prices. ` +
	`Answer in the language the farmer writes in. Be practical and concise; ` +
	`prefer treatments and materials a smallholder farmer can actually obtain.`

// ReplySource says where a reply's text came from.
type ReplySource string

const (
	// SourceModel marks text produced by the configured language model.
	SourceModel ReplySource = "model"
	// SourceFallback marks canned advisory text from the rule-based responder.
	SourceFallback ReplySource = "fallback"
)

// Reply is a generated assistant response.
type Reply struct {
	Text   string
	Source ReplySource
}

// ChatModel is the generative backend. Satisfied by *llm.Model.
type ChatModel interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// GenerateRequest carries everything needed to produce one reply.
type GenerateRequest struct {
	Message string
	Image   []byte
	History []llm.Turn
	Paid    bool
}

// Generator produces replies from a model when one is configured and falls
// back to deterministic canned advisories otherwise. A model failure is
// logged but never surfaced: the user always gets a reply.
type Generator struct {
	model   ChatModel // nil when no provider is configured
	log     *slog.Logger
	metrics *metrics.Collector
}

// NewGenerator creates a reply generator. Model may be nil for fallback-only
// operation; the metrics collector may be nil.
func NewGenerator(model ChatModel, log *slog.Logger, mc *metrics.Collector) *Generator {
	return &Generator{model: model, log: log, metrics: mc}
}

// Generate produces a reply. History longer than the window is truncated to
// the most recent turns before the model call.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) Reply {
	if g.model != nil {
		history := req.History
		if len(history) > HistoryWindow {
			history = history[len(history)-HistoryWindow:]
		}

		maxTokens := MaxTokensFree
		if req.Paid {
			maxTokens = MaxTokensPaid
		}

		text, err := g.model.Chat(ctx, llm.ChatRequest{
			System:      systemPrompt,
			History:     history,
			Message:     req.Message,
			Image:       req.Image,
			MaxTokens:   maxTokens,
			Temperature: defaultTemperature,
		})
		if err == nil {
			return Reply{Text: text, Source: SourceModel}
		}
		g.log.Warn("model generation failed, using fallback", "error", err)
	}

	start := time.Now()
	text := fallback.Respond(req.Message, fallback.Options{
		HasImage: len(req.Image) > 0,
		Paid:     req.Paid,
	})
	g.metrics.RecordTiming(metrics.OpFallback, time.Since(start))

	return Reply{Text: text, Source: SourceFallback}
}
