package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaungchi/assistant-go/internal/llm"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

type fakeConvStore struct {
	mu         sync.Mutex
	conv       *models.Conversation
	messages   []models.Message
	historyErr error
	appendErr  error
}

func (f *fakeConvStore) Conversation(_ context.Context, _ string) (*models.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConvStore) AppendUserMessage(_ context.Context, convID, content string, imageURL, audioURL *string) (*models.Message, error) {
	return f.append(convID, models.RoleUser, content)
}

func (f *fakeConvStore) AppendAssistantMessage(_ context.Context, convID, content string) (*models.Message, error) {
	return f.append(convID, models.RoleAssistant, content)
}

func (f *fakeConvStore) append(convID, role, content string) (*models.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := models.Message{
		ID:           surrealmodels.NewRecordID("message", uuid.NewString()),
		Conversation: surrealmodels.NewRecordID("conversation", convID),
		Role:         role,
		Content:      content,
		CreatedAt:    time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeConvStore) History(_ context.Context, _ string, limit int) ([]llm.Turn, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

func (f *fakeConvStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeGate struct {
	mu         sync.Mutex
	limits     quota.Limits
	checkErr   error
	increments int
}

func (f *fakeGate) CheckLimits(_ context.Context, _ string) (quota.Limits, error) {
	return f.limits, f.checkErr
}

func (f *fakeGate) IncrementMessageCount(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments++
	return nil
}

func (f *fakeGate) incrementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.increments
}

func openLimits() quota.Limits {
	return quota.Limits{
		CanSendMessage:    true,
		CanQueryWeather:   true,
		CanQueryMarket:    true,
		RemainingMessages: 20,
	}
}

func testConversation(convID, userID string) *models.Conversation {
	return &models.Conversation{
		ID:    surrealmodels.NewRecordID("conversation", convID),
		User:  surrealmodels.NewRecordID("user", userID),
		Title: models.DefaultConversationTitle,
	}
}

func newService(store ConversationStore, gate Gate, model ChatModel) *Service {
	gen := NewGenerator(model, discardLogger(), nil)
	return NewService(store, gate, gen, nil, discardLogger(), nil)
}

func TestSendAndRespondHappyPath(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{limits: openLimits()}
	model := &fakeModel{reply: "spray neem oil in the evening"}

	svc := newService(store, gate, model)
	result, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "aphids on my beans",
	})
	require.NoError(t, err)

	assert.Equal(t, SourceModel, result.Source)
	assert.Equal(t, "aphids on my beans", result.UserMessage.Content)
	assert.Equal(t, "spray neem oil in the evening", result.AssistantMessage.Content)
	assert.Equal(t, 19, result.Remaining)
	assert.Equal(t, 2, store.messageCount())

	// Increment is detached from the request.
	assert.Eventually(t, func() bool {
		return gate.incrementCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendAndRespondInvalidConversationID(t *testing.T) {
	svc := newService(&fakeConvStore{}, &fakeGate{limits: openLimits()}, nil)

	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: "not-a-uuid",
		Content:        "hi",
	})
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestSendAndRespondUnknownConversation(t *testing.T) {
	svc := newService(&fakeConvStore{}, &fakeGate{limits: openLimits()}, nil)

	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: uuid.NewString(),
		Content:        "hi",
	})
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendAndRespondForeignConversation(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "someone-else")}
	svc := newService(store, &fakeGate{limits: openLimits()}, nil)

	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "hi",
	})
	require.ErrorIs(t, err, ErrConversationNotFound)
	assert.Zero(t, store.messageCount())
}

func TestSendAndRespondDeniedLeavesNoTrace(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{limits: quota.Limits{CanSendMessage: false}}

	svc := newService(store, gate, nil)
	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "hi",
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, store.messageCount())
	assert.Zero(t, gate.incrementCount())
}

func TestSendAndRespondGateFailureDenies(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{checkErr: fmt.Errorf("store unavailable")}

	svc := newService(store, gate, nil)
	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "hi",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, store.messageCount())
}

func TestSendAndRespondModelFailureStillPersistsReply(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{limits: openLimits()}
	model := &fakeModel{err: fmt.Errorf("model timeout")}

	svc := newService(store, gate, model)
	result, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "my tomato has brown spots",
	})
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, result.Source)
	assert.NotEmpty(t, result.AssistantMessage.Content)
	assert.Equal(t, 2, store.messageCount())
}

func TestSendAndRespondTwentiethMessageDenied(t *testing.T) {
	// End-to-end free-tier exhaustion through a real quota tracker: the
	// twentieth send is answered, the twenty-first is denied.
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}

	usage := &countingUsage{}
	tracker := quota.NewTracker(&nilSubs{}, usage, discardLogger(), nil)

	svc := newService(store, tracker, &fakeModel{reply: "ok"})

	for i := 0; i < quota.FreeDailyMessages; i++ {
		_, err := svc.SendAndRespond(context.Background(), SendRequest{
			UserID:         "u1",
			ConversationID: convID,
			Content:        fmt.Sprintf("question %d", i),
		})
		require.NoError(t, err, "message %d should pass the gate", i+1)

		// The increment is async; drain it so the next check sees it.
		require.Eventually(t, func() bool {
			return usage.count() == i+1
		}, 2*time.Second, 5*time.Millisecond)
	}

	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "one too many",
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestSendAndRespondPaidIgnoresUsage(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{limits: quota.Limits{
		CanSendMessage:    true,
		RemainingMessages: quota.UnlimitedMessages,
		IsPaidUser:        true,
	}}

	svc := newService(store, gate, &fakeModel{reply: "ok"})
	result, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        "hi",
	})
	require.NoError(t, err)

	assert.True(t, result.IsPaidUser)
	assert.Equal(t, quota.UnlimitedMessages, result.Remaining)
}

func TestSendAndRespondSchedulesTitler(t *testing.T) {
	convID := uuid.NewString()
	store := &fakeConvStore{conv: testConversation(convID, "u1")}
	gate := &fakeGate{limits: openLimits()}

	titleStore := newFakeTitleStore("how do I treat leaf spot on tomato plants in the rainy season")
	titler := NewTitler(titleStore, discardLogger(), 10*time.Millisecond)
	defer titler.Close()

	gen := NewGenerator(&fakeModel{reply: "ok"}, discardLogger(), nil)
	svc := NewService(store, gate, gen, titler, discardLogger(), nil)

	_, err := svc.SendAndRespond(context.Background(), SendRequest{
		UserID:         "u1",
		ConversationID: convID,
		Content:        titleStore.first.Content,
	})
	require.NoError(t, err)

	waitFired(t, titleStore)
	require.Equal(t, 1, titleStore.renameCount())
	assert.Equal(t, DeriveTitle(titleStore.first.Content), titleStore.renames[0])
}

// nilSubs reports no subscription row, i.e. a free-tier user.
type nilSubs struct{}

func (nilSubs) CurrentSubscription(_ context.Context, _ string) (*models.Subscription, error) {
	return nil, nil
}

// countingUsage is an in-memory usage store for one user-day.
type countingUsage struct {
	mu     sync.Mutex
	record *models.UsageRecord
}

func (c *countingUsage) GetUsage(_ context.Context, _, _ string) (*models.UsageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return nil, nil
	}
	snapshot := *c.record
	return &snapshot, nil
}

func (c *countingUsage) CreateUsage(_ context.Context, _, day string) (*models.UsageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		c.record = &models.UsageRecord{Day: day}
	}
	snapshot := *c.record
	return &snapshot, nil
}

func (c *countingUsage) IncrementUsage(_ context.Context, _, _, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		c.record = &models.UsageRecord{}
	}
	switch field {
	case "message_count":
		c.record.MessageCount++
	case "weather_queries":
		c.record.WeatherQueries++
	case "market_queries":
		c.record.MarketQueries++
	}
	return nil
}

func (c *countingUsage) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return 0
	}
	return c.record.MessageCount
}

var _ Gate = (*quota.Tracker)(nil)
var _ ConversationStore = (*Store)(nil)
var _ TitleStore = (*Store)(nil)
