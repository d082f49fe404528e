//go:build integration

// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yaungchi/assistant-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// newTestUser creates a user with a unique phone number.
func newTestUser(t *testing.T) (*models.User, string) {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	phone := "+95" + id[:10]
	user, err := testDB.CreateUser(ctx, id, phone, "Test Farmer")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("CreateUser returned nil")
	}
	return user, id
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	created, id := newTestUser(t)

	if created.Name != "Test Farmer" {
		t.Errorf("Expected name 'Test Farmer', got %q", created.Name)
	}
	if !created.IsVerified {
		t.Error("Expected created user to be verified")
	}

	user, err := testDB.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("GetUser returned nil")
	}
	if user.PhoneNumber != created.PhoneNumber {
		t.Errorf("Expected phone %q, got %q", created.PhoneNumber, user.PhoneNumber)
	}

	byPhone, err := testDB.GetUserByPhone(ctx, created.PhoneNumber)
	if err != nil {
		t.Fatalf("GetUserByPhone failed: %v", err)
	}
	if byPhone == nil {
		t.Fatal("GetUserByPhone returned nil")
	}
}

func TestDuplicatePhoneRejected(t *testing.T) {
	ctx := context.Background()
	created, _ := newTestUser(t)

	_, err := testDB.CreateUser(ctx, uuid.NewString(), created.PhoneNumber, "Second")
	if !IsAlreadyExists(err) {
		t.Fatalf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestUsageIncrementCreatesRow(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)
	day := models.UsageDay(time.Now())

	if err := testDB.IncrementUsage(ctx, userID, day, UsageFieldMessages); err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}

	record, err := testDB.GetUsage(ctx, userID, day)
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if record == nil {
		t.Fatal("GetUsage returned nil after increment")
	}
	if record.MessageCount != 1 {
		t.Errorf("Expected message_count 1, got %d", record.MessageCount)
	}
}

func TestUsageIncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)
	day := models.UsageDay(time.Now())

	// Concurrent increments must not under-count. Transaction conflicts
	// are retried; only genuinely lost updates fail the test.
	const workers = 10
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := testDB.IncrementUsage(ctx, userID, day, UsageFieldWeather)
				if err == nil {
					return
				}
				if IsTransactionConflict(err) {
					time.Sleep(10 * time.Millisecond)
					continue
				}
				t.Errorf("IncrementUsage failed: %v", err)
				return
			}
		}()
	}
	wg.Wait()

	record, err := testDB.GetUsage(ctx, userID, day)
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if record == nil {
		t.Fatal("GetUsage returned nil")
	}
	if record.WeatherQueries != workers {
		t.Errorf("Expected weather_queries %d, got %d", workers, record.WeatherQueries)
	}
}

func TestConversationMessageOrdering(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)

	convID := uuid.NewString()
	conv, err := testDB.CreateConversation(ctx, convID, userID, "en")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if conv.Title != models.DefaultConversationTitle {
		t.Errorf("Expected default title, got %q", conv.Title)
	}

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err := testDB.CreateMessage(ctx, uuid.NewString(), convID, models.RoleUser, content, nil, nil)
		if err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
		// created_at granularity
		time.Sleep(5 * time.Millisecond)
	}

	messages, err := testDB.ListMessages(ctx, convID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("Expected %d messages, got %d", len(contents), len(messages))
	}
	for i, content := range contents {
		if messages[i].Content != content {
			t.Errorf("Position %d: expected %q, got %q", i, content, messages[i].Content)
		}
	}

	first, err := testDB.FirstUserMessage(ctx, convID)
	if err != nil {
		t.Fatalf("FirstUserMessage failed: %v", err)
	}
	if first == nil || first.Content != "first" {
		t.Errorf("Expected first message 'first', got %+v", first)
	}
}

func TestMessageAppendTouchesConversation(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)

	convID := uuid.NewString()
	created, err := testDB.CreateConversation(ctx, convID, userID, "en")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := testDB.CreateMessage(ctx, uuid.NewString(), convID, models.RoleUser, "hello", nil, nil); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	updated, err := testDB.GetConversation(ctx, convID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("Expected updated_at to advance: created %v, updated %v",
			created.UpdatedAt, updated.UpdatedAt)
	}
}

func TestRenameConversationIfDefault(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)

	convID := uuid.NewString()
	if _, err := testDB.CreateConversation(ctx, convID, userID, "en"); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	renamed, err := testDB.RenameConversationIfDefault(ctx, convID, "Tomato diseases")
	if err != nil {
		t.Fatalf("RenameConversationIfDefault failed: %v", err)
	}
	if !renamed {
		t.Fatal("Expected rename to apply on default title")
	}

	// A second derived rename must not clobber the applied title.
	renamed, err = testDB.RenameConversationIfDefault(ctx, convID, "Something else")
	if err != nil {
		t.Fatalf("RenameConversationIfDefault failed: %v", err)
	}
	if renamed {
		t.Error("Expected rename to be skipped on non-default title")
	}

	conv, err := testDB.GetConversation(ctx, convID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if conv.Title != "Tomato diseases" {
		t.Errorf("Expected title 'Tomato diseases', got %q", conv.Title)
	}
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)

	convID := uuid.NewString()
	if _, err := testDB.CreateConversation(ctx, convID, userID, "en"); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if _, err := testDB.CreateMessage(ctx, uuid.NewString(), convID, models.RoleUser, "hello", nil, nil); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if err := testDB.DeleteConversation(ctx, convID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	conv, err := testDB.GetConversation(ctx, convID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if conv != nil {
		t.Error("Expected conversation to be gone")
	}

	messages, err := testDB.ListMessages(ctx, convID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(messages))
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	_, userID := newTestUser(t)

	if _, err := testDB.CreateSubscription(ctx, userID, models.TierFree, nil, nil); err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}

	current, err := testDB.CurrentSubscription(ctx, userID)
	if err != nil {
		t.Fatalf("CurrentSubscription failed: %v", err)
	}
	if current == nil || current.Tier != models.TierFree {
		t.Fatalf("Expected free subscription, got %+v", current)
	}

	if err := testDB.DeactivateSubscriptions(ctx, userID); err != nil {
		t.Fatalf("DeactivateSubscriptions failed: %v", err)
	}
	expires := time.Now().Add(30 * 24 * time.Hour)
	ref := "pay-ref-1"
	if _, err := testDB.CreateSubscription(ctx, userID, models.TierPaid, &expires, &ref); err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}

	current, err = testDB.CurrentSubscription(ctx, userID)
	if err != nil {
		t.Fatalf("CurrentSubscription failed: %v", err)
	}
	if current == nil || current.Tier != models.TierPaid {
		t.Fatalf("Expected paid subscription, got %+v", current)
	}
	if !current.IsPaid(time.Now()) {
		t.Error("Expected IsPaid to be true")
	}
}

func TestVerificationCodeLifecycle(t *testing.T) {
	ctx := context.Background()
	phone := "+95" + uuid.NewString()[:10]

	if err := testDB.CreateVerificationCode(ctx, phone, "123456", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("CreateVerificationCode failed: %v", err)
	}

	code, err := testDB.LatestValidCode(ctx, phone, "123456")
	if err != nil {
		t.Fatalf("LatestValidCode failed: %v", err)
	}
	if code == nil {
		t.Fatal("Expected code row")
	}

	if err := testDB.MarkCodeUsed(ctx, code.ID); err != nil {
		t.Fatalf("MarkCodeUsed failed: %v", err)
	}

	code, err = testDB.LatestValidCode(ctx, phone, "123456")
	if err != nil {
		t.Fatalf("LatestValidCode failed: %v", err)
	}
	if code != nil {
		t.Error("Expected used code to be invalid")
	}
}

func TestWeatherCacheExpiry(t *testing.T) {
	ctx := context.Background()

	stored, err := testDB.InsertWeather(ctx, models.WeatherData{
		Location:    "TestTown",
		Temperature: 30,
		Condition:   "Sunny",
		Humidity:    60,
		WindSpeed:   8,
		ValidUntil:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("InsertWeather failed: %v", err)
	}
	if stored == nil {
		t.Fatal("InsertWeather returned nil")
	}

	cached, err := testDB.ValidWeather(ctx, "TestTown")
	if err != nil {
		t.Fatalf("ValidWeather failed: %v", err)
	}
	if cached == nil {
		t.Fatal("Expected cache hit")
	}

	// Expired rows are not served.
	if _, err := testDB.InsertWeather(ctx, models.WeatherData{
		Location:   "StaleTown",
		ValidUntil: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("InsertWeather failed: %v", err)
	}
	cached, err = testDB.ValidWeather(ctx, "StaleTown")
	if err != nil {
		t.Fatalf("ValidWeather failed: %v", err)
	}
	if cached != nil {
		t.Error("Expected no hit for expired row")
	}
}
