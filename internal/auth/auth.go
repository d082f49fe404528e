// Package auth handles phone-number registration, one-time-code login and
// subscription management.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/yaungchi/assistant-go/internal/db"
	"github.com/yaungchi/assistant-go/internal/models"
)

// CodeTTL is how long a verification code stays redeemable.
const CodeTTL = 10 * time.Minute

// PaidSubscriptionTerm is the validity window of one paid term.
const PaidSubscriptionTerm = 30 * 24 * time.Hour

var (
	// ErrPhoneTaken means the phone number already has an account.
	ErrPhoneTaken = errors.New("phone number already registered")

	// ErrInvalidCode means the code is wrong, expired or already used.
	ErrInvalidCode = errors.New("invalid or expired verification code")

	// ErrUserNotFound means no account exists for the phone number.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the persistence surface auth needs. Satisfied by *db.Client.
type UserStore interface {
	CreateUser(ctx context.Context, id, phoneNumber, name string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	UpdateUserLanguage(ctx context.Context, id, language string) error
	CreateVerificationCode(ctx context.Context, phoneNumber, code string, expiresAt time.Time) error
	LatestValidCode(ctx context.Context, phoneNumber, code string) (*models.VerificationCode, error)
	MarkCodeUsed(ctx context.Context, id surrealmodels.RecordID) error
	CreateSubscription(ctx context.Context, userID, tier string, expiresAt *time.Time, paymentReference *string) (*models.Subscription, error)
	CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	DeactivateSubscriptions(ctx context.Context, userID string) error
}

// Service implements registration, login and subscription flows.
type Service struct {
	store UserStore
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates the auth service.
func NewService(store UserStore, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// RequestCode issues a one-time verification code for a phone number.
// Delivery is out of scope here; the code is returned to the caller and
// handed to the SMS gateway at the API boundary.
func (s *Service) RequestCode(ctx context.Context, phoneNumber string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("request code: %w", err)
	}

	expiresAt := s.now().Add(CodeTTL)
	if err := s.store.CreateVerificationCode(ctx, phoneNumber, code, expiresAt); err != nil {
		return "", fmt.Errorf("request code: %w", err)
	}

	s.log.Info("verification code issued", "phone", phoneNumber, "expires_at", expiresAt)
	return code, nil
}

// verifyCode redeems a code, consuming it on success.
func (s *Service) verifyCode(ctx context.Context, phoneNumber, code string) error {
	row, err := s.store.LatestValidCode(ctx, phoneNumber, code)
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if row == nil {
		return ErrInvalidCode
	}
	if err := s.store.MarkCodeUsed(ctx, row.ID); err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	return nil
}

// Register verifies the code, creates the account and starts an implicit
// free subscription.
func (s *Service) Register(ctx context.Context, phoneNumber, name, code string) (*models.User, error) {
	existing, err := s.store.GetUserByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	if err := s.verifyCode(ctx, phoneNumber, code); err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, uuid.NewString(), phoneNumber, name)
	if err != nil {
		if db.IsAlreadyExists(err) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("register: no user row returned")
	}

	userID := models.MustRecordIDString(user.ID)
	if _, err := s.store.CreateSubscription(ctx, userID, models.TierFree, nil, nil); err != nil {
		return nil, fmt.Errorf("register: create free subscription: %w", err)
	}

	s.log.Info("user registered", "user", userID)
	return user, nil
}

// Login verifies the code and returns the account, refreshing its last
// login timestamp.
func (s *Service) Login(ctx context.Context, phoneNumber, code string) (*models.User, error) {
	user, err := s.store.GetUserByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.verifyCode(ctx, phoneNumber, code); err != nil {
		return nil, err
	}

	userID := models.MustRecordIDString(user.ID)
	if err := s.store.TouchLastLogin(ctx, userID); err != nil {
		s.log.Warn("touch last login failed", "user", userID, "error", err)
	}
	return user, nil
}

// UpdateLanguage changes a user's preferred language.
func (s *Service) UpdateLanguage(ctx context.Context, userID, language string) error {
	if err := s.store.UpdateUserLanguage(ctx, userID, language); err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	return nil
}

// CurrentSubscription returns the user's active subscription row, nil when
// the user has only the implicit free tier left.
func (s *Service) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.store.CurrentSubscription(ctx, userID)
}

// Upgrade moves a user to the paid tier for one term, retiring any prior
// subscription rows so a single row stays current.
func (s *Service) Upgrade(ctx context.Context, userID, paymentReference string) (*models.Subscription, error) {
	if err := s.store.DeactivateSubscriptions(ctx, userID); err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	expiresAt := s.now().Add(PaidSubscriptionTerm)
	sub, err := s.store.CreateSubscription(ctx, userID, models.TierPaid, &expiresAt, &paymentReference)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	s.log.Info("subscription upgraded", "user", userID, "expires_at", expiresAt)
	return sub, nil
}

// generateCode produces a six digit numeric one-time code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
