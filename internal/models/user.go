package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User represents a registered farmer account.
type User struct {
	ID                 surrealmodels.RecordID `json:"id"`
	PhoneNumber        string                 `json:"phone_number"`
	Name               string                 `json:"name"`
	IsVerified         bool                   `json:"is_verified"`
	LanguagePreference string                 `json:"language_preference"`
	CreatedAt          time.Time              `json:"created_at"`
	LastLoginAt        time.Time              `json:"last_login_at"`
}

// VerificationCode is a one-time phone verification code.
// Delivery happens over an SMS side channel outside this system.
type VerificationCode struct {
	ID          surrealmodels.RecordID `json:"id"`
	PhoneNumber string                 `json:"phone_number"`
	Code        string                 `json:"code"`
	IsUsed      bool                   `json:"is_used"`
	ExpiresAt   time.Time              `json:"expires_at"`
	CreatedAt   time.Time              `json:"created_at"`
}
