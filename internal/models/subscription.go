package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// Subscription represents a user's subscription row. At most one row per
// user is current: the latest active one by creation order.
type Subscription struct {
	ID               surrealmodels.RecordID `json:"id"`
	User             surrealmodels.RecordID `json:"user"`
	Tier             string                 `json:"tier"`
	StartedAt        time.Time              `json:"started_at"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
	IsActive         bool                   `json:"is_active"`
	PaymentReference *string                `json:"payment_reference,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// IsPaid reports whether this subscription grants unmetered access.
// An expired paid subscription does not.
func (s *Subscription) IsPaid(now time.Time) bool {
	if s == nil || !s.IsActive || s.Tier != TierPaid {
		return false
	}
	if s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
		return false
	}
	return true
}
