package db

import (
	"context"
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/yaungchi/assistant-go/internal/models"
)

// CreateUser inserts a verified user row with the given record id.
// Returns ErrAlreadyExists if the phone number is taken.
func (c *Client) CreateUser(ctx context.Context, id, phoneNumber, name string) (*models.User, error) {
	results, err := query[models.User](ctx, c, `
		CREATE type::record("user", $id) SET
			phone_number = $phone,
			name = $name,
			is_verified = true
	`, map[string]any{"id": id, "phone": phoneNumber, "name": name})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return first(results), nil
}

// GetUser retrieves a user by id. Returns nil if not found.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	results, err := query[models.User](ctx, c, `
		SELECT * FROM type::record("user", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return first(results), nil
}

// GetUserByPhone retrieves a user by phone number. Returns nil if not found.
func (c *Client) GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	results, err := query[models.User](ctx, c, `
		SELECT * FROM user WHERE phone_number = $phone LIMIT 1
	`, map[string]any{"phone": phoneNumber})
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return first(results), nil
}

// TouchLastLogin refreshes a user's last_login_at timestamp.
func (c *Client) TouchLastLogin(ctx context.Context, id string) error {
	_, err := query[any](ctx, c, `
		UPDATE type::record("user", $id) SET last_login_at = time::now()
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// UpdateUserLanguage changes a user's preferred language.
func (c *Client) UpdateUserLanguage(ctx context.Context, id, language string) error {
	_, err := query[any](ctx, c, `
		UPDATE type::record("user", $id) SET language_preference = $lang
	`, map[string]any{"id": id, "lang": language})
	if err != nil {
		return fmt.Errorf("update user language: %w", err)
	}
	return nil
}

// CreateVerificationCode stores a fresh one-time code for a phone number.
func (c *Client) CreateVerificationCode(ctx context.Context, phoneNumber, code string, expiresAt time.Time) error {
	_, err := query[any](ctx, c, `
		CREATE verification_code SET
			phone_number = $phone,
			code = $code,
			expires_at = $expires
	`, map[string]any{"phone": phoneNumber, "code": code, "expires": expiresAt})
	if err != nil {
		return fmt.Errorf("create verification code: %w", err)
	}
	return nil
}

// LatestValidCode returns the newest unused, unexpired code row matching the
// phone number and code, or nil if none.
func (c *Client) LatestValidCode(ctx context.Context, phoneNumber, code string) (*models.VerificationCode, error) {
	results, err := query[models.VerificationCode](ctx, c, `
		SELECT * FROM verification_code
		WHERE phone_number = $phone AND code = $code AND is_used = false AND expires_at > time::now()
		ORDER BY created_at DESC
		LIMIT 1
	`, map[string]any{"phone": phoneNumber, "code": code})
	if err != nil {
		return nil, fmt.Errorf("latest valid code: %w", err)
	}
	return first(results), nil
}

// MarkCodeUsed consumes a verification code so it cannot be replayed.
func (c *Client) MarkCodeUsed(ctx context.Context, id surrealmodels.RecordID) error {
	_, err := query[any](ctx, c, `
		UPDATE $code_id SET is_used = true
	`, map[string]any{"code_id": id})
	if err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}
	return nil
}

// CreateSubscription inserts a subscription row for a user.
func (c *Client) CreateSubscription(
	ctx context.Context,
	userID string,
	tier string,
	expiresAt *time.Time,
	paymentReference *string,
) (*models.Subscription, error) {
	vars := map[string]any{
		"user": surrealmodels.NewRecordID("user", userID),
		"tier": tier,
	}
	if expiresAt != nil {
		vars["expires"] = *expiresAt
	}
	if paymentReference != nil {
		vars["payment_ref"] = *paymentReference
	}

	results, err := query[models.Subscription](ctx, c, `
		CREATE subscription SET
			user = $user,
			tier = $tier,
			expires_at = $expires,
			payment_reference = $payment_ref
	`, vars)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return first(results), nil
}

// CurrentSubscription returns the user's latest active subscription row by
// creation order, or nil when the user has none.
func (c *Client) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	results, err := query[models.Subscription](ctx, c, `
		SELECT * FROM subscription
		WHERE user = $user AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`, map[string]any{"user": surrealmodels.NewRecordID("user", userID)})
	if err != nil {
		return nil, fmt.Errorf("current subscription: %w", err)
	}
	return first(results), nil
}

// DeactivateSubscriptions marks all of a user's subscription rows inactive.
// Used before inserting an upgraded row so only one row stays current.
func (c *Client) DeactivateSubscriptions(ctx context.Context, userID string) error {
	_, err := query[any](ctx, c, `
		UPDATE subscription SET is_active = false WHERE user = $user
	`, map[string]any{"user": surrealmodels.NewRecordID("user", userID)})
	if err != nil {
		return fmt.Errorf("deactivate subscriptions: %w", err)
	}
	return nil
}
