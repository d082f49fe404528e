package db

import (
	"context"
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/yaungchi/assistant-go/internal/models"
)

// Usage counter fields. Only these names may be incremented.
const (
	UsageFieldMessages = "message_count"
	UsageFieldWeather  = "weather_queries"
	UsageFieldMarket   = "market_queries"
)

func validUsageField(field string) bool {
	switch field {
	case UsageFieldMessages, UsageFieldWeather, UsageFieldMarket:
		return true
	}
	return false
}

// GetUsage retrieves the usage row for a user and day. Returns nil if the
// user has not acted yet that day.
func (c *Client) GetUsage(ctx context.Context, userID, day string) (*models.UsageRecord, error) {
	results, err := query[models.UsageRecord](ctx, c, `
		SELECT * FROM usage WHERE user = $user AND day = $day LIMIT 1
	`, map[string]any{"user": surrealmodels.NewRecordID("user", userID), "day": day})
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}
	return first(results), nil
}

// CreateUsage inserts a zeroed usage row for a user and day.
// Returns ErrAlreadyExists if the row was created concurrently.
func (c *Client) CreateUsage(ctx context.Context, userID, day string) (*models.UsageRecord, error) {
	results, err := query[models.UsageRecord](ctx, c, `
		CREATE usage SET user = $user, day = $day
	`, map[string]any{"user": surrealmodels.NewRecordID("user", userID), "day": day})
	if err != nil {
		return nil, fmt.Errorf("create usage: %w", err)
	}
	return first(results), nil
}

// IncrementUsage bumps one counter on the user's row for the given day,
// creating the row with count 1 when missing. The create-or-increment runs
// as a single transaction so concurrent increments cannot under-count; a
// conflicting write surfaces as ErrTransactionConflict.
func (c *Client) IncrementUsage(ctx context.Context, userID, day, field string) error {
	if !validUsageField(field) {
		return fmt.Errorf("increment usage: unknown field %q", field)
	}

	// Field name is validated above; everything else is parameterised.
	sql := fmt.Sprintf(`
		BEGIN TRANSACTION;
		LET $existing = (SELECT id FROM usage WHERE user = $user AND day = $day);
		IF array::len($existing) == 0 {
			CREATE usage SET user = $user, day = $day, %s = 1;
		} ELSE {
			UPDATE usage SET %s += 1, updated_at = time::now()
			WHERE user = $user AND day = $day;
		};
		COMMIT TRANSACTION;
	`, field, field)

	_, err := query[any](ctx, c, sql, map[string]any{
		"user": surrealmodels.NewRecordID("user", userID),
		"day":  day,
	})
	if err != nil {
		return fmt.Errorf("increment usage %s: %w", field, err)
	}
	return nil
}
