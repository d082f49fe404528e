package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UsageRecord holds per-user daily counters. One row per user per calendar
// day; counters never decrease within a day, and a new day simply gets a
// fresh zeroed row.
type UsageRecord struct {
	ID             surrealmodels.RecordID `json:"id"`
	User           surrealmodels.RecordID `json:"user"`
	Day            string                 `json:"day"` // "2006-01-02", UTC
	MessageCount   int                    `json:"message_count"`
	WeatherQueries int                    `json:"weather_queries"`
	MarketQueries  int                    `json:"market_queries"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// UsageDay formats t as the UTC calendar-day key used by usage rows.
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
