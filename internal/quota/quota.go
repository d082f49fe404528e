// Package quota enforces daily free-tier usage limits. Paid users are
// resolved from their subscription alone and never touch the usage store.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaungchi/assistant-go/internal/db"
	"github.com/yaungchi/assistant-go/internal/metrics"
	"github.com/yaungchi/assistant-go/internal/models"
)

// Daily free-tier allowances.
const (
	FreeDailyMessages       = 20
	FreeDailyWeatherQueries = 10
	FreeDailyMarketQueries  = 10
)

// UnlimitedMessages marks a remaining-count for tiers without a cap.
const UnlimitedMessages = -1

// SubscriptionSource resolves a user's current subscription.
type SubscriptionSource interface {
	CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// UsageStore reads and bumps per-day usage counters.
type UsageStore interface {
	GetUsage(ctx context.Context, userID, day string) (*models.UsageRecord, error)
	CreateUsage(ctx context.Context, userID, day string) (*models.UsageRecord, error)
	IncrementUsage(ctx context.Context, userID, day, field string) error
}

// Limits is the gate decision for one user at one instant.
type Limits struct {
	CanSendMessage    bool `json:"can_send_message"`
	CanQueryWeather   bool `json:"can_query_weather"`
	CanQueryMarket    bool `json:"can_query_market"`
	RemainingMessages int  `json:"remaining_messages"`
	IsPaidUser        bool `json:"is_paid_user"`
}

// Tracker gates and counts usage against daily free-tier limits.
type Tracker struct {
	subs    SubscriptionSource
	usage   UsageStore
	log     *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewTracker creates a quota tracker. The metrics collector may be nil.
func NewTracker(subs SubscriptionSource, usage UsageStore, log *slog.Logger, mc *metrics.Collector) *Tracker {
	return &Tracker{
		subs:    subs,
		usage:   usage,
		log:     log,
		metrics: mc,
		now:     time.Now,
	}
}

// CheckLimits resolves the gate decision for a user. Paid subscribers pass
// unconditionally without a usage lookup. For free users the day's row is
// created lazily. A store failure never surfaces as an error: the caller
// gets a fully denied result, so an unreachable store closes the gate
// instead of granting unmetered access.
func (t *Tracker) CheckLimits(ctx context.Context, userID string) (Limits, error) {
	start := t.now()

	sub, err := t.subs.CurrentSubscription(ctx, userID)
	if err != nil {
		return t.denyAll(userID, "subscription lookup", err), nil
	}
	if sub.IsPaid(t.now()) {
		t.metrics.RecordTiming(metrics.OpQuotaCheck, time.Since(start))
		return Limits{
			CanSendMessage:    true,
			CanQueryWeather:   true,
			CanQueryMarket:    true,
			RemainingMessages: UnlimitedMessages,
			IsPaidUser:        true,
		}, nil
	}

	day := models.UsageDay(t.now())
	record, err := t.usage.GetUsage(ctx, userID, day)
	if err != nil {
		return t.denyAll(userID, "usage read", err), nil
	}
	if record == nil {
		record, err = t.usage.CreateUsage(ctx, userID, day)
		if err != nil && !db.IsAlreadyExists(err) {
			return t.denyAll(userID, "usage create", err), nil
		}
		if record == nil {
			// Lost a create race; re-read the row the winner made.
			record, err = t.usage.GetUsage(ctx, userID, day)
			if err != nil || record == nil {
				return t.denyAll(userID, "usage reload", err), nil
			}
		}
	}

	remaining := FreeDailyMessages - record.MessageCount
	if remaining < 0 {
		remaining = 0
	}

	t.metrics.RecordTiming(metrics.OpQuotaCheck, time.Since(start))
	return Limits{
		CanSendMessage:    record.MessageCount < FreeDailyMessages,
		CanQueryWeather:   record.WeatherQueries < FreeDailyWeatherQueries,
		CanQueryMarket:    record.MarketQueries < FreeDailyMarketQueries,
		RemainingMessages: remaining,
	}, nil
}

// denyAll records a failed limit check and returns the fully denied
// decision served in place of an error.
func (t *Tracker) denyAll(userID, op string, err error) Limits {
	t.metrics.RecordFailure(metrics.OpQuotaCheck)
	t.log.Error("limit check failed, denying all access",
		"user", userID, "op", op, "error", err)
	return Limits{}
}

// IncrementMessageCount bumps the user's daily message counter.
func (t *Tracker) IncrementMessageCount(ctx context.Context, userID string) error {
	return t.increment(ctx, userID, db.UsageFieldMessages)
}

// IncrementWeatherCount bumps the user's daily weather-query counter.
func (t *Tracker) IncrementWeatherCount(ctx context.Context, userID string) error {
	return t.increment(ctx, userID, db.UsageFieldWeather)
}

// IncrementMarketCount bumps the user's daily market-query counter.
func (t *Tracker) IncrementMarketCount(ctx context.Context, userID string) error {
	return t.increment(ctx, userID, db.UsageFieldMarket)
}

func (t *Tracker) increment(ctx context.Context, userID, field string) error {
	if err := t.usage.IncrementUsage(ctx, userID, models.UsageDay(t.now()), field); err != nil {
		t.log.Error("usage increment failed", "user", userID, "field", field, "error", err)
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return nil
}
