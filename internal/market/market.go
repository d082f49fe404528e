// Package market serves the market-price panel, gated by the daily
// free-tier query quota.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

// ErrQuotaExceeded means the free-tier daily market-query cap is spent.
var ErrQuotaExceeded = errors.New("daily market query limit reached")

// Store is the price table surface. Satisfied by *db.Client.
type Store interface {
	ListMarketPrices(ctx context.Context, location string) ([]models.MarketPrice, error)
	InsertMarketPrices(ctx context.Context, prices []models.MarketPrice) error
}

// Gate is the quota surface. Satisfied by *quota.Tracker.
type Gate interface {
	CheckLimits(ctx context.Context, userID string) (quota.Limits, error)
	IncrementMarketCount(ctx context.Context, userID string) error
}

// Service answers market price queries.
type Service struct {
	store Store
	gate  Gate
	log   *slog.Logger
}

// NewService creates the market service.
func NewService(store Store, gate Gate, log *slog.Logger) *Service {
	return &Service{store: store, gate: gate, log: log}
}

// Prices returns current prices, optionally filtered by market location,
// gated by the user's quota. An empty price table is seeded with the
// bootstrap price list first.
func (s *Service) Prices(ctx context.Context, userID, location string) ([]models.MarketPrice, error) {
	limits, err := s.gate.CheckLimits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	if !limits.CanQueryMarket {
		return nil, ErrQuotaExceeded
	}

	go s.countQuery(userID)

	prices, err := s.store.ListMarketPrices(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	if len(prices) > 0 {
		return prices, nil
	}

	if err := s.store.InsertMarketPrices(ctx, SeedPrices()); err != nil {
		return nil, fmt.Errorf("market prices: seed: %w", err)
	}
	prices, err = s.store.ListMarketPrices(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	return prices, nil
}

func (s *Service) countQuery(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.gate.IncrementMarketCount(ctx, userID); err != nil {
		s.log.Error("market count increment failed", "user", userID, "error", err)
	}
}

// SeedPrices is the bootstrap price list used when the table is empty.
func SeedPrices() []models.MarketPrice {
	type row struct {
		product  string
		price    float64
		unit     string
		location string
	}
	rows := []row{
		{"Rice (Paw San)", 85000, "100 kg", "Yangon"},
		{"Rice (Emata)", 52000, "100 kg", "Yangon"},
		{"Onion", 1800, "viss", "Yangon"},
		{"Garlic", 6500, "viss", "Yangon"},
		{"Tomato", 1200, "viss", "Yangon"},
		{"Chili (dried)", 9000, "viss", "Yangon"},
		{"Rice (Paw San)", 82000, "100 kg", "Mandalay"},
		{"Onion", 1500, "viss", "Mandalay"},
		{"Garlic", 6000, "viss", "Mandalay"},
		{"Chickpea", 4200, "viss", "Mandalay"},
		{"Sesame", 7800, "viss", "Mandalay"},
		{"Groundnut", 5600, "viss", "Mandalay"},
	}

	prices := make([]models.MarketPrice, 0, len(rows))
	for _, r := range rows {
		prices = append(prices, models.MarketPrice{
			ProductName:    r.product,
			Price:          r.price,
			Unit:           r.unit,
			MarketLocation: r.location,
			Currency:       "MMK",
		})
	}
	return prices
}
