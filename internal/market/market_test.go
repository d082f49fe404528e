package market

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

type fakeStore struct {
	mu     sync.Mutex
	prices []models.MarketPrice
}

func (f *fakeStore) ListMarketPrices(_ context.Context, location string) ([]models.MarketPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if location == "" {
		return f.prices, nil
	}
	var out []models.MarketPrice
	for _, p := range f.prices {
		if p.MarketLocation == location {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMarketPrices(_ context.Context, prices []models.MarketPrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices = append(f.prices, prices...)
	return nil
}

type fakeGate struct {
	mu         sync.Mutex
	limits     quota.Limits
	increments int
}

func (f *fakeGate) CheckLimits(_ context.Context, _ string) (quota.Limits, error) {
	return f.limits, nil
}

func (f *fakeGate) IncrementMarketCount(_ context.Context, _ string) error {
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

func newTestService(store Store, gate Gate) *Service {
	return NewService(store, gate, slog.New(slog.DiscardHandler))
}

func TestPricesSeedsEmptyTable(t *testing.T) {
	store := &fakeStore{}
	gate := &fakeGate{limits: quota.Limits{CanQueryMarket: true}}

	svc := newTestService(store, gate)
	prices, err := svc.Prices(context.Background(), "u1", "")
	require.NoError(t, err)

	assert.Len(t, prices, len(SeedPrices()))
	assert.Eventually(t, func() bool {
		return gate.incrementCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPricesFiltersByLocation(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, store.InsertMarketPrices(context.Background(), SeedPrices()))
	gate := &fakeGate{limits: quota.Limits{CanQueryMarket: true}}

	svc := newTestService(store, gate)
	prices, err := svc.Prices(context.Background(), "u1", "Mandalay")
	require.NoError(t, err)

	require.NotEmpty(t, prices)
	for _, p := range prices {
		assert.Equal(t, "Mandalay", p.MarketLocation)
	}
}

func TestPricesQuotaDenied(t *testing.T) {
	store := &fakeStore{}
	gate := &fakeGate{limits: quota.Limits{CanQueryMarket: false}}

	svc := newTestService(store, gate)
	_, err := svc.Prices(context.Background(), "u1", "")
	require.ErrorIs(t, err, ErrQuotaExceeded)

	assert.Empty(t, store.prices)
	assert.Zero(t, gate.incrementCount())
}

func TestSeedPricesShape(t *testing.T) {
	for _, p := range SeedPrices() {
		assert.NotEmpty(t, p.ProductName)
		assert.Positive(t, p.Price)
		assert.Equal(t, "MMK", p.Currency)
	}
}
