// Package weather serves the weather panel from a read-through cache,
// gated by the daily free-tier query quota.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

// CacheTTL is how long a fetched observation stays valid.
const CacheTTL = time.Hour

// DefaultLocation is used when the caller names none.
const DefaultLocation = "Yangon"

// Locations the panel knows about.
var Locations = []string{"Yangon", "Mandalay", "Naypyidaw", "Bago", "Sagaing"}

var (
	// ErrQuotaExceeded means the free-tier daily weather-query cap is spent.
	ErrQuotaExceeded = errors.New("daily weather query limit reached")

	// ErrUnknownLocation means the location is not served.
	ErrUnknownLocation = errors.New("unknown location")
)

// Store is the cache surface. Satisfied by *db.Client.
type Store interface {
	ValidWeather(ctx context.Context, location string) (*models.WeatherData, error)
	InsertWeather(ctx context.Context, w models.WeatherData) (*models.WeatherData, error)
	PruneStaleWeather(ctx context.Context, olderThan time.Time) error
}

// Gate is the quota surface. Satisfied by *quota.Tracker.
type Gate interface {
	CheckLimits(ctx context.Context, userID string) (quota.Limits, error)
	IncrementWeatherCount(ctx context.Context, userID string) error
}

// Service answers weather queries from the cache, fetching on a miss.
type Service struct {
	store Store
	gate  Gate
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates the weather service.
func NewService(store Store, gate Gate, log *slog.Logger) *Service {
	return &Service{store: store, gate: gate, log: log, now: time.Now}
}

// Current returns the weather for a location, gated by the user's quota.
// A cache miss fetches a fresh observation, caches it for CacheTTL and
// opportunistically prunes expired rows.
func (s *Service) Current(ctx context.Context, userID, location string) (*models.WeatherData, error) {
	if location == "" {
		location = DefaultLocation
	}
	if !knownLocation(location) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}

	limits, err := s.gate.CheckLimits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	if !limits.CanQueryWeather {
		return nil, ErrQuotaExceeded
	}

	go s.countQuery(userID)

	cached, err := s.store.ValidWeather(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	fresh := s.fetch(location)
	stored, err := s.store.InsertWeather(ctx, fresh)
	if err != nil {
		// Serve the observation even if caching it failed.
		s.log.Warn("weather cache write failed", "location", location, "error", err)
		return &fresh, nil
	}

	if err := s.store.PruneStaleWeather(ctx, s.now()); err != nil {
		s.log.Debug("stale weather prune failed", "error", err)
	}
	return stored, nil
}

func (s *Service) countQuery(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.gate.IncrementWeatherCount(ctx, userID); err != nil {
		s.log.Error("weather count increment failed", "user", userID, "error", err)
	}
}

func knownLocation(location string) bool {
	for _, l := range Locations {
		if l == location {
			return true
		}
	}
	return false
}

var conditions = []string{"Sunny", "Partly Cloudy", "Cloudy", "Light Rain", "Thunderstorm"}

// fetch produces an observation for a location. Stands in for an external
// weather provider; the shape and validity window match what a real fetch
// would cache.
func (s *Service) fetch(location string) models.WeatherData {
	rng := rand.New(rand.NewSource(s.now().UnixNano()))
	now := s.now()

	forecast := make([]models.DayForecast, 0, 7)
	for i := range 7 {
		high := 28 + rng.Float64()*8
		forecast = append(forecast, models.DayForecast{
			Day:       now.AddDate(0, 0, i+1).Format("Mon"),
			TempHigh:  round1(high),
			TempLow:   round1(high - 6 - rng.Float64()*3),
			Condition: conditions[rng.Intn(len(conditions))],
		})
	}

	return models.WeatherData{
		Location:    location,
		Temperature: round1(26 + rng.Float64()*10),
		Condition:   conditions[rng.Intn(len(conditions))],
		Humidity:    round1(55 + rng.Float64()*35),
		WindSpeed:   round1(4 + rng.Float64()*16),
		Forecast:    forecast,
		FetchedAt:   now,
		ValidUntil:  now.Add(CacheTTL),
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
