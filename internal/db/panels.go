package db

import (
	"context"
	"fmt"
	"time"

	"github.com/yaungchi/assistant-go/internal/models"
)

// ValidWeather returns the freshest unexpired weather row for a location,
// or nil when the cache is cold or stale.
func (c *Client) ValidWeather(ctx context.Context, location string) (*models.WeatherData, error) {
	results, err := query[models.WeatherData](ctx, c, `
		SELECT * FROM weather
		WHERE location = $location AND valid_until > time::now()
		ORDER BY fetched_at DESC
		LIMIT 1
	`, map[string]any{"location": location})
	if err != nil {
		return nil, fmt.Errorf("valid weather: %w", err)
	}
	return first(results), nil
}

// InsertWeather caches an observation for a location.
func (c *Client) InsertWeather(ctx context.Context, w models.WeatherData) (*models.WeatherData, error) {
	results, err := query[models.WeatherData](ctx, c, `
		CREATE weather SET
			location = $location,
			temperature = $temperature,
			condition = $condition,
			humidity = $humidity,
			wind_speed = $wind_speed,
			forecast = $forecast,
			valid_until = $valid_until
	`, map[string]any{
		"location":    w.Location,
		"temperature": w.Temperature,
		"condition":   w.Condition,
		"humidity":    w.Humidity,
		"wind_speed":  w.WindSpeed,
		"forecast":    w.Forecast,
		"valid_until": w.ValidUntil,
	})
	if err != nil {
		return nil, fmt.Errorf("insert weather: %w", err)
	}
	return first(results), nil
}

// ListMarketPrices returns prices for a market location (all locations when
// empty), most recently updated first.
func (c *Client) ListMarketPrices(ctx context.Context, location string) ([]models.MarketPrice, error) {
	sql := `SELECT * FROM market_price ORDER BY updated_at DESC`
	vars := map[string]any{}
	if location != "" {
		sql = `SELECT * FROM market_price WHERE market_location = $location ORDER BY updated_at DESC`
		vars["location"] = location
	}

	results, err := query[models.MarketPrice](ctx, c, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list market prices: %w", err)
	}
	return rows(results), nil
}

// InsertMarketPrices seeds price rows for a location.
func (c *Client) InsertMarketPrices(ctx context.Context, prices []models.MarketPrice) error {
	for _, p := range prices {
		_, err := query[any](ctx, c, `
			CREATE market_price SET
				product_name = $product,
				price = $price,
				unit = $unit,
				market_location = $location,
				currency = $currency
		`, map[string]any{
			"product":  p.ProductName,
			"price":    p.Price,
			"unit":     p.Unit,
			"location": p.MarketLocation,
			"currency": p.Currency,
		})
		if err != nil {
			return fmt.Errorf("insert market price %q: %w", p.ProductName, err)
		}
	}
	return nil
}

// PruneStaleWeather deletes weather rows past their validity window.
// Called opportunistically; failures are non-fatal for callers.
func (c *Client) PruneStaleWeather(ctx context.Context, olderThan time.Time) error {
	_, err := query[any](ctx, c, `
		DELETE weather WHERE valid_until < $cutoff
	`, map[string]any{"cutoff": olderThan})
	if err != nil {
		return fmt.Errorf("prune stale weather: %w", err)
	}
	return nil
}
