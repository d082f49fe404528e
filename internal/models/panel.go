package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// DayForecast is one entry of a weather row's multi-day outlook.
type DayForecast struct {
	Day       string  `json:"day"`
	TempHigh  float64 `json:"temp_high"`
	TempLow   float64 `json:"temp_low"`
	Condition string  `json:"condition"`
}

// WeatherData is a cached weather observation for a location, valid until
// ValidUntil and regenerated on demand afterwards.
type WeatherData struct {
	ID          surrealmodels.RecordID `json:"id"`
	Location    string                 `json:"location"`
	Temperature float64                `json:"temperature"`
	Condition   string                 `json:"condition"`
	Humidity    float64                `json:"humidity"`
	WindSpeed   float64                `json:"wind_speed"`
	Forecast    []DayForecast          `json:"forecast,omitempty"`
	FetchedAt   time.Time              `json:"fetched_at"`
	ValidUntil  time.Time              `json:"valid_until"`
}

// MarketPrice is one product's current price at a market location.
type MarketPrice struct {
	ID             surrealmodels.RecordID `json:"id"`
	ProductName    string                 `json:"product_name"`
	Price          float64                `json:"price"`
	Unit           string                 `json:"unit"`
	MarketLocation string                 `json:"market_location"`
	Currency       string                 `json:"currency"`
	UpdatedAt      time.Time              `json:"updated_at"`
}
