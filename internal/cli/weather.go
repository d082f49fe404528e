package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/client"
)

var weatherLocation string

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Show the weather forecast for a location",
	Long: `Show current conditions and the 7-day forecast. Weather queries
count against the free-tier daily quota.

Examples:
  assistant weather
  assistant weather --location Mandalay`,
	RunE: runWeather,
}

func init() {
	weatherCmd.Flags().StringVarP(&weatherLocation, "location", "l", "", "location (default Yangon)")
}

func runWeather(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	data, err := api.Weather(context.Background(), s.UserID, weatherLocation)
	if err != nil {
		if client.IsQuotaDenied(err) {
			return fmt.Errorf("daily weather query limit reached; upgrade with 'assistant upgrade'")
		}
		return fmt.Errorf("weather: %w", err)
	}

	fmt.Printf("%s: %s\n", data.Location, data.Condition)
	fmt.Printf("  Temperature: %.1f°C\n", data.Temperature)
	fmt.Printf("  Humidity:    %.0f%%\n", data.Humidity)
	fmt.Printf("  Wind:        %.1f km/h\n", data.WindSpeed)

	if len(data.Forecast) > 0 {
		fmt.Println("\nForecast:")
		for _, day := range data.Forecast {
			fmt.Printf("  %-4s %5.1f°C / %5.1f°C  %s\n", day.Day, day.TempHigh, day.TempLow, day.Condition)
		}
	}

	fmt.Println("\n" + strings.TrimSpace(fmt.Sprintf("Data fetched %s, valid until %s.",
		data.FetchedAt.Format("15:04"), data.ValidUntil.Format("15:04"))))
	return nil
}
