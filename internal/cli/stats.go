package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	snap, err := api.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("Server uptime: %.0fs\n", snap.UptimeSeconds)
	if len(snap.Operations) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	names := make([]string, 0, len(snap.Operations))
	for name := range snap.Operations {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nOperations:")
	for _, name := range names {
		op := snap.Operations[name]
		fmt.Printf("  %-14s count=%-6d failures=%-4d avg=%.1fms min=%dms max=%dms\n",
			name, op.Count, op.Failures, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	return nil
}
