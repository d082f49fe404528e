package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var upgradePaymentRef string

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade to the paid tier",
	Long: `Upgrade your account to the paid tier: unlimited messages, weather
and market queries, and full-length advisories.

A payment reference from the payment provider is required.

Examples:
  assistant upgrade --payment-ref KBZ-20260828-1234`,
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().StringVar(&upgradePaymentRef, "payment-ref", "", "payment reference (required)")
	upgradeCmd.MarkFlagRequired("payment-ref")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	sub, err := api.Upgrade(context.Background(), s.UserID, upgradePaymentRef)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	fmt.Println("Upgrade complete. You are on the paid tier.")
	if sub.ExpiresAt != nil {
		fmt.Printf("Valid until %s.\n", sub.ExpiresAt.Format("2006-01-02"))
	}
	return nil
}
