package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/models"
)

var loginPhone string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to an existing account",
	Long: `Log in with your phone number. A verification code is sent to the
number; enter it when prompted.

Examples:
  assistant login --phone +959123456789`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ClearSession(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPhone, "phone", "p", "", "phone number (required)")
	loginCmd.MarkFlagRequired("phone")
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	code, err := requestAndPromptCode(ctx, loginPhone)
	if err != nil {
		return err
	}

	user, err := api.Login(ctx, loginPhone, code)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s := &Session{
		UserID:      models.MustRecordIDString(user.ID),
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
	}
	if err := SaveSession(s); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s.\n", user.Name)
	return nil
}
