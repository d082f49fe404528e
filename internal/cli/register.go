package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/models"
)

var (
	registerPhone string
	registerName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account with your phone number. A verification code is
sent to the number; enter it when prompted to finish registration.

Examples:
  assistant register --phone +959123456789 --name "Aye Aye"`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerPhone, "phone", "p", "", "phone number (required)")
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "display name (required)")
	registerCmd.MarkFlagRequired("phone")
	registerCmd.MarkFlagRequired("name")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	code, err := requestAndPromptCode(ctx, registerPhone)
	if err != nil {
		return err
	}

	user, err := api.Register(ctx, registerPhone, registerName, code)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	s := &Session{
		UserID:      models.MustRecordIDString(user.ID),
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
	}
	if err := SaveSession(s); err != nil {
		return err
	}

	fmt.Printf("Welcome, %s! Your account is ready.\n", user.Name)
	fmt.Println("Start chatting with 'assistant chat'.")
	return nil
}

// requestAndPromptCode issues a verification code and reads it back from
// the terminal.
func requestAndPromptCode(ctx context.Context, phone string) (string, error) {
	issued, err := api.RequestCode(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("request verification code: %w", err)
	}
	if verbose && issued != "" {
		// Development servers return the code directly.
		fmt.Printf("Verification code (dev): %s\n", issued)
	}

	fmt.Printf("A verification code was sent to %s.\n", phone)
	fmt.Print("Enter code: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return strings.TrimSpace(line), nil
}
