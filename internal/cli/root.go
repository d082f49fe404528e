// Package cli provides the command-line interface for the assistant.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// Global API client and session, set up by the root pre-run.
	api     *client.Client
	session *Session
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Yaung Chi agriculture assistant",
	Long: `Yaung Chi is an agriculture assistant for farmers: crop disease and
pest advice, fertilizer and irrigation guidance, weather forecasts and
market prices, over a chat interface.

Most commands need a logged-in session; run 'assistant register' or
'assistant login' first.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if serverURL == "" {
			serverURL = os.Getenv("ASSISTANT_SERVER_URL")
		}
		api = client.New(serverURL)

		// Session is optional here; commands that need it call requireSession.
		var err error
		session, err = LoadSession()
		if err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not read session: %v\n", err)
		}
		return nil
	},
}

// requireSession errors out commands that need a logged-in user.
func requireSession() (*Session, error) {
	if session == nil || session.UserID == "" {
		return nil, fmt.Errorf("not logged in; run 'assistant login' or 'assistant register' first")
	}
	return session, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API server URL (default $ASSISTANT_SERVER_URL or "+client.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(weatherCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
