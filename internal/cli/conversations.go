package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yaungchi/assistant-go/internal/models"
)

var exportOutputFile string

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List, delete or export conversations",
	RunE:  runConversationsList,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	RunE:  runConversationsList,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

var conversationsExportCmd = &cobra.Command{
	Use:   "export <conversation-id>",
	Short: "Export a conversation as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsExport,
}

func init() {
	conversationsExportCmd.Flags().StringVarP(&exportOutputFile, "output", "o", "", "write output to file instead of stdout")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	conversationsCmd.AddCommand(conversationsExportCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	conversations, err := api.ListConversations(context.Background(), s.UserID)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations yet. Start one with 'assistant chat'.")
		return nil
	}

	fmt.Printf("Conversations (%d):\n\n", len(conversations))
	for _, conv := range conversations {
		fmt.Printf("- %s\n", conv.Title)
		fmt.Printf("  id: %s  last active: %s\n",
			models.MustRecordIDString(conv.ID),
			conv.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	if _, err := requireSession(); err != nil {
		return err
	}

	if err := api.DeleteConversation(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	fmt.Println("Conversation deleted.")
	return nil
}

// exportedConversation is the YAML export shape.
type exportedConversation struct {
	Title    string            `yaml:"title"`
	Language string            `yaml:"language"`
	Messages []exportedMessage `yaml:"messages"`
}

type exportedMessage struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
	SentAt  string `yaml:"sent_at"`
}

func runConversationsExport(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}
	conversationID := args[0]
	ctx := context.Background()

	conversations, err := api.ListConversations(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var export exportedConversation
	found := false
	for _, conv := range conversations {
		if models.MustRecordIDString(conv.ID) == conversationID {
			export.Title = conv.Title
			export.Language = conv.Language
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("export: conversation %s not found", conversationID)
	}

	messages, err := api.ListMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, m := range messages {
		export.Messages = append(export.Messages, exportedMessage{
			Role:    m.Role,
			Content: m.Content,
			SentAt:  m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}

	if exportOutputFile == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(exportOutputFile, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", exportOutputFile, err)
	}
	fmt.Printf("Exported %d messages to %s\n", len(export.Messages), exportOutputFile)
	return nil
}
