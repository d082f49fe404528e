package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaungchi/assistant-go/internal/client"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
)

var chatConversationID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long: `Open an interactive chat session. A new conversation is started
unless --conversation continues an existing one.

Examples:
  assistant chat
  assistant chat --conversation 6a1f...`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversationID, "conversation", "c", "", "continue an existing conversation")
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat needs an interactive terminal; pipe-friendly access is available via the HTTP API")
	}

	ctx := context.Background()
	conversationID := chatConversationID
	var history []models.Message

	if conversationID == "" {
		conv, err := api.CreateConversation(ctx, s.UserID, "en")
		if err != nil {
			return fmt.Errorf("start conversation: %w", err)
		}
		conversationID = models.MustRecordIDString(conv.ID)
	} else {
		history, err = api.ListMessages(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
	}

	limits, err := api.Limits(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("load limits: %w", err)
	}

	model := newChatModel(api, s.UserID, conversationID, history, limits)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// chatTheme holds the chat color scheme.
type chatTheme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Hint      lipgloss.Color
	Error     lipgloss.Color
}

var defaultChatTheme = chatTheme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Error:     lipgloss.Color("#FF005F"), // red
}

func (t chatTheme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t chatTheme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t chatTheme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t chatTheme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

// chatEntry is one rendered line pair in the transcript.
type chatEntry struct {
	role    string
	content string
}

// replyMsg carries a pipeline result back into the UI loop.
type replyMsg struct {
	result *client.SendResult
	err    error
}

// chatModel is the bubbletea model for the chat session.
type chatModel struct {
	client         *client.Client
	userID         string
	conversationID string

	input      textinput.Model
	entries    []chatEntry
	theme      chatTheme
	remaining  int
	paid       bool
	waiting    bool
	quitting   bool
	errMessage string
}

func newChatModel(c *client.Client, userID, conversationID string, history []models.Message, limits *quota.Limits) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask about crops, pests, weather, prices..."
	input.Focus()

	entries := make([]chatEntry, 0, len(history))
	for _, m := range history {
		entries = append(entries, chatEntry{role: m.Role, content: m.Content})
	}

	return chatModel{
		client:         c,
		userID:         userID,
		conversationID: conversationID,
		input:          input,
		entries:        entries,
		theme:          defaultChatTheme,
		remaining:      limits.RemainingMessages,
		paid:           limits.IsPaidUser,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.entries = append(m.entries, chatEntry{role: models.RoleUser, content: text})
			m.input.Reset()
			m.waiting = true
			m.errMessage = ""
			return m, m.send(text)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			if client.IsQuotaDenied(msg.err) {
				m.errMessage = "Daily message limit reached. Upgrade with 'assistant upgrade' or come back tomorrow."
			} else {
				m.errMessage = msg.err.Error()
			}
			return m, nil
		}
		m.entries = append(m.entries, chatEntry{
			role:    models.RoleAssistant,
			content: msg.result.AssistantMessage.Content,
		})
		m.remaining = msg.result.Remaining
		m.paid = msg.result.IsPaidUser
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder

	for _, entry := range m.entries {
		switch entry.role {
		case models.RoleUser:
			b.WriteString(m.theme.userStyle().Render("You: "))
		default:
			b.WriteString(m.theme.assistantStyle().Render("Yaung Chi: "))
		}
		b.WriteString(entry.content)
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.theme.hintStyle().Render("thinking..."))
		b.WriteString("\n")
	}
	if m.errMessage != "" {
		b.WriteString(m.theme.errorStyle().Render(m.errMessage))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	quotaLine := "unlimited messages (paid)"
	if !m.paid {
		quotaLine = fmt.Sprintf("%d messages left today", m.remaining)
	}
	b.WriteString(m.theme.hintStyle().Render(quotaLine + " · Esc to quit"))
	b.WriteString("\n")

	return b.String()
}

// send runs the message through the server pipeline off the UI loop.
func (m chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		result, err := m.client.SendMessage(ctx, m.conversationID, m.userID, text)
		return replyMsg{result: result, err: err}
	}
}
