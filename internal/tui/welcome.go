package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Welcome struct {
	input    string
	commands []Command
}

type Command struct {
	Name        string
	Description string
}

// returns a new welcome screen
func NewWelcome() *Welcome {
	commands := []Command{
		{Name: "create", Description: "start a session and watch joiners live"},
		{Name: "resume", Description: "reopen a session you created (resume ABC123)"},
		{Name: "join", Description: "share your location into a session"},
		{Name: "help", Description: "how beeline works"},
		{Name: "quit", Description: "exit beeline"},
	}

	return &Welcome{
		commands: commands,
	}
}

func (m *Welcome) Update(msg tea.Msg) (*Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, m.executeCommand()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			if len(msg.String()) == 1 {
				m.input += msg.String()
			}
		}
	}

	return m, nil
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("ephemeral location sharing by session code"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("commands:"))
	b.WriteString("\n\n")

	for _, cmd := range m.commands {
		line := fmt.Sprintf("  %s %s",
			commandStyle.Render(cmd.Name),
			commandDescStyle.Render("- "+cmd.Description),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")

	prompt := promptStyle.Render("> ")
	input := inputStyle.Render(m.input + "_")
	b.WriteString(prompt + input)
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("type a command and press enter. press ctrl+c to quit."))

	return b.String()
}

func (m *Welcome) executeCommand() tea.Cmd {
	cmd := strings.TrimSpace(m.input)
	m.input = ""

	switch {
	case cmd == "quit":
		return tea.Quit

	case cmd == "create":
		return func() tea.Msg {
			return EnterCreatorMsg{}
		}

	case strings.HasPrefix(cmd, "resume"):
		code := strings.TrimSpace(strings.TrimPrefix(cmd, "resume"))
		if code == "" {
			return func() tea.Msg {
				return ErrorMsg{err: fmt.Errorf("usage: resume <code>")}
			}
		}
		return func() tea.Msg {
			return EnterCreatorMsg{resumeCode: code}
		}

	case cmd == "join":
		return func() tea.Msg {
			return EnterJoinMsg{}
		}

	case cmd == "help":
		return func() tea.Msg {
			return EnterHelpMsg{}
		}

	default:
		if cmd != "" {
			return func() tea.Msg {
				return ErrorMsg{err: fmt.Errorf("unknown command: %s", cmd)}
			}
		}
		return nil
	}
}
