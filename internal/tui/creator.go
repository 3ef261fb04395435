package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/beeline/server/beeline/creator"
	"codeberg.org/beeline/server/internal/client"
)

// live view of a session's joiners
type CreatorModel struct {
	controller *creator.Controller
	session    *client.Session
	users      []client.User
	sequence   uint64
	opening    bool
	endReason  string
	errMsg     string
}

func NewCreatorModel(controller *creator.Controller) *CreatorModel {
	return &CreatorModel{
		controller: controller,
	}
}

// Enter begins creating or resuming a session
func (m *CreatorModel) Enter(resumeCode string) tea.Cmd {
	m.session = nil
	m.users = nil
	m.sequence = 0
	m.opening = true
	m.endReason = ""
	m.errMsg = ""

	return openSession(m.controller, resumeCode)
}

func (m *CreatorModel) Update(msg tea.Msg) (*CreatorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "e":
			if m.session != nil {
				return m, endSession(m.controller)
			}

		case "esc", "ctrl+c":
			// leave the session running; the code stays resumable
			m.controller.Close()
			return m, func() tea.Msg { return BackToWelcomeMsg{} }
		}

	case SessionReadyMsg:
		m.opening = false
		m.session = msg.session

		return m, tea.Batch(
			waitForSnapshot(m.controller.Snapshots()),
			waitForEnded(m.controller.Ended()),
			tick(),
		)

	case SessionErrorMsg:
		m.opening = false
		m.errMsg = msg.err.Error()
		return m, nil

	case SnapshotMsg:
		m.users = msg.snapshot.Users
		m.sequence = msg.snapshot.Sequence
		return m, waitForSnapshot(m.controller.Snapshots())

	case FeedClosedMsg:
		return m, nil

	case SessionEndedMsg:
		m.endReason = msg.reason
		m.controller.Close()
		return m, nil

	case TickMsg:
		if m.session != nil && m.endReason == "" {
			return m, tick()
		}
		return m, nil
	}

	return m, nil
}

func (m *CreatorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")

	switch {
	case m.opening:
		b.WriteString(infoStyle.Render("  opening session..."))
		b.WriteString("\n")

	case m.errMsg != "":
		b.WriteString(errorStyle.Render("  " + m.errMsg))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("press esc to go back."))

	case m.endReason != "":
		b.WriteString(errorStyle.Render("  session ended: " + m.endReason))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("press esc to go back."))

	case m.session != nil:
		b.WriteString("  ")
		b.WriteString(codeStyle.Render(m.session.Code))
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("  share this code with joiners · expires in %s",
			formatRemaining(m.session.ExpiresAt))))
		b.WriteString("\n\n")

		b.WriteString(m.usersTable())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("press e to end the session, esc to leave it running."))
	}

	return b.String()
}

func (m *CreatorModel) usersTable() string {
	if len(m.users) == 0 {
		return infoStyle.Render("  nobody is sharing yet.")
	}

	users := make([]client.User, len(m.users))
	copy(users, m.users)
	sort.Slice(users, func(i, j int) bool { return users[i].DisplayName < users[j].DisplayName })

	var b strings.Builder

	header := fmt.Sprintf("  %-20s %10s %11s %10s", "who", "lat", "lng", "fades in")
	b.WriteString(tableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, user := range users {
		name := user.DisplayName
		if name == "" {
			name = user.ID
		}
		if len(name) > 20 {
			name = name[:17] + "..."
		}

		row := fmt.Sprintf("  %-20s %10.4f %11.4f %10s",
			name, user.Lat, user.Lng, formatRemaining(user.ExpiresAt))
		b.WriteString(tableRowStyle.Render(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("  %d sharing · snapshot #%d", len(users), m.sequence)))

	return b.String()
}

// renders time until a unix-millisecond expiry
func formatRemaining(expiresAt int64) string {
	remaining := time.Until(time.UnixMilli(expiresAt))
	if remaining <= 0 {
		return "expired"
	}

	return remaining.Truncate(time.Second).String()
}
