package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/beeline/server/beeline/tracker"
)

type joinPhase int

const (
	phaseEntry joinPhase = iota
	phaseJoining
	phaseSharing
)

// code entry plus the live sharing status
type JoinModel struct {
	tracker *tracker.Tracker
	input   textinput.Model
	spin    spinner.Model
	phase   joinPhase
	code    string
	errMsg  string
	elapsed int
}

func NewJoinModel(tr *tracker.Tracker) *JoinModel {
	ti := textinput.New()
	ti.Placeholder = "ABC123"
	ti.CharLimit = 6
	ti.Width = 10
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLightGray)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAmber)

	return &JoinModel{
		tracker: tr,
		input:   ti,
		spin:    sp,
	}
}

// Enter resets the view for a fresh code entry
func (m *JoinModel) Enter() tea.Cmd {
	m.phase = phaseEntry
	m.code = ""
	m.errMsg = ""
	m.elapsed = 0
	m.input.SetValue("")
	m.input.Focus()

	return textinput.Blink
}

func (m *JoinModel) Update(msg tea.Msg) (*JoinModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.phase == phaseEntry {
				code := strings.ToUpper(strings.TrimSpace(m.input.Value()))
				if code == "" {
					return m, nil
				}

				m.phase = phaseJoining
				m.code = code
				m.errMsg = ""

				return m, tea.Batch(m.spin.Tick, startTracking(m.tracker, code))
			}

		case "s", "esc", "ctrl+c":
			if m.phase == phaseSharing {
				m.tracker.Stop()
				m.phase = phaseEntry
				m.elapsed = 0

				if msg.String() == "s" {
					return m, m.Enter()
				}
				return m, func() tea.Msg { return BackToWelcomeMsg{} }
			}

			if m.phase == phaseEntry && msg.String() != "s" {
				return m, func() tea.Msg { return BackToWelcomeMsg{} }
			}
		}

	case TrackingStartedMsg:
		m.phase = phaseSharing
		return m, tick()

	case JoinErrorMsg:
		m.phase = phaseEntry
		m.errMsg = joinErrorText(msg.err)
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case TickMsg:
		if m.phase == phaseSharing {
			m.elapsed++
			return m, tick()
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase == phaseJoining {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.phase == phaseEntry {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *JoinModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")

	switch m.phase {
	case phaseEntry:
		b.WriteString(infoStyle.Render("  enter the session code you were given:"))
		b.WriteString("\n\n  ")
		b.WriteString(m.input.View())
		b.WriteString("\n")

		if m.errMsg != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render("  " + m.errMsg))
			b.WriteString("\n")
		}

		b.WriteString(helpStyle.Render("press enter to join, esc to go back."))

	case phaseJoining:
		b.WriteString("  " + m.spin.View())
		b.WriteString(infoStyle.Render(" joining " + m.code + "..."))
		b.WriteString("\n")

	case phaseSharing:
		b.WriteString("  ")
		b.WriteString(codeStyle.Render(m.code))
		b.WriteString("\n\n")
		b.WriteString(sharingStyle.Render("  ● sharing your location"))
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render("  as " + m.tracker.Identity().DisplayName +
			" · for " + formatElapsed(m.elapsed)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("press s to stop sharing, esc to stop and go back."))
	}

	return b.String()
}

// recoverable joiner failures get a friendlier line than raw errors
func joinErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tracker.ErrInvalidCode):
		return "that code doesn't match a live session. check it and try again."
	case errors.Is(err, tracker.ErrLocationUnavailable):
		return "couldn't get a location fix. try again."
	default:
		return err.Error()
	}
}

func formatElapsed(seconds int) string {
	minutes := seconds / 60
	switch minutes {
	case 0:
		return "less than a minute"
	case 1:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
