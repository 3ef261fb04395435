package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/beeline/server/beeline/creator"
	"codeberg.org/beeline/server/beeline/tracker"
)

func NewApp(controller *creator.Controller, tr *tracker.Tracker) *Model {
	return &Model{
		state:   StateWelcome,
		welcome: NewWelcome(),
		creator: NewCreatorModel(controller),
		join:    NewJoinModel(tr),
		help:    NewHelpModel(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// only quit from the welcome screen; views tear down first
		if msg.String() == "ctrl+c" && m.state == StateWelcome {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ErrorMsg:
		m.err = msg.err
		return m, nil

	case EnterCreatorMsg:
		m.state = StateCreator
		return m, m.creator.Enter(msg.resumeCode)

	case EnterJoinMsg:
		m.state = StateJoin
		return m, m.join.Enter()

	case EnterHelpMsg:
		m.state = StateHelp
		return m, nil

	case BackToWelcomeMsg:
		m.state = StateWelcome
		return m, nil
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)

	case StateCreator:
		return m.updateCreator(msg)

	case StateJoin:
		return m.updateJoin(msg)

	case StateHelp:
		return m.updateHelp(msg)

	default:
		return m, nil
	}
}

func (m *Model) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateCreator:
		return m.creator.View()

	case StateJoin:
		return m.join.View()

	case StateHelp:
		return m.help.View()

	default:
		return "Unknown state"
	}
}

func (m *Model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.welcome, cmd = m.welcome.Update(msg)

	return m, cmd
}

func (m *Model) updateCreator(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.creator, cmd = m.creator.Update(msg)

	return m, cmd
}

func (m *Model) updateJoin(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.join, cmd = m.join.Update(msg)

	return m, cmd
}

func (m *Model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)

	return m, cmd
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %v\n\n  Press Ctrl+C to exit\n", err)
}
