package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `
# beeline

Share where you are with people you trust, for a little while.

## how it works

- A **creator** starts a session and gets a 6-character code.
- **Joiners** enter the code and start sharing their location.
- Everyone's position expires on its own after 15 minutes without a
  refresh, and the whole session disappears after 24 hours.
- Stopping is immediate: once you stop sharing, nothing more is sent.

## commands

| command | what it does |
| ------- | ------------ |
| create  | start a session and watch joiners live |
| resume  | reopen a session you created earlier |
| join    | share your location into a session |
| quit    | exit |

Nothing is stored longer than the session itself.
`

// glamour-rendered help screen
type HelpModel struct {
	rendered string
}

func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

func (m *HelpModel) Update(msg tea.Msg) (*HelpModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "enter", "ctrl+c":
			return m, func() tea.Msg { return BackToWelcomeMsg{} }
		}
	}

	return m, nil
}

func (m *HelpModel) View() string {
	if m.rendered == "" {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(72),
		)
		if err != nil {
			m.rendered = helpMarkdown
		} else {
			out, rerr := renderer.Render(helpMarkdown)
			if rerr != nil {
				m.rendered = helpMarkdown
			} else {
				m.rendered = out
			}
		}
	}

	return m.rendered + helpStyle.Render("press esc to go back.")
}
