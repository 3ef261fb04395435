package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/beeline/server/beeline/creator"
	"codeberg.org/beeline/server/beeline/tracker"
	"codeberg.org/beeline/server/internal/client"
)

const requestTimeout = 10 * time.Second

// mints a new session or revalidates a saved code
func openSession(controller *creator.Controller, resumeCode string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var session *client.Session
		var err error

		if resumeCode != "" {
			session, err = controller.Resume(ctx, resumeCode)
		} else {
			session, err = controller.Create(ctx)
		}

		if err != nil {
			return SessionErrorMsg{err: err}
		}

		return SessionReadyMsg{session: session}
	}
}

// blocks on the live feed for the next snapshot
func waitForSnapshot(snapshots <-chan client.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-snapshots
		if !ok {
			return FeedClosedMsg{}
		}

		return SnapshotMsg{snapshot: snapshot}
	}
}

// blocks until the server ends the session
func waitForEnded(ended <-chan client.SessionEnded) tea.Cmd {
	return func() tea.Msg {
		end := <-ended
		return SessionEndedMsg{reason: end.Reason}
	}
}

func endSession(controller *creator.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := controller.End(ctx); err != nil {
			return SessionErrorMsg{err: err}
		}

		return BackToWelcomeMsg{}
	}
}

// starts the joiner tracking loop for a code
func startTracking(tr *tracker.Tracker, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := tr.Start(ctx, code); err != nil {
			return JoinErrorMsg{err: err}
		}

		return TrackingStartedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
