package tui

import (
	"codeberg.org/beeline/server/internal/client"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateCreator
	StateJoin
	StateHelp
)

// main TUI application model
type Model struct {
	state   AppState
	width   int
	height  int
	err     error
	welcome *Welcome
	creator *CreatorModel
	join    *JoinModel
	help    *HelpModel
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent to transition to the creator view
type EnterCreatorMsg struct {
	resumeCode string
}

// sent to transition to the join view
type EnterJoinMsg struct{}

// sent to transition to the help view
type EnterHelpMsg struct{}

// sent to return to the welcome screen
type BackToWelcomeMsg struct{}

// sent when the server has minted or revalidated a session
type SessionReadyMsg struct {
	session *client.Session
}

// sent when creating or resuming a session fails
type SessionErrorMsg struct {
	err error
}

// sent for each live presence snapshot
type SnapshotMsg struct {
	snapshot client.Snapshot
}

// sent when the live feed closes
type FeedClosedMsg struct{}

// sent when the server ends the session
type SessionEndedMsg struct {
	reason string
}

// sent when the tracker reaches sharing
type TrackingStartedMsg struct{}

// sent when joining a session fails
type JoinErrorMsg struct {
	err error
}

// drives countdowns and the sharing status line
type TickMsg struct{}
