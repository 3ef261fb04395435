package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/beeline/server/beeline/creator"
	"codeberg.org/beeline/server/beeline/tracker"
	"codeberg.org/beeline/server/internal/client"
	"codeberg.org/beeline/server/internal/location"
	"codeberg.org/beeline/server/internal/tui"
)

// simulated walk starts here unless BEELINE_LAT/BEELINE_LNG say
// otherwise
const (
	defaultLat = 51.5074
	defaultLng = -0.1278
)

func main() {
	apiEndpoint := os.Getenv("BEELINE_API_ENDPOINT")
	if apiEndpoint == "" {
		apiEndpoint = "http://localhost:8080"
	}

	wsEndpoint := os.Getenv("BEELINE_WS_ENDPOINT")
	if wsEndpoint == "" {
		wsEndpoint = "ws://localhost:8080/api/v1/ws"
	}

	token := os.Getenv("BEELINE_TOKEN")
	rest := client.NewRESTClient(apiEndpoint, token)

	controller := creator.NewController(rest, func(code string) creator.Feed {
		return client.NewWSClient(wsEndpoint, code, "creator", token, "")
	})

	locator := location.NewSimulated(envCoord("BEELINE_LAT", defaultLat), envCoord("BEELINE_LNG", defaultLng))

	tr := tracker.New(tracker.Config{
		Service: rest,
		Locator: locator,
	})

	app := tui.NewApp(controller, tr)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running beeline: %v\n", err)
		os.Exit(1)
	}

	tr.Stop()
	controller.Close()
}

func envCoord(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return value
}
