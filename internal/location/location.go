// Package location abstracts position sources so trackers can run
// against a real device feed or a simulated one.
package location

import (
	"context"
	"errors"
	"time"
)

var (
	// the position source refused access
	ErrPermissionDenied = errors.New("location permission denied")

	// no fix arrived within the source's timeout
	ErrTimeout = errors.New("location timed out")

	// the source has no position service at all
	ErrUnavailable = errors.New("location unavailable")
)

// Position is a single fix
type Position struct {
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// Locator produces positions. Current blocks for one fix; Watch
// streams fixes until the returned stop function is called.
type Locator interface {
	Current(ctx context.Context) (Position, error)
	Watch(onFix func(Position), onErr func(error)) (stop func())
}
