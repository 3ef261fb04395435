package location

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	// how often the simulated source emits a fix
	defaultFixInterval = 2 * time.Second

	// maximum drift per step, roughly ten meters at the equator
	defaultStepDegrees = 0.0001
)

// Simulated emits a bounded random walk around a base coordinate.
// Useful for demos and tests where no real position source exists.
type Simulated struct {
	mu       sync.Mutex
	lat      float64
	lng      float64
	baseLat  float64
	baseLng  float64
	step     float64
	interval time.Duration
	rng      *rand.Rand
}

func NewSimulated(lat, lng float64) *Simulated {
	return &Simulated{
		lat:      lat,
		lng:      lng,
		baseLat:  lat,
		baseLng:  lng,
		step:     defaultStepDegrees,
		interval: defaultFixInterval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation, not crypto
	}
}

// overrides the emit interval, mainly for tests
func (s *Simulated) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
}

func (s *Simulated) Current(_ context.Context) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advanceLocked()

	return Position{
		Lat:       s.lat,
		Lng:       s.lng,
		Timestamp: time.Now(),
	}, nil
}

func (s *Simulated) Watch(onFix func(Position), _ func(error)) (stop func()) {
	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()

	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pos, _ := s.Current(context.Background())
				onFix(pos)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
		})
	}
}

// must be called with s.mu held; drifts the position and pulls it back
// toward the base so the walk stays bounded
func (s *Simulated) advanceLocked() {
	s.lat += (s.rng.Float64()*2 - 1) * s.step
	s.lng += (s.rng.Float64()*2 - 1) * s.step

	s.lat += (s.baseLat - s.lat) * 0.01
	s.lng += (s.baseLng - s.lng) * 0.01

	if s.lat > 90 {
		s.lat = 90
	}
	if s.lat < -90 {
		s.lat = -90
	}
	if s.lng > 180 {
		s.lng = 180
	}
	if s.lng < -180 {
		s.lng = -180
	}
}
