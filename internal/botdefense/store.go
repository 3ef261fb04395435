package botdefense

import (
	"context"
	"sync"
	"time"
)

// why an IP got trapped
type TrapReason string

const (
	ReasonHoneypot   TrapReason = "honeypot"
	ReasonBotPattern TrapReason = "bot_pattern"
	ReasonRateLimit  TrapReason = "rate_limit"
)

type trapEntry struct {
	reason TrapReason
	until  time.Time
}

type rateEntry struct {
	count       int64
	windowStart time.Time
}

// in-memory trap and rate state, pruned by a background cleaner
type Store struct {
	config *Config

	mu      sync.Mutex
	trapped map[string]trapEntry
	rates   map[string]rateEntry
}

func NewStore(config *Config) *Store {
	return &Store{
		config:  config,
		trapped: make(map[string]trapEntry),
		rates:   make(map[string]rateEntry),
	}
}

// marks an IP as trapped for the configured TTL
func (s *Store) TrapIP(ctx context.Context, ip string, reason TrapReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trapped[ip] = trapEntry{
		reason: reason,
		until:  time.Now().Add(s.config.TrapTTL),
	}

	return nil
}

// reports whether an IP is currently trapped
func (s *Store) IsTrapped(ctx context.Context, ip string) (bool, TrapReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.trapped[ip]
	if !ok {
		return false, "", nil
	}

	if time.Now().After(entry.until) {
		delete(s.trapped, ip)
		return false, "", nil
	}

	return true, entry.reason, nil
}

// bumps the IP's request count for the current window and returns it
func (s *Store) IncrementRate(ctx context.Context, ip string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry := s.rates[ip]

	if now.Sub(entry.windowStart) > s.config.RateLimitWindow {
		entry = rateEntry{windowStart: now}
	}

	entry.count++
	s.rates[ip] = entry

	return entry.count, nil
}

// drops expired traps and stale rate windows
func (s *Store) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for ip, entry := range s.trapped {
		if now.After(entry.until) {
			delete(s.trapped, ip)
		}
	}

	for ip, entry := range s.rates {
		if now.Sub(entry.windowStart) > s.config.RateLimitWindow {
			delete(s.rates, ip)
		}
	}
}

// StartCleaner prunes the store periodically until ctx is cancelled
func (s *Store) StartCleaner(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune()
			}
		}
	}()
}
