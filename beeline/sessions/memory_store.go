package sessions

import (
	"context"
	"sync"
)

// in-memory store implementation for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	records  map[string]map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		records:  make(map[string]map[string]*Record),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.Code]; exists {
		return ErrCodeTaken
	}

	copied := *session
	s.sessions[session.Code] = &copied
	s.records[session.Code] = make(map[string]*Record)

	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, code string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[code]
	if !exists {
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, code)
	delete(s.records, code)

	return nil
}

func (s *MemoryStore) ListCodes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.sessions))

	for code := range s.sessions {
		codes = append(codes, code)
	}

	return codes, nil
}

func (s *MemoryStore) PutRecord(_ context.Context, code string, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[code]; !exists {
		return ErrSessionNotFound
	}

	copied := *record
	s.records[code][record.ID] = &copied

	return nil
}

func (s *MemoryStore) GetRecord(_ context.Context, code, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionRecords, exists := s.records[code]
	if !exists {
		return nil, ErrSessionNotFound
	}

	record, exists := sessionRecords[id]
	if !exists {
		return nil, ErrRecordNotFound
	}

	copied := *record
	return &copied, nil
}

func (s *MemoryStore) ListRecords(_ context.Context, code string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionRecords, exists := s.records[code]
	if !exists {
		return nil, ErrSessionNotFound
	}

	records := make([]*Record, 0, len(sessionRecords))

	for _, record := range sessionRecords {
		copied := *record
		records = append(records, &copied)
	}

	return records, nil
}

func (s *MemoryStore) DeleteRecord(_ context.Context, code, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionRecords, exists := s.records[code]; exists {
		delete(sessionRecords, id)
	}

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
