package memory

import (
	"sync"
	"time"

	"quiznufi-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions untouched for longer than ttl are stopped and dropped on access.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*storedSession
}

type storedSession struct {
	runner   *app.Runner
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*storedSession),
	}
}

func (s *SessionStore) Put(runner *app.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[runner.ID()] = &storedSession{runner: runner, lastSeen: s.clock()}
}

func (s *SessionStore) Get(id string) (*app.Runner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	stored, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	stored.lastSeen = s.clock()
	return stored.runner, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.clock().Add(-s.ttl)
	for id, stored := range s.sessions {
		if stored.lastSeen.Before(cutoff) {
			stored.runner.Stop()
			delete(s.sessions, id)
		}
	}
}
