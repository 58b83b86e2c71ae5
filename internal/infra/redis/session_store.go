package redis

import (
	"context"
	"sync"
	"time"

	"quiznufi-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Runners hold live timers, so they stay in a local map.
//   - Redis marks session liveness with a TTL that is refreshed on access;
//     a session whose marker expired is stopped and dropped.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Runner
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Runner),
	}
}

func (s *SessionStore) Put(runner *app.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[runner.ID()] = runner
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(runner.ID()), "1", s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Runner, bool) {
	s.mu.RLock()
	runner, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ctx := context.Background()
	alive, err := s.client.Exists(ctx, s.key(id)).Result()
	if err == nil && alive == 0 {
		s.Delete(id)
		runner.Stop()
		return nil, false
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, s.key(id), s.ttl).Err()
	}
	return runner, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
