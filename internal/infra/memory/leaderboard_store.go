package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/google/uuid"
)

// LeaderboardStore is an append-only in-memory leaderboard.
type LeaderboardStore struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{clock: time.Now}
}

// NewLeaderboardStoreWithClock is test-only for deterministic timestamps.
func NewLeaderboardStoreWithClock(now func() time.Time) *LeaderboardStore {
	return &LeaderboardStore{clock: now}
}

func (s *LeaderboardStore) Insert(_ context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.Rank = 0
	entry.Timestamp = s.clock().UTC()
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *LeaderboardStore) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]domain.LeaderboardEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Ranks(entries[j])
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
