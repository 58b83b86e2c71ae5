package app

import (
	"context"
	"fmt"

	"quiznufi-service/internal/domain"
)

// DefaultLeaderboardLimit is the number of entries shown after a session.
const DefaultLeaderboardLimit = 10

// LeaderboardStore is the remote leaderboard collection. Insert always
// creates a new entry and assigns its id and timestamp. Top returns entries
// ordered by percentage desc, then timestamp asc.
type LeaderboardStore interface {
	Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// ProfileStore looks up the profile record of a participant.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (domain.Profile, error)
}

// LeaderboardClient persists finished results and reads the ranked view.
type LeaderboardClient struct {
	store    LeaderboardStore
	profiles ProfileStore
}

func NewLeaderboardClient(store LeaderboardStore, profiles ProfileStore) *LeaderboardClient {
	return &LeaderboardClient{store: store, profiles: profiles}
}

// DisplayName resolves the name stored with a result: the profile username,
// else the registered email, else "Anonymous".
func (c *LeaderboardClient) DisplayName(ctx context.Context, userID, email string) string {
	if c.profiles != nil && userID != "" {
		if profile, err := c.profiles.Profile(ctx, userID); err == nil && profile.Username != "" {
			return profile.Username
		}
	}
	if email != "" {
		return email
	}
	return domain.AnonymousName
}

// Submit inserts result as a new leaderboard entry. Guest results are
// rejected; callers are expected not to submit them at all.
func (c *LeaderboardClient) Submit(ctx context.Context, result domain.Result) (domain.LeaderboardEntry, error) {
	if !result.Eligible() {
		return domain.LeaderboardEntry{}, domain.ErrGuestResult
	}
	participant := result.Participant
	entry := domain.LeaderboardEntry{
		UserID:         participant.UserID,
		Username:       c.DisplayName(ctx, participant.UserID, participant.Email),
		Email:          participant.Email,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     domain.Percentage(result.Score, result.TotalQuestions),
	}
	stored, err := c.store.Insert(ctx, entry)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	return stored, nil
}

// TopEntries returns a ranked snapshot of at most limit entries. A limit
// below one falls back to DefaultLeaderboardLimit.
func (c *LeaderboardClient) TopEntries(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLeaderboardLimit
	}
	entries, err := c.store.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLeaderboardFetchFailed, err)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
