package postgres

import (
	"context"
	"fmt"

	"quiznufi-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// LeaderboardStore is the leaderboard collection in Postgres. The insert
// timestamp comes from the database clock.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	entry.ID = uuid.NewString()
	entry.Rank = 0
	err := s.pool.QueryRow(ctx, `
		INSERT INTO leaderboard (id, uid, username, email, score, total_questions, percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		entry.ID, entry.UserID, entry.Username, entry.Email, entry.Score, entry.TotalQuestions, entry.Percentage,
	).Scan(&entry.Timestamp)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, uid, username, email, score, total_questions, percentage, created_at
		FROM leaderboard
		ORDER BY percentage DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Email, &e.Score, &e.TotalQuestions, &e.Percentage, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
