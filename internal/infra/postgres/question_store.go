package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quiznufi-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore loads question pools from Postgres and upserts imported
// questions. Options are kept as a JSONB array.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, options, correct, time, difficulty_level, quiz_area
		FROM questions
		WHERE difficulty_level=$1 AND quiz_area=$2
		ORDER BY id`, filter.Difficulty, filter.Area)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &raw, &q.Correct, &q.Time, &q.Difficulty, &q.Area); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *QuestionStore) LoadDifficultyLevels(ctx context.Context, area string) ([]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT difficulty_level FROM questions
		WHERE quiz_area=$1
		ORDER BY difficulty_level`, area)
	if err != nil {
		return nil, fmt.Errorf("load difficulty levels: %w", err)
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var level int
		if err := rows.Scan(&level); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// UpsertQuestion inserts q or replaces the row with the same prompt.
func (s *QuestionStore) UpsertQuestion(ctx context.Context, q domain.Question) (bool, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return false, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	var inserted bool
	err = s.pool.QueryRow(ctx, `
		INSERT INTO questions (id, question, options, correct, time, difficulty_level, quiz_area)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)
		ON CONFLICT (question) DO UPDATE SET
			options=EXCLUDED.options,
			correct=EXCLUDED.correct,
			time=EXCLUDED.time,
			difficulty_level=EXCLUDED.difficulty_level,
			quiz_area=EXCLUDED.quiz_area
		RETURNING (xmax = 0)`,
		q.ID, q.Prompt, string(options), q.Correct, q.Time, q.Difficulty, q.Area,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert question: %w", err)
	}
	return inserted, nil
}
