package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiznufi-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches questions from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	LoadDifficultyLevels(ctx context.Context, area string) ([]int, error)
}

// QuestionRepository caches question pools and difficulty lists with TTL
// to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu     sync.RWMutex
	pools  map[string]cachedPool
	levels map[string]cachedLevels
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

type cachedLevels struct {
	levels    []int
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		pools:  make(map[string]cachedPool),
		levels: make(map[string]cachedLevels),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := filter.String()
	if pool, ok := r.cachedPool(key); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do("pool:"+key, func() (interface{}, error) {
		if pool, ok := r.cachedPool(key); ok {
			return pool, nil
		}
		pool, err := r.loader.LoadQuestions(ctx, filter)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.pools[key] = cachedPool{questions: pool, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePool(result.([]domain.Question)), nil
}

func (r *QuestionRepository) DifficultyLevels(ctx context.Context, area string) ([]int, error) {
	now := r.clock()
	r.mu.RLock()
	if entry, ok := r.levels[area]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return append([]int(nil), entry.levels...), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("levels:"+area, func() (interface{}, error) {
		levels, err := r.loader.LoadDifficultyLevels(ctx, area)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.levels[area] = cachedLevels{levels: levels, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return levels, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]int(nil), result.([]int)...), nil
}

func (r *QuestionRepository) cachedPool(key string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.pools[key]; ok && entry.expiresAt.After(now) {
		return clonePool(entry.questions), true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func clonePool(pool []domain.Question) []domain.Question {
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	return out
}

// QuestionBank is an in-memory question collection (useful for tests/demos
// and as the import target when no database is configured).
type QuestionBank struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewQuestionBank(questions ...domain.Question) *QuestionBank {
	return &QuestionBank{questions: append([]domain.Question(nil), questions...)}
}

func (b *QuestionBank) LoadQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []domain.Question
	for _, q := range b.questions {
		if q.Difficulty == filter.Difficulty && q.Area == filter.Area {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *QuestionBank) LoadDifficultyLevels(_ context.Context, area string) ([]int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[int]struct{})
	var levels []int
	for _, q := range b.questions {
		if q.Area != area {
			continue
		}
		if _, ok := seen[q.Difficulty]; ok {
			continue
		}
		seen[q.Difficulty] = struct{}{}
		levels = append(levels, q.Difficulty)
	}
	sort.Ints(levels)
	return levels, nil
}

// UpsertQuestion replaces a question with the same prompt or appends it.
func (b *QuestionBank) UpsertQuestion(_ context.Context, q domain.Question) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.questions {
		if b.questions[i].Prompt == q.Prompt {
			if q.ID == "" {
				q.ID = b.questions[i].ID
			}
			b.questions[i] = q
			return false, nil
		}
	}
	b.questions = append(b.questions, q)
	return true, nil
}

// Len reports how many questions the bank holds.
func (b *QuestionBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}
