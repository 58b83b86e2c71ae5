package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches question pools in Redis and falls back to a loader on cache miss.
// Pools are stored as:  SET quiz:pool:{area}:{difficulty}  <json array>
// Levels are stored as: SET quiz:levels:{area}             <json array>
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex // pool and level loads for different keys run concurrently
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := r.poolKey(filter)
	var pool []domain.Question
	if r.cached(ctx, key, &pool) {
		return pool, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var pool []domain.Question
		if r.cached(ctx, key, &pool) {
			return pool, nil
		}
		pool, err := r.loader.LoadQuestions(ctx, filter)
		if err != nil {
			return nil, err
		}
		r.store(ctx, key, pool)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (r *QuestionRepository) DifficultyLevels(ctx context.Context, area string) ([]int, error) {
	key := r.levelsKey(area)
	var levels []int
	if r.cached(ctx, key, &levels) {
		return levels, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		levels, err := r.loader.LoadDifficultyLevels(ctx, area)
		if err != nil {
			return nil, err
		}
		r.store(ctx, key, levels)
		return levels, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]int(nil), result.([]int)...), nil
}

// Invalidate drops the cached pool and level list of an area, e.g. after an import.
func (r *QuestionRepository) Invalidate(ctx context.Context, area string, difficulties ...int) error {
	keys := []string{r.levelsKey(area)}
	for _, d := range difficulties {
		keys = append(keys, r.poolKey(domain.QuestionFilter{Area: area, Difficulty: d}))
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, key string, dst interface{}) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// store is best-effort; a failed write only costs a reload.
func (r *QuestionRepository) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
}

func (r *QuestionRepository) poolKey(filter domain.QuestionFilter) string {
	return "quiz:pool:" + filter.Area + ":" + strconv.Itoa(filter.Difficulty)
}

func (r *QuestionRepository) levelsKey(area string) string {
	return "quiz:levels:" + area
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
