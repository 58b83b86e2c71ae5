// Package importer loads question banks from CSV or YAML files and upserts
// them into the question store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/logger"
)

const (
	DefaultWrongOptions = 3
	DefaultTime         = 15 // seconds
)

var ErrNotEnoughAnswers = errors.New("not enough distinct answers to generate wrong options")

// QuestionWriter stores a question, replacing any question with the same
// prompt. It reports whether a new question was inserted.
type QuestionWriter interface {
	UpsertQuestion(ctx context.Context, q domain.Question) (bool, error)
}

// CacheInvalidator drops cached pools and level lists for an area so the
// next session start sees imported questions.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, area string, difficulties ...int) error
}

// Options tune how raw rows become questions.
type Options struct {
	// WrongOptions is the number of wrong answers generated for rows that
	// carry no options of their own.
	WrongOptions int
	// PromptTemplate wraps each prompt, e.g. "Que signifie « %s » ?".
	PromptTemplate string
	// DefaultTime applies to rows without a time allotment.
	DefaultTime int
	Rand        *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.WrongOptions <= 0 {
		o.WrongOptions = DefaultWrongOptions
	}
	if o.DefaultTime <= 0 {
		o.DefaultTime = DefaultTime
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Stats summarizes an import.
type Stats struct {
	Inserted int
	Updated  int
}

// Build turns raw rows into validated questions: duplicate rows are
// dropped, the prompt template is applied and rows without options get the
// correct answer plus WrongOptions answers sampled from the other rows.
func Build(rows []domain.Question, opts Options) ([]domain.Question, error) {
	opts = opts.withDefaults()
	rows = dedupe(rows)

	answers := distinctAnswers(rows)
	out := make([]domain.Question, 0, len(rows))
	for i, q := range rows {
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.Correct = strings.TrimSpace(q.Correct)
		if opts.PromptTemplate != "" {
			q.Prompt = fmt.Sprintf(opts.PromptTemplate, q.Prompt)
		}
		if q.Time <= 0 {
			q.Time = opts.DefaultTime
		}
		if len(q.Options) == 0 {
			if opts.WrongOptions >= len(answers) {
				return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughAnswers, opts.WrongOptions, len(answers))
			}
			q.Options = generateOptions(q.Correct, answers, opts.WrongOptions, opts.Rand)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// generateOptions puts the correct answer first; the engine reshuffles
// options on every presentation.
func generateOptions(correct string, answers []string, n int, rnd *rand.Rand) []string {
	pool := make([]string, 0, len(answers))
	for _, a := range answers {
		if a != correct {
			pool = append(pool, a)
		}
	}
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return append([]string{correct}, pool[:n]...)
}

func distinctAnswers(rows []domain.Question) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, q := range rows {
		a := strings.TrimSpace(q.Correct)
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func dedupe(rows []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.Question, 0, len(rows))
	for _, q := range rows {
		key := fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00%s\x00%s", q.Prompt, q.Correct, q.Time, q.Difficulty, q.Area, strings.Join(q.Options, "\x01"))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

// Importer writes built questions to a QuestionWriter.
type Importer struct {
	writer QuestionWriter
	cache  CacheInvalidator
	log    logger.Logger
}

func New(writer QuestionWriter, log logger.Logger) *Importer {
	if log == nil {
		log = logger.Named("importer")
	}
	return &Importer{writer: writer, log: log}
}

// WithCache makes Import invalidate the cached pools it touched.
func (im *Importer) WithCache(cache CacheInvalidator) *Importer {
	im.cache = cache
	return im
}

// Import upserts questions by prompt and stops at the first store error.
// Pools touched by written questions are invalidated either way.
func (im *Importer) Import(ctx context.Context, questions []domain.Question) (Stats, error) {
	var stats Stats
	written := make([]domain.Question, 0, len(questions))
	defer func() { im.invalidate(ctx, written) }()

	for _, q := range questions {
		inserted, err := im.writer.UpsertQuestion(ctx, q)
		if err != nil {
			return stats, fmt.Errorf("import %q: %w", q.Prompt, err)
		}
		written = append(written, q)
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	im.log.Info(ctx, "questions imported", logger.Int("inserted", stats.Inserted), logger.Int("updated", stats.Updated))
	return stats, nil
}

// invalidate is best-effort: a stale cache still expires with its TTL.
func (im *Importer) invalidate(ctx context.Context, written []domain.Question) {
	if im.cache == nil {
		return
	}
	for area, difficulties := range TouchedPools(written) {
		if err := im.cache.Invalidate(ctx, area, difficulties...); err != nil {
			im.log.Warn(ctx, "question cache invalidation failed", logger.String("area", area), logger.Error(err))
		}
	}
}

// TouchedPools groups the difficulty levels of questions by area, sorted.
func TouchedPools(questions []domain.Question) map[string][]int {
	seen := make(map[string]map[int]struct{})
	for _, q := range questions {
		if seen[q.Area] == nil {
			seen[q.Area] = make(map[int]struct{})
		}
		seen[q.Area][q.Difficulty] = struct{}{}
	}
	out := make(map[string][]int, len(seen))
	for area, levels := range seen {
		for d := range levels {
			out[area] = append(out[area], d)
		}
		sort.Ints(out[area])
	}
	return out
}
