package app

import (
	"context"
	"fmt"
	"time"

	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/logger"
)

// QuestionRepository serves question pools filtered by difficulty and area.
type QuestionRepository interface {
	Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	DifficultyLevels(ctx context.Context, area string) ([]int, error)
}

// SessionRepository keeps running sessions addressable by id (in-memory, Redis, etc).
type SessionRepository interface {
	Put(runner *Runner)
	Get(id string) (*Runner, bool)
	Delete(id string)
}

// Options configure a QuizService. Zero values fall back to defaults.
type Options struct {
	LeaderboardLimit int
	Runner           RunnerOptions
	Logger           logger.Logger
	Metrics          Metrics
	Rand             Rand
	Now              func() time.Time
}

// QuizService contains the quiz use cases: starting sessions from the
// question repository and finishing them against the leaderboard.
type QuizService struct {
	questions   QuestionRepository
	leaderboard *LeaderboardClient
	sessions    SessionRepository

	limit      int
	runnerOpts RunnerOptions
	log        logger.Logger
	metrics    Metrics
	rnd        Rand
	now        func() time.Time
}

func NewQuizService(questions QuestionRepository, leaderboard *LeaderboardClient, sessions SessionRepository, opts Options) *QuizService {
	if opts.LeaderboardLimit < 1 {
		opts.LeaderboardLimit = DefaultLeaderboardLimit
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("quiz")
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	if opts.Rand == nil {
		opts.Rand = newLockedRand()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Runner.Metrics = opts.Metrics
	return &QuizService{
		questions:   questions,
		leaderboard: leaderboard,
		sessions:    sessions,
		limit:       opts.LeaderboardLimit,
		runnerOpts:  opts.Runner,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		rnd:         opts.Rand,
		now:         opts.Now,
	}
}

// DifficultyLevels lists the difficulty levels available for an area.
func (s *QuizService) DifficultyLevels(ctx context.Context, area string) ([]int, error) {
	levels, err := s.questions.DifficultyLevels(ctx, area)
	if err != nil {
		s.log.Warn(ctx, "difficulty levels unavailable", logger.String("area", area), logger.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	return levels, nil
}

// StartSession fetches the pool for cfg and creates a registered runner for
// identity. The caller arms it with Runner.Begin. A repository failure
// creates nothing and is reported as ErrRepositoryUnavailable.
func (s *QuizService) StartSession(ctx context.Context, identity domain.Identity, cfg domain.SessionConfig, presenter Presenter) (*Runner, *domain.Notice, error) {
	started := s.now()
	pool, err := s.questions.Questions(ctx, cfg.Filter())
	s.metrics.PoolFetched(s.now().Sub(started), err)
	if err != nil {
		s.log.Warn(ctx, "question pool unavailable", logger.String("filter", cfg.Filter().String()), logger.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}

	_, invalid := ValidQuestions(pool)
	for _, err := range invalid {
		s.log.Warn(ctx, "skipping malformed question", logger.String("filter", cfg.Filter().String()), logger.Error(err))
	}

	session, notice, err := Start(pool, cfg, WithIdentity(identity), WithRand(s.rnd), WithClock(s.now))
	if err != nil {
		return nil, nil, err
	}

	runner := NewRunner(session, presenter, s.Finish, s.runnerOpts)
	s.sessions.Put(runner)
	s.metrics.SessionStarted(cfg.Area)
	s.log.Info(ctx, "session started",
		logger.String("session", session.ID()),
		logger.String("filter", cfg.Filter().String()),
		logger.Int("questions", session.Total()),
		logger.Any("guest", identity.Guest),
	)
	return runner, notice, nil
}

// Session returns a running session by id.
func (s *QuizService) Session(id string) (*Runner, error) {
	runner, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return runner, nil
}

// EndSession stops a session's timers and forgets it.
func (s *QuizService) EndSession(id string) {
	if runner, ok := s.sessions.Get(id); ok {
		runner.Stop()
	}
	s.sessions.Delete(id)
}

// Finish submits a non-guest result and fetches the leaderboard. Failures
// become notices; the local result is always part of the summary.
func (s *QuizService) Finish(ctx context.Context, result domain.Result) domain.Summary {
	summary := domain.Summary{Result: result}
	s.metrics.SessionCompleted(result.Percentage)

	if result.Eligible() {
		if _, err := s.leaderboard.Submit(ctx, result); err != nil {
			s.metrics.SubmissionFailed()
			s.log.Warn(ctx, "score submission failed", logger.String("session", result.SessionID), logger.Error(err))
			summary.Notices = append(summary.Notices, domain.Notice{Kind: domain.NoticeSubmissionFailed, Message: err.Error()})
		} else {
			summary.Submitted = true
		}
	} else {
		s.log.Debug(ctx, "guest result kept local", logger.String("session", result.SessionID))
	}

	entries, err := s.leaderboard.TopEntries(ctx, s.limit)
	if err != nil {
		s.metrics.LeaderboardFetchFailed()
		s.log.Warn(ctx, "leaderboard fetch failed", logger.Error(err))
		summary.Notices = append(summary.Notices, domain.Notice{Kind: domain.NoticeLeaderboardFetchFailed, Message: err.Error()})
		return summary
	}
	summary.Leaderboard = entries
	return summary
}

// Leaderboard returns the top entries for display outside a session.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard.TopEntries(ctx, limit)
}
