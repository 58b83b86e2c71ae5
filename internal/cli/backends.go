package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/auth"
	"quiznufi-service/internal/config"
	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/importer"
	"quiznufi-service/internal/infra/memory"
	"quiznufi-service/internal/infra/postgres"
	infraredis "quiznufi-service/internal/infra/redis"
	"quiznufi-service/internal/infra/sqlstore"
	"quiznufi-service/internal/logger"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// questionSource is both the loader behind the cache and the import target.
type questionSource interface {
	memory.QuestionLoader
	importer.QuestionWriter
}

type accountStore interface {
	auth.AccountStore
	app.ProfileStore
}

// backends holds the storage picked from configuration:
//   - postgres.url set: questions and leaderboard in Postgres (migrated on open)
//   - redis.addr set: question cache and live-session markers in Redis, and
//     the leaderboard too when Postgres is absent
//   - otherwise everything in memory, seeded with a sample bank
//
// Accounts follow auth.driver: memory, sqlite or postgres.
type backends struct {
	questions   questionSource
	repository  app.QuestionRepository
	leaderboard app.LeaderboardStore
	accounts    accountStore
	sessions    app.SessionRepository

	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	log := logger.Named("backends")
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 30*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 5*time.Minute)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.questions = postgres.NewQuestionStore(pool)
		b.leaderboard = postgres.NewLeaderboardStore(pool)
		log.Info(ctx, "using postgres for questions and leaderboard")
	} else {
		b.questions = memory.NewQuestionBank(sampleQuestions()...)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		b.repository = infraredis.NewQuestionRepository(redisClient, b.questions, redisTTL)
		b.sessions = infraredis.NewSessionStore(redisClient, quizTTL)
		if b.leaderboard == nil {
			b.leaderboard = infraredis.NewLeaderboardStore(redisClient)
			log.Info(ctx, "using redis for the leaderboard")
		}
	} else {
		b.repository = memory.NewQuestionRepository(b.questions, redisTTL)
		b.sessions = memory.NewSessionStore(quizTTL)
	}
	if b.leaderboard == nil {
		b.leaderboard = memory.NewLeaderboardStore()
		log.Warn(ctx, "leaderboard kept in memory; results are lost on restart")
	}

	accounts, err := openAccounts(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.accounts = accounts.store
	if accounts.db != nil {
		b.closers = append(b.closers, func() { _ = accounts.db.Close() })
	}
	return b, nil
}

type openedAccounts struct {
	store accountStore
	db    *sql.DB
}

func openAccounts(ctx context.Context, cfg config.Config) (openedAccounts, error) {
	switch cfg.Auth.Driver {
	case "", "memory":
		return openedAccounts{store: memory.NewAccountStore()}, nil
	case string(sqlstore.DriverSQLite), string(sqlstore.DriverPostgres):
		dsn := cfg.Auth.DSN
		if dsn == "" && cfg.Auth.Driver == string(sqlstore.DriverPostgres) {
			dsn = cfg.Postgres.URL
		}
		db, err := sqlstore.Open(ctx, sqlstore.Driver(cfg.Auth.Driver), dsn)
		if err != nil {
			return openedAccounts{}, fmt.Errorf("open account store: %w", err)
		}
		return openedAccounts{store: sqlstore.NewAccountStore(db), db: db}, nil
	default:
		return openedAccounts{}, fmt.Errorf("unsupported auth driver: %s", cfg.Auth.Driver)
	}
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// services builds the quiz and auth services on top of the backends.
func (b *backends) services(cfg config.Config, m app.Metrics) (*app.QuizService, *auth.Service) {
	leaderboard := app.NewLeaderboardClient(b.leaderboard, b.accounts)
	quiz := app.NewQuizService(b.repository, leaderboard, b.sessions, app.Options{
		LeaderboardLimit: cfg.Quiz.LeaderboardLimit,
		Metrics:          m,
		Runner: app.RunnerOptions{
			TickInterval:     config.TTLDuration(cfg.Quiz.TickInterval, app.DefaultTickInterval),
			AutoAdvanceDelay: config.TTLDuration(cfg.Quiz.AutoAdvanceDelay, app.DefaultAutoAdvanceDelay),
		},
	})
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	return quiz, auth.NewService(b.accounts, tokens)
}

func defaultSessionConfig(cfg config.Config) domain.SessionConfig {
	return domain.SessionConfig{
		Area:          cfg.Quiz.DefaultArea,
		Difficulty:    cfg.Quiz.DefaultDifficulty,
		QuestionCount: cfg.Quiz.DefaultCount,
	}
}

// sampleQuestions seeds the in-memory bank; import a real bank with the
// import command against Postgres in production.
func sampleQuestions() []domain.Question {
	q := func(prompt, correct string, options ...string) domain.Question {
		return domain.Question{Prompt: prompt, Correct: correct, Options: options, Time: 15, Difficulty: 1, Area: "Yahlēh"}
	}
	return []domain.Question{
		q("Que signifie « Lū' » ?", "la marmite", "la marmite", "le couteau", "la cuillère", "le panier"),
		q("Que signifie « Wúzɑ̄ » ?", "le couteau", "la cuillère", "le couteau", "la chaise"),
		q("Que signifie « Mfɑ̀' » ?", "la cuillère", "le panier", "la marmite", "la cuillère"),
		q("Que signifie « Kā' » ?", "le panier", "le panier", "la chaise"),
		q("Que signifie « Ndhī » ?", "l'eau", "le feu", "l'eau", "la terre", "le vent"),
	}
}
