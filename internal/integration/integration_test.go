package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/infra/postgres"
	"quiznufi-service/internal/infra/postgres/migrations"
	infraredis "quiznufi-service/internal/infra/redis"
	"quiznufi-service/internal/infra/sqlstore"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	questions := postgres.NewQuestionStore(pool)
	for _, q := range sampleQuestions() {
		if _, err := questions.UpsertQuestion(ctx, q); err != nil {
			t.Fatalf("upsert question: %v", err)
		}
	}

	accountsDB, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open accounts: %v", err)
	}
	defer accountsDB.Close()
	accounts := sqlstore.NewAccountStore(accountsDB)
	account := domain.Account{ID: "u1", Email: "ama@example.com", Username: "ama"}
	if err := accounts.CreateAccount(ctx, account, []byte("hash")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	repo := infraredis.NewQuestionRepository(redisClient, questions, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	leaderboard := app.NewLeaderboardClient(postgres.NewLeaderboardStore(pool), accounts)
	service := app.NewQuizService(repo, leaderboard, sessions, app.Options{
		Runner: app.RunnerOptions{TickInterval: time.Hour},
	})

	levels, err := service.DifficultyLevels(ctx, "Yahlēh")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 1 || levels[0] != 1 {
		t.Fatalf("expected [1], got %v", levels)
	}

	runner, notice, err := service.StartSession(ctx, account.Identity(), domain.SessionConfig{QuestionCount: 2, Difficulty: 1, Area: "Yahlēh"}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if notice != nil {
		t.Fatalf("unexpected notice %+v", notice)
	}
	runner.Begin(ctx)
	defer runner.Stop()

	correct := map[string]string{}
	for _, q := range sampleQuestions() {
		correct[q.Prompt] = q.Correct
	}
	var summary *domain.Summary
	for summary == nil {
		state := runner.State()
		if _, err := runner.Answer(correct[state.Question.Prompt]); err != nil {
			t.Fatalf("answer: %v", err)
		}
		next, err := runner.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		summary = next.Summary
	}

	if !summary.Submitted || len(summary.Notices) != 0 {
		t.Fatalf("expected clean submission, got %+v", summary)
	}
	if len(summary.Leaderboard) != 1 {
		t.Fatalf("expected one leaderboard entry, got %+v", summary.Leaderboard)
	}
	if got := summary.Leaderboard[0].String(); got != "ama: 100.00% (2/2)" {
		t.Fatalf("unexpected leaderboard line %q", got)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiznufi", "POSTGRES_PASSWORD": "quiznufi", "POSTGRES_DB": "quiznufi"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiznufi:quiznufi@%s:%s/quiznufi?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "Comment appelle-t-on la cuillère ?", Options: []string{"Mfɑ̀'", "Wúzɑ̄", "Lū'"}, Correct: "Lū'", Time: 30, Difficulty: 1, Area: "Yahlēh"},
		{Prompt: "Pó ncēh wú ntám ...", Options: []string{"Kā'", "Cak", "Pú'ŋwɑ'ni"}, Correct: "Pú'ŋwɑ'ni", Time: 45, Difficulty: 1, Area: "Yahlēh"},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
