package redis

import (
	"testing"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	runner := newRunner(t)

	store.Put(runner)
	if !mr.Exists("quiz:session:" + runner.ID()) {
		t.Fatalf("expected redis key to be set")
	}
	if _, ok := store.Get(runner.ID()); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete(runner.ID())
	if mr.Exists("quiz:session:" + runner.ID()) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreDropsExpiredSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	runner := newRunner(t)
	store.Put(runner)

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get(runner.ID()); ok {
		t.Fatalf("expected expired session to be dropped")
	}
}

func newRunner(t *testing.T) *app.Runner {
	t.Helper()
	session, _, err := app.Start(sampleQuestions()[:2], domain.SessionConfig{QuestionCount: 2})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return app.NewRunner(session, nil, nil, app.RunnerOptions{})
}
