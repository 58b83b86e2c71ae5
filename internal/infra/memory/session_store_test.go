package memory

import (
	"context"
	"testing"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Minute)
	runner := newRunner(t)

	store.Put(runner)
	if got, ok := store.Get(runner.ID()); !ok || got != runner {
		t.Fatalf("expected session present")
	}

	store.Delete(runner.ID())
	if _, ok := store.Get(runner.ID()); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreDropsIdleSessions(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Now()
	store.clock = func() time.Time { return now }

	runner := newRunner(t)
	store.Put(runner)
	now = now.Add(2 * time.Minute)

	if _, ok := store.Get(runner.ID()); ok {
		t.Fatalf("expected idle session to expire")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestLeaderboardStoreOrdering(t *testing.T) {
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store := NewLeaderboardStoreWithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	ctx := context.Background()

	// B is stored before A, both at 80%.
	for _, e := range []domain.LeaderboardEntry{
		{UserID: "B", Percentage: 80},
		{UserID: "A", Percentage: 80},
		{UserID: "C", Percentage: 90},
	} {
		if _, err := store.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	top, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	got := []string{top[0].UserID, top[1].UserID, top[2].UserID}
	if got[0] != "C" || got[1] != "B" || got[2] != "A" {
		t.Fatalf("expected [C B A], got %v", got)
	}

	top, _ = store.Top(ctx, 2)
	if len(top) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(top))
	}
}

func TestAccountStoreProfiles(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()
	account := domain.Account{ID: "u1", Email: "a@b.com", Username: "X"}

	if err := store.CreateAccount(ctx, account, []byte("hash")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateAccount(ctx, domain.Account{ID: "u2", Email: "A@B.com"}, nil); err != domain.ErrAccountExists {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	profile, err := store.Profile(ctx, "u1")
	if err != nil || profile.Username != "X" {
		t.Fatalf("expected profile X, got %+v (%v)", profile, err)
	}
	if err := store.DeleteAccount(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Profile(ctx, "u1"); err != domain.ErrProfileNotFound {
		t.Fatalf("expected profile gone, got %v", err)
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
