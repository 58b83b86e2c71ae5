package redis

import (
	"context"
	"testing"
	"time"

	"quiznufi-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLeaderboardStoreOrdersByPercentageThenTime(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr))
	ctx := context.Background()
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	for i, e := range []domain.LeaderboardEntry{
		{UserID: "B", Username: "bea", Score: 4, TotalQuestions: 5, Percentage: 80},
		{UserID: "A", Username: "ama", Score: 8, TotalQuestions: 10, Percentage: 80},
		{UserID: "C", Email: "c@example.com", Score: 9, TotalQuestions: 10, Percentage: 90},
	} {
		mr.SetTime(base.Add(time.Duration(i) * time.Second))
		stored, err := store.Insert(ctx, e)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if stored.ID == "" || stored.Timestamp.IsZero() {
			t.Fatalf("expected id and timestamp assigned, got %+v", stored)
		}
	}

	top, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].UserID != "C" || top[1].UserID != "B" || top[2].UserID != "A" {
		t.Fatalf("expected [C B A], got [%s %s %s]", top[0].UserID, top[1].UserID, top[2].UserID)
	}
	if top[0].Name() != "c@example.com" {
		t.Fatalf("expected email fallback, got %q", top[0].Name())
	}

	top, _ = store.Top(ctx, 1)
	if len(top) != 1 || top[0].UserID != "C" {
		t.Fatalf("expected limit 1 to return C, got %+v", top)
	}
}

func TestLeaderboardStoreEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	top, err := NewLeaderboardStore(newClient(mr)).Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty leaderboard, got %d", len(top))
	}
}
