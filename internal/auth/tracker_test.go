package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiznufi-service/internal/domain"
)

func TestTrackerTransitions(t *testing.T) {
	tracker := NewTracker(newTestService())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := tracker.Observe(ctx)

	if !tracker.Identity().Guest {
		t.Fatalf("expected guest identity before sign-in")
	}

	session, err := tracker.Register(ctx, "a@b.com", "pw", "x")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	expectEvent(t, events, SignedIn)
	if id := tracker.Identity(); id.Guest || id.UserID != session.Account.ID {
		t.Fatalf("expected signed-in identity, got %+v", id)
	}

	if _, err := tracker.Register(ctx, "c@d.com", "pw", "y"); !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected register while signed in to fail, got %v", err)
	}

	tracker.Logout()
	expectEvent(t, events, SignedOut)

	if _, err := tracker.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	expectEvent(t, events, SignedIn)

	tracker.ContinueAsGuest()
	expectEvent(t, events, SignedOut)
	if !tracker.Guest() || !tracker.Identity().Guest {
		t.Fatalf("expected guest mode")
	}
}

func TestTrackerObserveClosesOnCancel(t *testing.T) {
	tracker := NewTracker(newTestService())
	ctx, cancel := context.WithCancel(context.Background())
	events := tracker.Observe(ctx)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected no event")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected channel closed after cancel")
	}
}

func expectEvent(t *testing.T, events <-chan Event, kind EventKind) {
	t.Helper()
	select {
	case ev := <-events:
		if ev.Kind != kind {
			t.Fatalf("expected %s, got %s", kind, ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", kind)
	}
}
