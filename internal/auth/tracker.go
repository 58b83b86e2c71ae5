package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quiznufi-service/internal/domain"
)

// Provider is the subset of Service a client-side Tracker needs.
type Provider interface {
	Register(ctx context.Context, email, password, username string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
}

var ErrAlreadySignedIn = errors.New("already signed in")

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is an auth state transition. Account is zero on SignedOut.
type Event struct {
	Kind    EventKind
	Account domain.Account
}

// Tracker holds the account a client is playing as.
type Tracker struct {
	provider Provider

	mu       sync.Mutex
	current  *Session
	guest    bool
	watchers map[chan Event]struct{}
}

func NewTracker(provider Provider) *Tracker {
	return &Tracker{provider: provider, watchers: make(map[chan Event]struct{})}
}

// Current returns the signed-in session, if any.
func (t *Tracker) Current() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Session{}, false
	}
	return *t.current, true
}

// Identity is the participant to start sessions with.
func (t *Tracker) Identity() domain.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.GuestIdentity()
	}
	return t.current.Account.Identity()
}

// Guest reports whether the user chose to play without an account.
func (t *Tracker) Guest() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.guest
}

// Register creates an account and signs it in. It is rejected while an
// account is signed in.
func (t *Tracker) Register(ctx context.Context, email, password, username string) (Session, error) {
	if _, ok := t.Current(); ok {
		return Session{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, ErrAlreadySignedIn)
	}
	session, err := t.provider.Register(ctx, email, password, username)
	if err != nil {
		return Session{}, err
	}
	t.signIn(session)
	return session, nil
}

func (t *Tracker) Login(ctx context.Context, email, password string) (Session, error) {
	session, err := t.provider.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	t.signIn(session)
	return session, nil
}

// ContinueAsGuest signs out any account and marks guest mode.
func (t *Tracker) ContinueAsGuest() {
	t.Logout()
	t.mu.Lock()
	t.guest = true
	t.mu.Unlock()
}

func (t *Tracker) Logout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return
	}
	t.current = nil
	t.broadcastLocked(Event{Kind: SignedOut})
}

// Observe streams auth transitions until ctx is done. Slow observers miss
// events rather than block the tracker.
func (t *Tracker) Observe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	t.mu.Lock()
	t.watchers[ch] = struct{}{}
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		delete(t.watchers, ch)
		close(ch)
		t.mu.Unlock()
	}()
	return ch
}

func (t *Tracker) signIn(session Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &session
	t.guest = false
	t.broadcastLocked(Event{Kind: SignedIn, Account: session.Account})
}

func (t *Tracker) broadcastLocked(ev Event) {
	for ch := range t.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
