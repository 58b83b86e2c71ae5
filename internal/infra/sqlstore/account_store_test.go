package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"quiznufi-service/internal/domain"
)

func openTestDB(t *testing.T) *AccountStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "accounts.db") + "?mode=rwc"
	db, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewAccountStore(db)
}

func TestAccountStoreCreateAndLookup(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	account := domain.Account{ID: "u1", Email: "Ama@Example.com", Username: "ama"}
	if err := store.CreateAccount(ctx, account, []byte("hash")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, hash, err := store.AccountByEmail(ctx, "ama@example.COM")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != "u1" || got.Username != "ama" || string(hash) != "hash" {
		t.Fatalf("unexpected account %+v hash=%q", got, hash)
	}

	if err := store.CreateAccount(ctx, domain.Account{ID: "u2", Email: "ama@example.com"}, []byte("x")); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountStoreProfileAndDelete(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	if err := store.CreateAccount(ctx, domain.Account{ID: "u1", Email: "kofi@example.com"}, []byte("h")); err != nil {
		t.Fatalf("create: %v", err)
	}
	profile, err := store.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Username != "" || profile.Email != "kofi@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := store.DeleteAccount(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteAccount(ctx, "u1"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound on second delete, got %v", err)
	}
	if _, err := store.Profile(ctx, "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
