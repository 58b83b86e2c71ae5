package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"quiznufi-service/internal/domain"
)

// AccountStore implements the account and profile lookups on a users table.
// Emails are stored lower-cased so lookups are case-insensitive.
type AccountStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db, now: time.Now}
}

func (s *AccountStore) CreateAccount(ctx context.Context, account domain.Account, passwordHash []byte) error {
	email := strings.ToLower(account.Email)
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, email).Scan(&exists)
	switch {
	case err == nil:
		return domain.ErrAccountExists
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id,email,username,password_hash,created_at) VALUES ($1,$2,$3,$4,$5)`,
		account.ID, email, account.Username, string(passwordHash), s.now().Unix())
	if err != nil && isUniqueViolation(err) {
		return domain.ErrAccountExists
	}
	return err
}

func (s *AccountStore) AccountByEmail(ctx context.Context, email string) (domain.Account, []byte, error) {
	var (
		account domain.Account
		hash    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id,email,username,password_hash FROM users WHERE email=$1`, strings.ToLower(email),
	).Scan(&account.ID, &account.Email, &account.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, nil, err
	}
	return account, []byte(hash), nil
}

func (s *AccountStore) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Profile implements app.ProfileStore.
func (s *AccountStore) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	profile := domain.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT username,email FROM users WHERE id=$1`, userID,
	).Scan(&profile.Username, &profile.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
