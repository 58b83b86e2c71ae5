// Package auth is the account provider: registration, password login,
// session tokens and guest mode.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore persists accounts with their password hash. The account id
// doubles as the profile key.
type AccountStore interface {
	CreateAccount(ctx context.Context, account domain.Account, passwordHash []byte) error
	AccountByEmail(ctx context.Context, email string) (domain.Account, []byte, error)
	DeleteAccount(ctx context.Context, id string) error
}

// Session is a signed-in account and its bearer token.
type Session struct {
	Account domain.Account `json:"account"`
	Token   string         `json:"token"`
}

type Service struct {
	store  AccountStore
	tokens *TokenIssuer
	cost   int
	log    logger.Logger
}

func NewService(store AccountStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, cost: bcrypt.DefaultCost, log: logger.Named("auth")}
}

// Register creates an account. Email, password and display name are required.
func (s *Service) Register(ctx context.Context, email, password, username string) (Session, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	switch {
	case email == "" || password == "" || username == "":
		return Session{}, fmt.Errorf("%w: email, password and username are required", domain.ErrAuthFailed)
	case !strings.Contains(email, "@"):
		return Session{}, fmt.Errorf("%w: invalid email %q", domain.ErrAuthFailed, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	account := domain.Account{ID: uuid.NewString(), Email: email, Username: username}
	if err := s.store.CreateAccount(ctx, account, hash); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return Session{}, fmt.Errorf("%w: email already in use", domain.ErrAuthFailed)
		}
		return Session{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	s.log.Info(ctx, "account registered", logger.String("uid", account.ID))
	return s.session(account)
}

// Login verifies the password for email.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, hash, err := s.store.AccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrAuthFailed)
		}
		return Session{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrAuthFailed)
	}
	return s.session(account)
}

// Verify resolves a bearer token to the identity it was issued for.
func (s *Service) Verify(token string) (domain.Identity, error) {
	account, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return account.Identity(), nil
}

// DeletionReport is the per-email outcome of DeleteUsersByEmail.
type DeletionReport struct {
	Email   string
	Deleted bool
	Err     error
}

// DeleteUsersByEmail removes each account; failures are reported per email
// and do not stop the batch.
func (s *Service) DeleteUsersByEmail(ctx context.Context, emails []string) []DeletionReport {
	reports := make([]DeletionReport, 0, len(emails))
	for _, email := range emails {
		report := DeletionReport{Email: email}
		account, _, err := s.store.AccountByEmail(ctx, email)
		if err == nil {
			err = s.store.DeleteAccount(ctx, account.ID)
		}
		if err != nil {
			report.Err = err
			s.log.Warn(ctx, "account not deleted", logger.String("email", email), logger.Error(err))
		} else {
			report.Deleted = true
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *Service) session(account domain.Account) (Session, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return Session{}, fmt.Errorf("%w: issue token: %v", domain.ErrAuthFailed, err)
	}
	return Session{Account: account, Token: token}, nil
}
