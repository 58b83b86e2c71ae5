package memory

import (
	"context"
	"strings"
	"sync"

	"quiznufi-service/internal/domain"
)

// AccountStore keeps accounts and their profiles in memory.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]storedAccount // by id
	byEmail  map[string]string
}

type storedAccount struct {
	account domain.Account
	hash    []byte
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]storedAccount),
		byEmail:  make(map[string]string),
	}
}

func (s *AccountStore) CreateAccount(_ context.Context, account domain.Account, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Email)
	if _, ok := s.byEmail[key]; ok {
		return domain.ErrAccountExists
	}
	s.accounts[account.ID] = storedAccount{account: account, hash: passwordHash}
	s.byEmail[key] = account.ID
	return nil
}

func (s *AccountStore) AccountByEmail(_ context.Context, email string) (domain.Account, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.Account{}, nil, domain.ErrAccountNotFound
	}
	stored := s.accounts[id]
	return stored.account, stored.hash, nil
}

func (s *AccountStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.accounts, id)
	delete(s.byEmail, strings.ToLower(stored.account.Email))
	return nil
}

// Profile implements app.ProfileStore.
func (s *AccountStore) Profile(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.accounts[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return domain.Profile{UserID: userID, Username: stored.account.Username, Email: stored.account.Email}, nil
}
