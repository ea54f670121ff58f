package memory

import (
	"context"
	"sync"

	"explainit-service/internal/domain"
)

// AccountStore keeps accounts in memory keyed by normalized email.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]domain.Account)}
}

func (s *AccountStore) Create(_ context.Context, account domain.Account) error {
	key := domain.NormalizeEmail(account.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return domain.ErrEmailTaken
	}
	s.accounts[key] = account
	return nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[domain.NormalizeEmail(email)]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) Update(_ context.Context, account domain.Account) error {
	key := domain.NormalizeEmail(account.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; !ok {
		return domain.ErrAccountNotFound
	}
	s.accounts[key] = account
	return nil
}
