// Package memrepo is an in-process cache store. It backs the service when
// no database is configured (the local-dev fallback, standing in for the
// original deployment's file database) and gives tests a store with the
// exact ordering semantics of the Postgres implementation.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/reconcile"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

type memStore struct {
	users        map[string]domain.User
	accounts     map[string]domain.Account
	balances     map[string]domain.Balance
	transactions map[string]domain.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]domain.User),
		accounts:     make(map[string]domain.Account),
		balances:     make(map[string]domain.Balance),
		transactions: make(map[string]domain.Transaction),
	}
}

func (s *memStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s *memStore) InsertUser(ctx context.Context, user *domain.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) UpdateUser(ctx context.Context, user *domain.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	for _, user := range s.users {
		if user.AccessToken == token {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if account, ok := s.accounts[id]; ok {
		return &account, nil
	}
	return nil, nil
}

func (s *memStore) InsertAccount(ctx context.Context, account *domain.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *memStore) UpdateAccount(ctx context.Context, account *domain.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *memStore) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, account := range s.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (s *memStore) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	if balance, ok := s.balances[accountID]; ok {
		return &balance, nil
	}
	return nil, nil
}

func (s *memStore) InsertBalance(ctx context.Context, balance *domain.Balance) error {
	s.balances[balance.AccountID] = *balance
	return nil
}

func (s *memStore) UpdateBalance(ctx context.Context, balance *domain.Balance) error {
	s.balances[balance.AccountID] = *balance
	return nil
}

func (s *memStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if tx, ok := s.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (s *memStore) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *memStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *memStore) DeleteTransaction(ctx context.Context, id string) error {
	delete(s.transactions, id)
	return nil
}

func (s *memStore) ListTransactionIDs(ctx context.Context, accountID string) ([]string, error) {
	var ids []string
	for id, tx := range s.transactions {
		if tx.AccountID == accountID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			transactions = append(transactions, tx)
		}
	}
	// Date descending with null dates first, matching Postgres DESC
	// ordering, then cached_at descending, then id for determinism.
	sort.Slice(transactions, func(i, j int) bool {
		di, dj := transactions[i].Date, transactions[j].Date
		switch {
		case di == nil && dj != nil:
			return true
		case di != nil && dj == nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.After(*dj)
		}
		if !transactions[i].CachedAt.Equal(transactions[j].CachedAt) {
			return transactions[i].CachedAt.After(transactions[j].CachedAt)
		}
		return transactions[i].ID < transactions[j].ID
	})
	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions, nil
}

// Provider hands the single shared store to each unit of work under a
// mutex. There is no rollback: a failed call may leave earlier mutations
// applied, which is acceptable for the dev fallback this store exists for.
type Provider struct {
	mu    sync.Mutex
	store *memStore
}

func NewProvider() *Provider {
	return &Provider{store: newMemStore()}
}

func (p *Provider) Within(ctx context.Context, fn func(reconcile.Store) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.store)
}
