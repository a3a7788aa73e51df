package reconcile

import (
	"context"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

// Store is the cache persistence surface the engine reconciles against.
// Every method is a single-row or single-query primitive; the merge rules
// live in the engine so both the Postgres and in-memory stores stay dumb.
//
// Get* methods return (nil, nil) when the row does not exist.
type Store interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	InsertUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	GetUserByToken(ctx context.Context, token string) (*domain.User, error)

	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	InsertAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
	// ListAccountsByUser orders by name ascending, then id ascending so
	// unnamed accounts still come back in a stable order.
	ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)

	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)
	InsertBalance(ctx context.Context, balance *domain.Balance) error
	UpdateBalance(ctx context.Context, balance *domain.Balance) error

	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactionIDs(ctx context.Context, accountID string) ([]string, error)
	// ListTransactions orders by date descending, then cached_at
	// descending, so same-day rows surface most-recently-refreshed first.
	ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
}
