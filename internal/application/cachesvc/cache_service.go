package cachesvc

import (
	"context"
	"encoding/json"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/reconcile"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

// StoreProvider opens one transactional unit of work per call. The
// callback's store must not escape the callback.
type StoreProvider interface {
	Within(ctx context.Context, fn func(reconcile.Store) error) error
}

type EnrollmentResult struct {
	User     domain.User
	Accounts []domain.Account
}

// ICacheService is the operation surface the HTTP handlers talk to. Every
// method authenticating by access token returns domain.ErrUnknownToken
// for an unenrolled token, and *domain.NotFoundError when the caller asks
// for an account it does not own.
type ICacheService interface {
	// CreateConnectToken requests a Teller Connect token for the front end.
	CreateConnectToken(ctx context.Context, options map[string]any) (json.RawMessage, error)

	// Enroll registers (or re-registers) a user, pulls its accounts from
	// Teller and primes balances plus a first transaction window. Priming
	// failures from the Teller API are logged and skipped per account;
	// everything else aborts and rolls back the whole enrollment.
	Enroll(ctx context.Context, userID, accessToken, name string) (*EnrollmentResult, error)

	// ListAccounts returns the cached accounts owned by the token's user.
	ListAccounts(ctx context.Context, token string) ([]domain.Account, error)

	// CachedBalance returns the cached balance for an owned account.
	CachedBalance(ctx context.Context, token, accountID string) (*domain.Balance, error)

	// CachedTransactions returns the cached window, newest first.
	CachedTransactions(ctx context.Context, token, accountID string, limit int) ([]domain.Transaction, error)

	// LiveBalance fetches a fresh balance from Teller, reconciles it into
	// the cache and returns the upstream payload verbatim.
	LiveBalance(ctx context.Context, token, accountID string) (json.RawMessage, error)

	// LiveTransactions fetches a fresh window from Teller, replaces the
	// cached window and returns the upstream payloads verbatim.
	LiveTransactions(ctx context.Context, token, accountID string, count int) ([]json.RawMessage, error)
}
