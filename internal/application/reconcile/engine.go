// Package reconcile merges freshly fetched Teller payloads into the cache
// store: create-or-update for users, accounts and balances, and
// merge-and-prune for transaction fetch windows.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

type Engine struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func New(store Store, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// UpsertUser creates or refreshes a Teller user. The access token is
// always overwritten; the name only when the new one is non-empty, so a
// reconnect without profile data keeps the name we already had.
func (e *Engine) UpsertUser(ctx context.Context, userID, accessToken, name string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.Validationf("user id is required")
	}

	now := e.now()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user != nil {
		user.AccessToken = accessToken
		if name != "" {
			user.Name = name
		}
		user.UpdatedAt = now
		if err := e.store.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
		}
		return user, nil
	}

	user = &domain.User{
		ID:          userID,
		AccessToken: accessToken,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", userID, err)
	}
	return user, nil
}

// UpsertAccount creates or refreshes an account from one Teller payload.
//
// When a customer reconnects through Teller Connect they may receive a
// brand new user id even though the underlying accounts are the same, so
// an existing account is reassigned to the enrolling user unconditionally.
// From that point the account is invisible to every former owner.
func (e *Engine) UpsertAccount(ctx context.Context, user *domain.User, payload domain.AccountPayload) (*domain.Account, error) {
	if payload.ID == "" {
		return nil, domain.Validationf("account payload missing id")
	}

	now := e.now()

	account, err := e.store.GetAccount(ctx, payload.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", payload.ID, err)
	}
	if account != nil {
		account.UserID = user.ID
		applyAccountPayload(account, payload)
		account.UpdatedAt = now
		if err := e.store.UpdateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to update account %s: %w", payload.ID, err)
		}
		return account, nil
	}

	account = &domain.Account{
		ID:        payload.ID,
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyAccountPayload(account, payload)
	if err := e.store.InsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to insert account %s: %w", payload.ID, err)
	}
	return account, nil
}

func applyAccountPayload(account *domain.Account, payload domain.AccountPayload) {
	account.Name = payload.Name
	account.Institution = payload.Institution
	account.LastFour = payload.LastFour
	account.Type = payload.Type
	account.Subtype = payload.Subtype
	account.Currency = payload.Currency
	account.Raw = payload.Raw
}

func (e *Engine) ListAccounts(ctx context.Context, user *domain.User) ([]domain.Account, error) {
	return e.store.ListAccountsByUser(ctx, user.ID)
}

// GetAccount is a direct lookup; ownership is deliberately not checked
// here so callers can implement their own disclosure policy.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// UpdateBalance upserts the account's balance wholesale from one payload
// and stamps cached_at with the refresh time.
func (e *Engine) UpdateBalance(ctx context.Context, account *domain.Account, payload domain.BalancePayload) (*domain.Balance, error) {
	now := e.now()

	balance, err := e.store.GetBalance(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance for %s: %w", account.ID, err)
	}
	if balance != nil {
		balance.Available = payload.Available
		balance.Ledger = payload.Ledger
		balance.Currency = payload.Currency
		balance.Raw = payload.Raw
		balance.CachedAt = now
		if err := e.store.UpdateBalance(ctx, balance); err != nil {
			return nil, fmt.Errorf("failed to update balance for %s: %w", account.ID, err)
		}
		return balance, nil
	}

	balance = &domain.Balance{
		AccountID: account.ID,
		Available: payload.Available,
		Ledger:    payload.Ledger,
		Currency:  payload.Currency,
		Raw:       payload.Raw,
		CachedAt:  now,
	}
	if err := e.store.InsertBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to insert balance for %s: %w", account.ID, err)
	}
	return balance, nil
}

// ReplaceTransactions reconciles one fetch window against the cache.
//
// Teller returns only the most recent window, not full history, so a
// cached id absent from the window means "no longer current" and is
// pruned. After any call the cached set for the account equals exactly
// the distinct valid ids of the window. Duplicate ids within one window
// are ignored after the first occurrence; payloads without an id are
// skipped. Touched rows come back in input order; pruned rows do not.
//
// Two calls racing on the same account can interleave their create and
// delete decisions; the store's transaction isolation decides who wins
// and no stronger guarantee is offered.
func (e *Engine) ReplaceTransactions(ctx context.Context, account *domain.Account, payloads []domain.TransactionPayload) ([]domain.Transaction, error) {
	existingIDs, err := e.store.ListTransactionIDs(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction ids for %s: %w", account.ID, err)
	}
	remaining := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		remaining[id] = struct{}{}
	}

	now := e.now()
	seen := make(map[string]struct{}, len(payloads))
	touched := make([]domain.Transaction, 0, len(payloads))

	for _, payload := range payloads {
		if payload.ID == "" {
			continue
		}
		if _, dup := seen[payload.ID]; dup {
			continue
		}
		seen[payload.ID] = struct{}{}

		tx, err := e.store.GetTransaction(ctx, payload.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction %s: %w", payload.ID, err)
		}
		if tx != nil {
			tx.AccountID = account.ID
			applyTransactionPayload(tx, payload)
			tx.CachedAt = now
			if err := e.store.UpdateTransaction(ctx, tx); err != nil {
				return nil, fmt.Errorf("failed to update transaction %s: %w", payload.ID, err)
			}
		} else {
			tx = &domain.Transaction{
				ID:        payload.ID,
				AccountID: account.ID,
				CachedAt:  now,
			}
			applyTransactionPayload(tx, payload)
			if err := e.store.InsertTransaction(ctx, tx); err != nil {
				return nil, fmt.Errorf("failed to insert transaction %s: %w", payload.ID, err)
			}
		}

		touched = append(touched, *tx)
		delete(remaining, payload.ID)
	}

	// Whatever is left was not reconfirmed by this window: prune it.
	for id := range remaining {
		if err := e.store.DeleteTransaction(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete transaction %s: %w", id, err)
		}
	}
	if len(remaining) > 0 {
		e.logger.Debug().Str("account_id", account.ID).Int("pruned", len(remaining)).Msg("Pruned transactions absent from fetch window")
	}

	return touched, nil
}

func applyTransactionPayload(tx *domain.Transaction, payload domain.TransactionPayload) {
	tx.Description = payload.Description
	tx.Amount = payload.Amount
	tx.Date = payload.Date
	tx.RunningBalance = payload.RunningBalance
	tx.Type = payload.Type
	tx.Raw = payload.Raw
}

func (e *Engine) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return e.store.ListTransactions(ctx, accountID, limit)
}
