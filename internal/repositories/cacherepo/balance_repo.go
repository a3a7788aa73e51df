package cacherepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

func (r *Repository) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT account_id, available, ledger, currency, raw, cached_at
		 FROM balances WHERE account_id = $1`, accountID)

	var balance domain.Balance
	var available, ledger decimal.NullDecimal
	var currency sql.NullString
	var raw pqtype.NullRawMessage

	err := row.Scan(&balance.AccountID, &available, &ledger, &currency, &raw, &balance.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}

	balance.Available = available
	balance.Ledger = ledger
	balance.Currency = currency.String
	balance.Raw = raw.RawMessage
	return &balance, nil
}

func (r *Repository) InsertBalance(ctx context.Context, balance *domain.Balance) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO balances (account_id, available, ledger, currency, raw, cached_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		balance.AccountID, balance.Available, balance.Ledger, nullString(balance.Currency),
		pqtype.NullRawMessage{RawMessage: balance.Raw, Valid: balance.Raw != nil},
		balance.CachedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", balance.AccountID).Msg("Failed to insert balance")
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

func (r *Repository) UpdateBalance(ctx context.Context, balance *domain.Balance) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE balances
		 SET available = $2, ledger = $3, currency = $4, raw = $5, cached_at = $6
		 WHERE account_id = $1`,
		balance.AccountID, balance.Available, balance.Ledger, nullString(balance.Currency),
		pqtype.NullRawMessage{RawMessage: balance.Raw, Valid: balance.Raw != nil},
		balance.CachedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", balance.AccountID).Msg("Failed to update balance")
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}
