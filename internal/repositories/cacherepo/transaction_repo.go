package cacherepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

const transactionColumns = `id, account_id, description, amount, date, running_balance, type, raw, cached_at`

func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	tx, err := scanTransaction(rows)
	if err != nil {
		return nil, err
	}
	return tx, rows.Err()
}

func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.AccountID, nullString(tx.Description), tx.Amount, nullTime(tx.Date),
		tx.RunningBalance, nullString(tx.Type),
		pqtype.NullRawMessage{RawMessage: tx.Raw, Valid: tx.Raw != nil},
		tx.CachedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to insert transaction")
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = $2, description = $3, amount = $4, date = $5,
		     running_balance = $6, type = $7, raw = $8, cached_at = $9
		 WHERE id = $1`,
		tx.ID, tx.AccountID, nullString(tx.Description), tx.Amount, nullTime(tx.Date),
		tx.RunningBalance, nullString(tx.Type),
		pqtype.NullRawMessage{RawMessage: tx.Raw, Valid: tx.Raw != nil},
		tx.CachedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to update transaction")
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *Repository) ListTransactionIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id FROM transactions WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE account_id = $1
		 ORDER BY date DESC, cached_at DESC, id ASC
		 LIMIT $2`, accountID, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to list transactions")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*domain.Transaction, error) {
	var tx domain.Transaction
	var description, txType sql.NullString
	var amount, runningBalance decimal.NullDecimal
	var date sql.NullTime
	var raw pqtype.NullRawMessage

	err := rows.Scan(&tx.ID, &tx.AccountID, &description, &amount, &date,
		&runningBalance, &txType, &raw, &tx.CachedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Description = description.String
	tx.Amount = amount
	tx.RunningBalance = runningBalance
	tx.Type = txType.String
	tx.Raw = raw.RawMessage
	if date.Valid {
		d := date.Time
		tx.Date = &d
	}
	return &tx, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
