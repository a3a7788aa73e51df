package cacherepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlc-dev/pqtype"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

const accountColumns = `id, user_id, name, institution, last_four, type, subtype, currency, raw, created_at, updated_at`

func (r *Repository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	account, err := scanAccount(rows)
	if err != nil {
		return nil, err
	}
	return account, rows.Err()
}

func (r *Repository) InsertAccount(ctx context.Context, account *domain.Account) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID, account.UserID,
		nullString(account.Name), nullString(account.Institution), nullString(account.LastFour),
		nullString(account.Type), nullString(account.Subtype), nullString(account.Currency),
		pqtype.NullRawMessage{RawMessage: account.Raw, Valid: account.Raw != nil},
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to insert account")
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE accounts
		 SET user_id = $2, name = $3, institution = $4, last_four = $5,
		     type = $6, subtype = $7, currency = $8, raw = $9, updated_at = $10
		 WHERE id = $1`,
		account.ID, account.UserID,
		nullString(account.Name), nullString(account.Institution), nullString(account.LastFour),
		nullString(account.Type), nullString(account.Subtype), nullString(account.Currency),
		pqtype.NullRawMessage{RawMessage: account.Raw, Valid: account.Raw != nil},
		account.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to update account")
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (r *Repository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE user_id = $1
		 ORDER BY name ASC NULLS FIRST, id ASC`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func scanAccount(rows *sql.Rows) (*domain.Account, error) {
	var account domain.Account
	var name, institution, lastFour, accountType, subtype, currency sql.NullString
	var raw pqtype.NullRawMessage

	err := rows.Scan(&account.ID, &account.UserID, &name, &institution, &lastFour,
		&accountType, &subtype, &currency, &raw, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.Name = name.String
	account.Institution = institution.String
	account.LastFour = lastFour.String
	account.Type = accountType.String
	account.Subtype = subtype.String
	account.Currency = currency.String
	account.Raw = raw.RawMessage
	return &account, nil
}
