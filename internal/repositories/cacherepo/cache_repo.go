// Package cacherepo is the Postgres cache store. It implements
// reconcile.Store with one hand-written statement per method; the merge
// semantics live in the reconciliation engine, not here.
package cacherepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/reconcile"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so the same repository
// code serves direct reads and unit-of-work scopes.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	q      Querier
	logger zerolog.Logger
}

func New(q Querier, logger zerolog.Logger) *Repository {
	return &Repository{q: q, logger: logger}
}

// Provider opens one transaction per unit of work: commit on success,
// rollback on any error, connection released on every exit path.
type Provider struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProvider(db *sql.DB, logger zerolog.Logger) *Provider {
	return &Provider{db: db, logger: logger}
}

func (p *Provider) Within(ctx context.Context, fn func(reconcile.Store) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(New(tx, p.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			p.logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
