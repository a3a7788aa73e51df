package cacherepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, access_token, name, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, access_token, name, created_at, updated_at FROM users WHERE access_token = $1`, token)
	return scanUser(row)
}

func (r *Repository) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, access_token, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.AccessToken, nullString(user.Name), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to insert user")
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET access_token = $2, name = $3, updated_at = $4 WHERE id = $1`,
		user.ID, user.AccessToken, nullString(user.Name), user.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var name sql.NullString
	err := row.Scan(&user.ID, &user.AccessToken, &name, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.Name = name.String
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
