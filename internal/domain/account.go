package domain

import (
	"encoding/json"
	"time"
)

// Account is a bank account as last seen from Teller. UserID follows the
// most recent enrollment that surfaced the account, so a reconnect under a
// fresh Teller user id moves the cached account to that user.
type Account struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Institution string          `json:"institution" db:"institution"`
	LastFour    string          `json:"last_four" db:"last_four"`
	Type        string          `json:"type" db:"type"`
	Subtype     string          `json:"subtype" db:"subtype"`
	Currency    string          `json:"currency" db:"currency"`
	Raw         json.RawMessage `json:"-" db:"raw"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
