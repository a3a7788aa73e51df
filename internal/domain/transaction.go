package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one cached row of an account's most recent fetch window.
// Rows absent from a subsequent window are pruned, so the cached set per
// account always equals the latest window, not an append-only history.
type Transaction struct {
	ID             string              `json:"id" db:"id"`
	AccountID      string              `json:"account_id" db:"account_id"`
	Description    string              `json:"description" db:"description"`
	Amount         decimal.NullDecimal `json:"amount" db:"amount"`
	Date           *time.Time          `json:"date" db:"date"`
	RunningBalance decimal.NullDecimal `json:"running_balance" db:"running_balance"`
	Type           string              `json:"type" db:"type"`
	Raw            json.RawMessage     `json:"-" db:"raw"`
	CachedAt       time.Time           `json:"cached_at" db:"cached_at"`
}
