package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the cached balance for one account, keyed 1:1 by account id.
// Available and Ledger stay null when the upstream payload was absent or
// unparsable; a real balance must never silently become zero.
type Balance struct {
	AccountID string              `json:"account_id" db:"account_id"`
	Available decimal.NullDecimal `json:"available" db:"available"`
	Ledger    decimal.NullDecimal `json:"ledger" db:"ledger"`
	Currency  string              `json:"currency" db:"currency"`
	Raw       json.RawMessage     `json:"-" db:"raw"`
	CachedAt  time.Time           `json:"cached_at" db:"cached_at"`
}
