package interfaces

import (
	"context"
	"encoding/json"
)

// TellerClient defines the calls the backend makes against the Teller API.
// Implementations return *domain.APIError for any non-2xx answer; callers
// decide per call site whether that is fatal or merely logged.
type TellerClient interface {
	// CreateConnectToken requests a Teller Connect token. The options map
	// is forwarded verbatim on top of the application id.
	CreateConnectToken(ctx context.Context, options map[string]any) (json.RawMessage, error)

	// ListAccounts returns the account payloads visible to an access token.
	ListAccounts(ctx context.Context, accessToken string) ([]json.RawMessage, error)

	// GetAccountBalances returns the balance payload for one account.
	GetAccountBalances(ctx context.Context, accessToken, accountID string) (json.RawMessage, error)

	// GetAccountTransactions returns the most recent count transactions.
	GetAccountTransactions(ctx context.Context, accessToken, accountID string, count int) ([]json.RawMessage, error)
}
