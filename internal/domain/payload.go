package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payload types normalize the loosely shaped JSON Teller returns into one
// canonical form before it reaches the data model. Raw always keeps the
// verbatim bytes, even when a typed field fails to parse.

type AccountPayload struct {
	ID          string
	Name        string
	Type        string
	Subtype     string
	LastFour    string
	Institution string
	Currency    string
	Raw         json.RawMessage
}

type BalancePayload struct {
	Available decimal.NullDecimal
	Ledger    decimal.NullDecimal
	Currency  string
	Raw       json.RawMessage
}

type TransactionPayload struct {
	ID             string
	Description    string
	Amount         decimal.NullDecimal
	Date           *time.Time
	RunningBalance decimal.NullDecimal
	Type           string
	Raw            json.RawMessage
}

// institutionField accepts both shapes Teller has used over time: a plain
// string name and an object carrying an inner id.
type institutionField struct {
	value string
}

func (f *institutionField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value = s
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		f.value = obj.ID
		return nil
	}
	// Unknown shape; leave the institution empty rather than failing the
	// whole account ingest.
	f.value = ""
	return nil
}

// ParseAccountPayload decodes one account object from a Teller response.
// A missing id is not an error here; the reconciliation engine rejects it.
func ParseAccountPayload(raw json.RawMessage) (AccountPayload, error) {
	var body struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Type        string           `json:"type"`
		Subtype     string           `json:"subtype"`
		LastFour    string           `json:"last_four"`
		LastFourAlt string           `json:"lastFour"`
		Institution institutionField `json:"institution"`
		Currency    string           `json:"currency"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return AccountPayload{}, err
	}

	lastFour := body.LastFour
	if lastFour == "" {
		lastFour = body.LastFourAlt
	}

	return AccountPayload{
		ID:          body.ID,
		Name:        body.Name,
		Type:        body.Type,
		Subtype:     body.Subtype,
		LastFour:    lastFour,
		Institution: body.Institution.value,
		Currency:    body.Currency,
		Raw:         raw,
	}, nil
}

func ParseBalancePayload(raw json.RawMessage) (BalancePayload, error) {
	var body struct {
		Available json.RawMessage `json:"available"`
		Ledger    json.RawMessage `json:"ledger"`
		Currency  string          `json:"currency"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return BalancePayload{}, err
	}

	return BalancePayload{
		Available: ParseDecimal(body.Available),
		Ledger:    ParseDecimal(body.Ledger),
		Currency:  body.Currency,
		Raw:       raw,
	}, nil
}

func ParseTransactionPayload(raw json.RawMessage) (TransactionPayload, error) {
	var body struct {
		ID             string          `json:"id"`
		Description    string          `json:"description"`
		Amount         json.RawMessage `json:"amount"`
		Date           string          `json:"date"`
		RunningBalance json.RawMessage `json:"running_balance"`
		Type           string          `json:"type"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return TransactionPayload{}, err
	}

	return TransactionPayload{
		ID:             body.ID,
		Description:    body.Description,
		Amount:         ParseDecimal(body.Amount),
		Date:           ParseDate(body.Date),
		RunningBalance: ParseDecimal(body.RunningBalance),
		Type:           body.Type,
		Raw:            raw,
	}, nil
}

// ParseDecimal reads a JSON number or numeric string into a NullDecimal.
// Anything unparsable becomes null, never zero and never an error; a
// financial value must not be misrepresented by a fallback.
func ParseDecimal(raw json.RawMessage) decimal.NullDecimal {
	if len(raw) == 0 {
		return decimal.NullDecimal{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Not a JSON string; try it as a bare number literal.
		s = string(raw)
	}
	if s == "" || s == "null" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseDate reads an ISO calendar date, returning nil on anything else.
func ParseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
