package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAccountPayloadInstitutionShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `{"id":"acc_1","institution":"First Platypus Bank"}`, "First Platypus Bank"},
		{"object", `{"id":"acc_1","institution":{"id":"first_platypus","name":"First Platypus Bank"}}`, "first_platypus"},
		{"missing", `{"id":"acc_1"}`, ""},
		{"unknown shape", `{"id":"acc_1","institution":[1,2]}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParseAccountPayload(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("ParseAccountPayload() error = %v", err)
			}
			if p.Institution != tc.want {
				t.Fatalf("Institution = %q, want %q", p.Institution, tc.want)
			}
		})
	}
}

func TestParseAccountPayloadLastFourSpellings(t *testing.T) {
	p, err := ParseAccountPayload(json.RawMessage(`{"id":"acc_1","last_four":"1234"}`))
	if err != nil {
		t.Fatalf("ParseAccountPayload() error = %v", err)
	}
	if p.LastFour != "1234" {
		t.Fatalf("LastFour = %q, want 1234", p.LastFour)
	}

	p, err = ParseAccountPayload(json.RawMessage(`{"id":"acc_1","lastFour":"5678"}`))
	if err != nil {
		t.Fatalf("ParseAccountPayload() error = %v", err)
	}
	if p.LastFour != "5678" {
		t.Fatalf("LastFour = %q, want 5678", p.LastFour)
	}

	// Snake case wins when both are present.
	p, err = ParseAccountPayload(json.RawMessage(`{"id":"acc_1","last_four":"1234","lastFour":"5678"}`))
	if err != nil {
		t.Fatalf("ParseAccountPayload() error = %v", err)
	}
	if p.LastFour != "1234" {
		t.Fatalf("LastFour = %q, want 1234", p.LastFour)
	}
}

func TestParseAccountPayloadKeepsRaw(t *testing.T) {
	raw := json.RawMessage(`{"id":"acc_1","name":"Checking","extra":{"nested":true}}`)
	p, err := ParseAccountPayload(raw)
	if err != nil {
		t.Fatalf("ParseAccountPayload() error = %v", err)
	}
	if string(p.Raw) != string(raw) {
		t.Fatalf("Raw = %s, want verbatim input", p.Raw)
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantValid bool
		want      string
	}{
		{"number", `110.0`, true, "110"},
		{"string", `"110.00"`, true, "110"},
		{"negative string", `"-42.17"`, true, "-42.17"},
		{"null", `null`, false, ""},
		{"empty", ``, false, ""},
		{"empty string", `""`, false, ""},
		{"garbage", `"not-a-number"`, false, ""},
		{"object", `{"amount":1}`, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ParseDecimal(json.RawMessage(tc.raw))
			if d.Valid != tc.wantValid {
				t.Fatalf("Valid = %v, want %v", d.Valid, tc.wantValid)
			}
			if tc.wantValid && d.Decimal.String() != tc.want {
				t.Fatalf("Decimal = %s, want %s", d.Decimal, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got := ParseDate("2024-03-15")
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("ParseDate() = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "15/03/2024", "2024-13-40", "yesterday"} {
		if got := ParseDate(bad); got != nil {
			t.Fatalf("ParseDate(%q) = %v, want nil", bad, got)
		}
	}
}

func TestParseBalancePayload(t *testing.T) {
	raw := json.RawMessage(`{"account_id":"acc_1","available":"110.00","ledger":null,"currency":"USD"}`)
	p, err := ParseBalancePayload(raw)
	if err != nil {
		t.Fatalf("ParseBalancePayload() error = %v", err)
	}
	if !p.Available.Valid || p.Available.Decimal.String() != "110" {
		t.Fatalf("Available = %+v, want 110", p.Available)
	}
	if p.Ledger.Valid {
		t.Fatalf("Ledger = %+v, want null", p.Ledger)
	}
	if p.Currency != "USD" {
		t.Fatalf("Currency = %q, want USD", p.Currency)
	}
}

func TestParseTransactionPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "txn_1",
		"description": "Coffee",
		"amount": "-4.50",
		"date": "2024-03-15",
		"running_balance": null,
		"type": "card_payment"
	}`)
	p, err := ParseTransactionPayload(raw)
	if err != nil {
		t.Fatalf("ParseTransactionPayload() error = %v", err)
	}
	if p.ID != "txn_1" || p.Description != "Coffee" || p.Type != "card_payment" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if !p.Amount.Valid || p.Amount.Decimal.String() != "-4.5" {
		t.Fatalf("Amount = %+v, want -4.5", p.Amount)
	}
	if p.Date == nil || p.Date.Format("2006-01-02") != "2024-03-15" {
		t.Fatalf("Date = %v, want 2024-03-15", p.Date)
	}
	if p.RunningBalance.Valid {
		t.Fatalf("RunningBalance = %+v, want null", p.RunningBalance)
	}
}

func TestParseTransactionPayloadBadDate(t *testing.T) {
	p, err := ParseTransactionPayload(json.RawMessage(`{"id":"txn_1","date":"soon"}`))
	if err != nil {
		t.Fatalf("ParseTransactionPayload() error = %v", err)
	}
	if p.Date != nil {
		t.Fatalf("Date = %v, want nil", p.Date)
	}
}
