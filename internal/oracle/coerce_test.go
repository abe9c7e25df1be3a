package oracle

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseResultExpense(t *testing.T) {
	raw := "```json\n" + `{
		"type": "expense",
		"amount": 1500,
		"currency": "usd",
		"description": "cena",
		"category": "food",
		"splitAmong": ["Juan", 42, "Ana"],
		"excludeFromSplit": [],
		"includesSender": false,
		"confidence": 0.92
	}` + "\n```"

	r := ParseResult(raw)
	if r.Type != TypeExpense {
		t.Fatalf("Type = %s, want expense", r.Type)
	}
	if !r.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Amount = %s, want 1500", r.Amount)
	}
	if r.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", r.Currency)
	}
	if len(r.SplitAmong) != 2 || r.SplitAmong[0] != "Juan" || r.SplitAmong[1] != "Ana" {
		t.Errorf("SplitAmong = %v, want [Juan Ana]", r.SplitAmong)
	}
	if r.IncludesSender {
		t.Error("IncludesSender = true, want false")
	}
	if r.Confidence != 0.92 {
		t.Errorf("Confidence = %f, want 0.92", r.Confidence)
	}
}

func TestParseResultCoercions(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, r *Result)
	}{
		{
			name: "string amount",
			raw:  `{"type":"expense","amount":"1500,50"}`,
			check: func(t *testing.T, r *Result) {
				if !r.Amount.Equal(decimal.RequireFromString("1500.5")) {
					t.Errorf("Amount = %s, want 1500.5", r.Amount)
				}
			},
		},
		{
			name: "garbage amount becomes zero",
			raw:  `{"type":"expense","amount":"mucho"}`,
			check: func(t *testing.T, r *Result) {
				if !r.Amount.IsZero() {
					t.Errorf("Amount = %s, want 0", r.Amount)
				}
			},
		},
		{
			name: "invalid currency defaults",
			raw:  `{"type":"expense","amount":100,"currency":"GBP"}`,
			check: func(t *testing.T, r *Result) {
				if r.Currency != "ARS" {
					t.Errorf("Currency = %q, want ARS", r.Currency)
				}
			},
		},
		{
			name: "confidence above one clamps",
			raw:  `{"type":"expense","amount":100,"confidence":3}`,
			check: func(t *testing.T, r *Result) {
				if r.Confidence != 1 {
					t.Errorf("Confidence = %f, want 1", r.Confidence)
				}
			},
		},
		{
			name: "negative confidence clamps",
			raw:  `{"type":"expense","amount":100,"confidence":-0.2}`,
			check: func(t *testing.T, r *Result) {
				if r.Confidence != 0 {
					t.Errorf("Confidence = %f, want 0", r.Confidence)
				}
			},
		},
		{
			name: "missing confidence defaults per type",
			raw:  `{"type":"expense","amount":100}`,
			check: func(t *testing.T, r *Result) {
				if r.Confidence != 0.5 {
					t.Errorf("Confidence = %f, want 0.5", r.Confidence)
				}
			},
		},
		{
			name: "command confidence defaults high",
			raw:  `{"type":"command","command":"Balance"}`,
			check: func(t *testing.T, r *Result) {
				if r.Confidence != 1.0 {
					t.Errorf("Confidence = %f, want 1.0", r.Confidence)
				}
				if r.Command != "balance" {
					t.Errorf("Command = %q, want balance", r.Command)
				}
			},
		},
		{
			name: "missing includesSender defaults true",
			raw:  `{"type":"expense","amount":100}`,
			check: func(t *testing.T, r *Result) {
				if !r.IncludesSender {
					t.Error("IncludesSender = false, want true")
				}
			},
		},
		{
			name: "payment direction defaults to paid",
			raw:  `{"type":"payment","amount":100,"counterparty":"Juan","direction":"sideways"}`,
			check: func(t *testing.T, r *Result) {
				if r.Direction != "paid" {
					t.Errorf("Direction = %q, want paid", r.Direction)
				}
			},
		},
		{
			name: "unknown type carries suggestion",
			raw:  `{"type":"unknown","suggestion":"Probá con 500 cena"}`,
			check: func(t *testing.T, r *Result) {
				if r.Type != TypeUnknown {
					t.Fatalf("Type = %s, want unknown", r.Type)
				}
				if r.Suggestion != "Probá con 500 cena" {
					t.Errorf("Suggestion = %q", r.Suggestion)
				}
				if r.Confidence != 0.3 {
					t.Errorf("Confidence = %f, want 0.3", r.Confidence)
				}
			},
		},
		{
			name: "missing type becomes unknown",
			raw:  `{"amount":100}`,
			check: func(t *testing.T, r *Result) {
				if r.Type != TypeUnknown {
					t.Fatalf("Type = %s, want unknown", r.Type)
				}
			},
		},
		{
			name: "not json at all becomes zero-confidence unknown",
			raw:  `no tengo idea`,
			check: func(t *testing.T, r *Result) {
				if r.Type != TypeUnknown {
					t.Fatalf("Type = %s, want unknown", r.Type)
				}
				if r.Confidence != 0 {
					t.Errorf("Confidence = %f, want 0", r.Confidence)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseResult(tt.raw))
		})
	}
}

func TestParseReceipt(t *testing.T) {
	raw := "```json\n" + `{
		"amount": "15000,50",
		"currency": "ARS",
		"recipient": "Carlos Gomez",
		"cbu": "2850590940090418135201",
		"bank": "Banco Nación",
		"date": "2026-08-15",
		"confidence": 0.85
	}` + "\n```"

	r := ParseReceipt(raw)
	if r == nil {
		t.Fatal("expected a receipt, got nil")
	}
	if !r.Amount.Equal(decimal.RequireFromString("15000.5")) {
		t.Errorf("Amount = %s, want 15000.5", r.Amount)
	}
	if r.Recipient.Name != "Carlos Gomez" {
		t.Errorf("Recipient = %q", r.Recipient.Name)
	}
	if r.Recipient.CBU == "" || r.Recipient.Bank == "" {
		t.Errorf("recipient details lost: %+v", r.Recipient)
	}

	if ParseReceipt("not json") != nil {
		t.Error("expected nil for a non-JSON answer")
	}
}
