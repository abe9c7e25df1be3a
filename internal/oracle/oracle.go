// Package oracle extracts structured financial intents from free-form
// messages, receipts and voice notes using a language model. Every model
// response crosses one coercion boundary before the rest of the system sees
// it, so malformed output degrades to an unknown intent instead of crashing
// a handler.
package oracle

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/models"
)

// ResultType discriminates what the model believed the message was.
type ResultType string

const (
	TypeExpense ResultType = "expense"
	TypePayment ResultType = "payment"
	TypeCommand ResultType = "command"
	TypeUnknown ResultType = "unknown"
)

// Result is a coerced model extraction. Which fields are meaningful depends
// on Type.
type Result struct {
	Type ResultType

	// Expense and payment fields.
	Amount      decimal.Decimal
	Currency    string
	Description string
	Category    string

	// Expense split control. Names are raw mention text, resolved later.
	SplitAmong       []string
	ExcludeFromSplit []string
	IncludesSender   bool

	// Payment fields. Direction is "paid" or "received" from the sender's
	// point of view.
	Direction    string
	Counterparty string

	// Command field, e.g. "balance".
	Command string

	// Confidence in [0, 1]. Low-confidence results fall back to the
	// deterministic parser.
	Confidence float64

	// Suggestion is a hint for the user when the model could not extract
	// anything actionable.
	Suggestion string
}

// Receipt is a coerced bank-transfer receipt extraction.
type Receipt struct {
	Amount     decimal.Decimal
	Currency   string
	Recipient  models.Recipient
	Date       string
	Reference  string
	Concept    string
	Confidence float64
}

// Extractor is the model-facing surface the message engine depends on.
// Implementations must honor the context deadline; a slow model answer is
// treated the same as no answer.
type Extractor interface {
	// ExtractGroupMessage interprets a group-mode message against the
	// group roster.
	ExtractGroupMessage(ctx context.Context, text string, roster []string) (*Result, error)
	// ExtractPersonalMessage interprets a personal-mode message against
	// the user's category names.
	ExtractPersonalMessage(ctx context.Context, text string, categories []string) (*Result, error)
	// ExtractReceipt reads a transfer receipt image or PDF.
	ExtractReceipt(ctx context.Context, media []byte, mimeType string) (*Receipt, error)
	// Transcribe converts a voice note to text.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	// Analyze produces a free-text spending analysis from a ledger summary.
	Analyze(ctx context.Context, summary string) (string, error)
}
