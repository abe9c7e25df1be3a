package models

import "github.com/shopspring/decimal"

// Expense represents a shared or personal expense.
//
// Amount is always in the home currency. When the original message used a
// foreign currency, OriginalAmount/OriginalCurrency preserve what was said
// for display; the stored Amount is the converted value.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to. Empty for
	// personal-mode expenses.
	GroupID string

	// PayerID is the participant who paid.
	PayerID string

	// PayerName is the payer's display name at creation time, kept for
	// listings without an extra lookup.
	PayerName string

	// Amount is the cost in the home currency.
	Amount decimal.Decimal

	// OriginalAmount is the amount as stated, when a foreign currency was
	// used. Nil otherwise.
	OriginalAmount *decimal.Decimal

	// OriginalCurrency is the 3-letter code of the stated currency, empty
	// when the message was already in the home currency.
	OriginalCurrency string

	// Description is the free-text description.
	Description string

	// Category is the inferred category keyword (freeform for groups).
	Category string

	// SplitAmong is the set of participant IDs the cost is divided among.
	// Empty means "split among the group's current full membership",
	// resolved at read time.
	SplitAmong []string

	// OriginalInput is the raw message that produced this expense.
	OriginalInput string

	// Source tags the input channel ("whatsapp-text", "whatsapp-audio", ...).
	Source string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
