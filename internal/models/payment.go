package models

import "github.com/shopspring/decimal"

// Payment represents a direct settlement between two group members.
// It adjusts net balances independently of expense splitting.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// FromID is the participant who paid (debtor settling up).
	FromID string

	// ToID is the participant who received (creditor being paid).
	ToID string

	// Amount is the payment amount in the home currency.
	Amount decimal.Decimal

	// RecordedBy is the participant who recorded this payment.
	RecordedBy string

	// Note is an optional description.
	Note string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
