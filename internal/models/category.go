package models

import "github.com/shopspring/decimal"

// Category is a personal-mode expense category owned by one participant.
// Shared-group expenses use freeform category strings instead.
type Category struct {
	// ID is the unique identifier for the category (UUID format).
	ID string

	// OwnerID is the participant this category belongs to.
	OwnerID string

	// Name is the display name ("Supermercado", "Salidas", ...).
	Name string

	// Color is an optional display hint.
	Color string

	// DeletedAt is the Unix timestamp of soft deletion, 0 if active.
	// Categories referenced by payments are tombstoned, never removed.
	DeletedAt int64
}

// PaymentType distinguishes one-off personal payments from instances of a
// recurring expense.
type PaymentType string

const (
	PaymentOneTime   PaymentType = "one-time"
	PaymentRecurrent PaymentType = "recurrent"
)

// Recipient holds transfer-receipt metadata about who was paid.
type Recipient struct {
	Name  string
	CBU   string
	Alias string
	Bank  string
}

// PersonalPayment is a personal-mode payment record, created from a text
// message, an audio transcription or a transfer receipt.
type PersonalPayment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// OwnerID is the participant who owns this record.
	OwnerID string

	// Title is the short display title.
	Title string

	// Description is an optional longer note.
	Description string

	// Amount is the payment amount in the home currency.
	Amount decimal.Decimal

	// CategoryID references the owner's category, empty for uncategorized.
	CategoryID string

	// Type is one-time or recurrent.
	Type PaymentType

	// RecurrentID links a recurrent instance to its template, empty for
	// one-time payments.
	RecurrentID string

	// IsPaid marks whether the payment has been made.
	IsPaid bool

	// PaidAt is the Unix timestamp of the payment, 0 if unpaid.
	PaidAt int64

	// DueAt is the Unix timestamp the payment is due.
	DueAt int64

	// Source tags the input channel ("whatsapp-text", "whatsapp-audio",
	// "whatsapp-image", "whatsapp-pdf").
	Source string

	// NeedsRevision marks records whose title or category was guessed and
	// should be reviewed from the dashboard.
	NeedsRevision bool

	// Recipient holds transfer metadata, nil for plain expenses.
	Recipient *Recipient

	// Transcription is the full audio transcription, empty otherwise.
	Transcription string

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}

// Recurrent is a fixed monthly personal expense template. Each month an
// instance is materialized as a PersonalPayment linked via RecurrentID.
type Recurrent struct {
	// ID is the unique identifier (UUID format).
	ID string

	// OwnerID is the participant this recurrent belongs to.
	OwnerID string

	// Title is the display title ("Alquiler", "Internet", ...).
	Title string

	// Amount is the monthly amount in the home currency.
	Amount decimal.Decimal

	// CategoryID references the owner's category.
	CategoryID string

	// DueDay is the day of month the payment is due (1-28).
	DueDay int
}
