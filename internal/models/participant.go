package models

// Mode selects which domain a participant's messages are processed in.
type Mode string

const (
	// ModeGroups processes messages as shared-group expenses and payments.
	ModeGroups Mode = "grupos"
	// ModePersonal processes messages as personal expense records.
	ModePersonal Mode = "finanzas"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeGroups || m == ModePersonal
}

// Participant is a person known to the bot.
//
// Participants are created on first authorized interaction and are never
// hard-deleted, since expenses and payments reference them by ID.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// Name is the display name.
	Name string

	// Phone is the linked contact channel (WhatsApp number), if any.
	Phone string

	// Email is optional.
	Email string

	// Aliases are alternative names used for mention matching.
	// Mutable by the participant; matched case- and diacritic-insensitively.
	Aliases []string

	// ActiveGroupID is the group new expenses default to when the
	// participant belongs to more than one group. Empty means unset.
	ActiveGroupID string

	// ActiveMode routes this participant's messages ("grupos"/"finanzas").
	// Empty means not yet determined.
	ActiveMode Mode

	// WelcomedAt is the Unix timestamp of the welcome message, 0 if the
	// participant has not been greeted yet.
	WelcomedAt int64

	// CreatedAt is the Unix timestamp when the participant was created.
	CreatedAt int64
}
