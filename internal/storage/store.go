// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gastobot/gastobot/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the engine needs.
// This abstraction allows swapping storage backends without changing the
// engine. Multi-collection reads are independent queries combined in-process;
// no joins are assumed.
type Store interface {
	// Participants

	// GetParticipantByPhone looks a participant up by contact channel.
	// Returns ErrNotFound when no participant matches.
	GetParticipantByPhone(ctx context.Context, phone string) (*models.Participant, error)

	// GetParticipant retrieves a participant by ID.
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)

	// CreateParticipant persists a new participant, assigning ID/CreatedAt
	// when unset.
	CreateParticipant(ctx context.Context, p *models.Participant) error

	// SetActiveGroup updates the participant's default group. Empty clears it.
	SetActiveGroup(ctx context.Context, participantID, groupID string) error

	// SetActiveMode updates the participant's message-routing mode.
	SetActiveMode(ctx context.Context, participantID string, mode models.Mode) error

	// MarkWelcomed records that the welcome message was sent.
	MarkWelcomed(ctx context.Context, participantID string, at time.Time) error

	// Groups

	// GetGroup retrieves a group with members and ghosts.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// CreateGroup persists a new group, assigning ID/CreatedAt when unset.
	CreateGroup(ctx context.Context, g *models.Group) error

	// GroupsByMember returns every group the participant belongs to.
	GroupsByMember(ctx context.Context, participantID string) ([]*models.Group, error)

	// GroupMembers returns the participant records for a group's members.
	// Ghost members are returned as name-only participants.
	GroupMembers(ctx context.Context, groupID string) ([]*models.Participant, error)

	// MergeGhost claims a ghost member into a real participant: the
	// participant joins the group, every historical expense and payment
	// referencing the ghost id is rewritten, and the ghost is removed.
	MergeGhost(ctx context.Context, groupID, ghostID, participantID string) error

	// Expenses and payments

	// CreateExpense persists a new expense, assigning ID/CreatedAt when unset.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// ExpensesByGroup returns a group's expenses, newest first.
	// limit <= 0 returns all.
	ExpensesByGroup(ctx context.Context, groupID string, limit int) ([]*models.Expense, error)

	// CreatePayment persists a new payment, assigning ID/CreatedAt when unset.
	CreatePayment(ctx context.Context, p *models.Payment) error

	// PaymentsByGroup returns a group's payments, newest first.
	PaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)

	// Personal mode

	// CategoriesByOwner returns the owner's categories; tombstoned ones are
	// excluded unless includeDeleted is set.
	CategoriesByOwner(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.Category, error)

	// GetCategory retrieves a category by ID.
	GetCategory(ctx context.Context, id string) (*models.Category, error)

	// CreateCategory persists a new category, assigning its ID when unset.
	CreateCategory(ctx context.Context, c *models.Category) error

	// SoftDeleteCategory tombstones a category without removing it.
	SoftDeleteCategory(ctx context.Context, id string, at time.Time) error

	// CreatePersonalPayment persists a personal payment record.
	CreatePersonalPayment(ctx context.Context, p *models.PersonalPayment) error

	// PersonalPaymentsByOwner returns the owner's payments created within
	// [from, to), newest first. Zero times mean unbounded.
	PersonalPaymentsByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]*models.PersonalPayment, error)

	// RecentPersonalPayments returns the owner's most recent payments.
	RecentPersonalPayments(ctx context.Context, ownerID string, limit int) ([]*models.PersonalPayment, error)

	// PersonalPaymentsByRecipient returns the owner's most recent payments
	// to a recipient matched by name or CBU (either may be empty).
	PersonalPaymentsByRecipient(ctx context.Context, ownerID, name, cbu string, limit int) ([]*models.PersonalPayment, error)

	// RecurrentsByOwner returns the owner's recurring expense templates.
	RecurrentsByOwner(ctx context.Context, ownerID string) ([]*models.Recurrent, error)

	// CreateRecurrent persists a recurring expense template.
	CreateRecurrent(ctx context.Context, r *models.Recurrent) error

	// Close releases any resources held by the store.
	Close() error
}
