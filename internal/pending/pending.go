// Package pending holds in-flight conversational state: extracted expenses
// waiting for a yes/no, and messages waiting for the sender to pick a group.
// Entries expire on their own so an ignored question never blocks the next
// message.
package pending

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/gastobot/gastobot/internal/models"
)

// Draft is an extracted expense waiting for the sender's confirmation.
type Draft struct {
	Expense *models.Expense
	// SplitNames are the display names behind Expense.SplitAmong, kept so
	// the confirmation prompt and the receipt do not need another roster
	// lookup.
	SplitNames []string
	CreatedAt  time.Time
}

// Selection is a message parked until the sender picks one of their groups.
type Selection struct {
	Text     string
	GroupIDs []string
}

// Store keeps per-user pending state with independent lifetimes for
// confirmations and group selections.
type Store struct {
	proposals  *cache.Cache
	selections *cache.Cache
}

// NewStore builds a pending store. proposalTTL bounds how long a
// confirmation stays answerable, selectionTTL how long a parked message
// waits for a group choice. sweep is the janitor interval.
func NewStore(proposalTTL, selectionTTL, sweep time.Duration) *Store {
	return &Store{
		proposals:  cache.New(proposalTTL, sweep),
		selections: cache.New(selectionTTL, sweep),
	}
}

// proposalKey scopes pending confirmations per user and mode, so switching
// modes cannot answer a question asked in the other mode.
func proposalKey(mode models.Mode, userID string) string {
	return string(mode) + ":" + userID
}

// PutProposal parks a draft, replacing any previous one for the same user
// and mode.
func (s *Store) PutProposal(mode models.Mode, userID string, d *Draft) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.proposals.SetDefault(proposalKey(mode, userID), d)
}

// Proposal returns the user's pending draft, if any.
func (s *Store) Proposal(mode models.Mode, userID string) (*Draft, bool) {
	v, ok := s.proposals.Get(proposalKey(mode, userID))
	if !ok {
		return nil, false
	}
	return v.(*Draft), true
}

// DeleteProposal removes the user's pending draft. Deleting an absent or
// already-expired draft is a no-op, so double confirmations stay harmless.
func (s *Store) DeleteProposal(mode models.Mode, userID string) {
	s.proposals.Delete(proposalKey(mode, userID))
}

// PutSelection parks a message until the user picks a group.
func (s *Store) PutSelection(userID string, sel *Selection) {
	s.selections.SetDefault(userID, sel)
}

// Selection returns the user's parked message, if any.
func (s *Store) Selection(userID string) (*Selection, bool) {
	v, ok := s.selections.Get(userID)
	if !ok {
		return nil, false
	}
	return v.(*Selection), true
}

// DeleteSelection removes the user's parked message.
func (s *Store) DeleteSelection(userID string) {
	s.selections.Delete(userID)
}

// ClearUser drops all pending state for a user across both modes. Used when
// the user switches modes, so stale questions cannot leak across.
func (s *Store) ClearUser(userID string) {
	s.proposals.Delete(proposalKey(models.ModeGroups, userID))
	s.proposals.Delete(proposalKey(models.ModePersonal, userID))
	s.selections.Delete(userID)
}
