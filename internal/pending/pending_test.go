package pending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/models"
)

func draft() *Draft {
	return &Draft{
		Expense: &models.Expense{
			GroupID:     "g1",
			PayerID:     "u1",
			Amount:      decimal.NewFromInt(100),
			Description: "cena",
		},
	}
}

func TestProposalLifecycle(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, time.Minute)

	if _, ok := s.Proposal(models.ModeGroups, "u1"); ok {
		t.Fatal("expected no proposal before Put")
	}

	s.PutProposal(models.ModeGroups, "u1", draft())
	got, ok := s.Proposal(models.ModeGroups, "u1")
	if !ok {
		t.Fatal("expected the proposal back")
	}
	if got.Expense.Description != "cena" {
		t.Errorf("Description = %q, want cena", got.Expense.Description)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not stamped")
	}

	s.DeleteProposal(models.ModeGroups, "u1")
	if _, ok := s.Proposal(models.ModeGroups, "u1"); ok {
		t.Fatal("expected the proposal gone after delete")
	}

	// Idempotent: deleting again must not panic or resurrect anything.
	s.DeleteProposal(models.ModeGroups, "u1")
}

func TestProposalModesAreIsolated(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, time.Minute)
	s.PutProposal(models.ModeGroups, "u1", draft())

	if _, ok := s.Proposal(models.ModePersonal, "u1"); ok {
		t.Fatal("a groups-mode proposal must not be visible in personal mode")
	}
}

func TestProposalExpires(t *testing.T) {
	s := NewStore(10*time.Millisecond, time.Minute, time.Millisecond)
	s.PutProposal(models.ModeGroups, "u1", draft())

	time.Sleep(25 * time.Millisecond)
	if _, ok := s.Proposal(models.ModeGroups, "u1"); ok {
		t.Fatal("expected the proposal to expire")
	}
}

func TestSelectionLifecycle(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, time.Minute)
	s.PutSelection("u1", &Selection{Text: "500 cena", GroupIDs: []string{"g1", "g2"}})

	sel, ok := s.Selection("u1")
	if !ok {
		t.Fatal("expected the selection back")
	}
	if sel.Text != "500 cena" || len(sel.GroupIDs) != 2 {
		t.Errorf("unexpected selection %+v", sel)
	}

	s.DeleteSelection("u1")
	if _, ok := s.Selection("u1"); ok {
		t.Fatal("expected the selection gone after delete")
	}
}

func TestClearUser(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, time.Minute)
	s.PutProposal(models.ModeGroups, "u1", draft())
	s.PutProposal(models.ModePersonal, "u1", draft())
	s.PutSelection("u1", &Selection{Text: "500 cena"})
	s.PutProposal(models.ModeGroups, "u2", draft())

	s.ClearUser("u1")

	if _, ok := s.Proposal(models.ModeGroups, "u1"); ok {
		t.Error("groups proposal survived ClearUser")
	}
	if _, ok := s.Proposal(models.ModePersonal, "u1"); ok {
		t.Error("personal proposal survived ClearUser")
	}
	if _, ok := s.Selection("u1"); ok {
		t.Error("selection survived ClearUser")
	}
	if _, ok := s.Proposal(models.ModeGroups, "u2"); !ok {
		t.Error("another user's proposal was cleared")
	}
}
