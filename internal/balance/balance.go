// Package balance computes net positions for a group from its expense and
// payment history.
package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/models"
)

// MemberBalance is one member's position in the group ledger.
type MemberBalance struct {
	MemberID   string
	Name       string
	Paid       decimal.Decimal // total fronted for the group
	Share      decimal.Decimal // total consumed across splits
	Adjustment decimal.Decimal // net effect of direct payments
	Net        decimal.Decimal // Paid - Share + Adjustment; positive is owed money
}

// Compute derives every member's net position.
//
// Each expense credits its payer with the full amount and charges each member
// in the split list an equal share. A split list that names nobody in the
// group falls back to the whole roster, so a stale member reference degrades
// to an even split instead of losing money. Payments shift balances directly:
// the sender's position improves, the receiver's drops.
//
// The sum of all nets is zero up to division remainders. Results are sorted
// creditors first.
func Compute(members []*models.Participant, expenses []*models.Expense, payments []*models.Payment) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(members))
	for _, m := range members {
		balances[m.ID] = &MemberBalance{MemberID: m.ID, Name: m.Name}
	}

	for _, e := range expenses {
		payer, ok := balances[e.PayerID]
		if !ok {
			// Payer left the group; keep their row so the books still close.
			payer = &MemberBalance{MemberID: e.PayerID, Name: e.PayerName}
			balances[e.PayerID] = payer
		}
		payer.Paid = payer.Paid.Add(e.Amount)

		split := make([]*MemberBalance, 0, len(e.SplitAmong))
		for _, id := range e.SplitAmong {
			if b, ok := balances[id]; ok {
				split = append(split, b)
			}
		}
		if len(split) == 0 {
			for _, m := range members {
				split = append(split, balances[m.ID])
			}
		}
		if len(split) == 0 {
			continue
		}

		share := e.Amount.Div(decimal.NewFromInt(int64(len(split))))
		for _, b := range split {
			b.Share = b.Share.Add(share)
		}
	}

	for _, p := range payments {
		if from, ok := balances[p.FromID]; ok {
			from.Adjustment = from.Adjustment.Add(p.Amount)
		}
		if to, ok := balances[p.ToID]; ok {
			to.Adjustment = to.Adjustment.Sub(p.Amount)
		}
	}

	out := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.Paid.Sub(b.Share).Add(b.Adjustment)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Net.Equal(out[j].Net) {
			return out[i].Net.GreaterThan(out[j].Net)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SettleEdge is one suggested transfer in a settlement plan.
type SettleEdge struct {
	FromID   string
	FromName string
	ToID     string
	ToName   string
	Amount   decimal.Decimal
}

// settleEpsilon ignores residue from uneven splits when matching debts.
var settleEpsilon = decimal.NewFromFloat(0.01)

// Settlements proposes a minimal set of transfers that zeroes the group out,
// matching the largest debtor against the largest creditor greedily.
func Settlements(balances []MemberBalance) []SettleEdge {
	var creditors, debtors []MemberBalance
	for _, b := range balances {
		switch {
		case b.Net.GreaterThan(settleEpsilon):
			creditors = append(creditors, b)
		case b.Net.LessThan(settleEpsilon.Neg()):
			debtors = append(debtors, b)
		}
	}
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].Net.GreaterThan(creditors[j].Net) })
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].Net.LessThan(debtors[j].Net) })

	var edges []SettleEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := debtors[i].Net.Neg()
		due := creditors[j].Net

		amount := owed
		if due.LessThan(amount) {
			amount = due
		}
		if amount.GreaterThan(settleEpsilon) {
			edges = append(edges, SettleEdge{
				FromID:   debtors[i].MemberID,
				FromName: debtors[i].Name,
				ToID:     creditors[j].MemberID,
				ToName:   creditors[j].Name,
				Amount:   amount,
			})
		}

		debtors[i].Net = debtors[i].Net.Add(amount)
		creditors[j].Net = creditors[j].Net.Sub(amount)
		if debtors[i].Net.Neg().LessThanOrEqual(settleEpsilon) {
			i++
		}
		if creditors[j].Net.LessThanOrEqual(settleEpsilon) {
			j++
		}
	}
	return edges
}
