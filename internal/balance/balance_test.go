package balance

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/models"
)

func members(ids ...string) []*models.Participant {
	out := make([]*models.Participant, len(ids))
	for i, id := range ids {
		out[i] = &models.Participant{ID: id, Name: id}
	}
	return out
}

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func findNet(t *testing.T, balances []MemberBalance, id string) decimal.Decimal {
	t.Helper()
	for _, b := range balances {
		if b.MemberID == id {
			return b.Net
		}
	}
	t.Fatalf("no balance row for %s", id)
	return decimal.Zero
}

func assertZeroSum(t *testing.T, balances []MemberBalance) {
	t.Helper()
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.Net)
	}
	if sum.Abs().GreaterThan(amount("0.000001")) {
		t.Errorf("net balances sum to %s, want 0", sum)
	}
}

func TestComputeEvenSplit(t *testing.T) {
	roster := members("a", "b", "c")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("300"), SplitAmong: []string{"a", "b", "c"}},
	}

	balances := Compute(roster, expenses, nil)
	assertZeroSum(t, balances)

	if net := findNet(t, balances, "a"); !net.Equal(amount("200")) {
		t.Errorf("a net = %s, want 200", net)
	}
	for _, id := range []string{"b", "c"} {
		if net := findNet(t, balances, id); !net.Equal(amount("-100")) {
			t.Errorf("%s net = %s, want -100", id, net)
		}
	}
}

func TestComputeExclusion(t *testing.T) {
	// c is excluded: the split names only a and b.
	roster := members("a", "b", "c")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("100"), SplitAmong: []string{"a", "b"}},
	}

	balances := Compute(roster, expenses, nil)
	assertZeroSum(t, balances)

	if net := findNet(t, balances, "a"); !net.Equal(amount("50")) {
		t.Errorf("a net = %s, want 50", net)
	}
	if net := findNet(t, balances, "b"); !net.Equal(amount("-50")) {
		t.Errorf("b net = %s, want -50", net)
	}
	if net := findNet(t, balances, "c"); !net.IsZero() {
		t.Errorf("c net = %s, want 0", net)
	}
}

func TestComputeStaleSplitFallsBackToRoster(t *testing.T) {
	roster := members("a", "b")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("100"), SplitAmong: []string{"gone1", "gone2"}},
	}

	balances := Compute(roster, expenses, nil)
	assertZeroSum(t, balances)

	if net := findNet(t, balances, "a"); !net.Equal(amount("50")) {
		t.Errorf("a net = %s, want 50", net)
	}
	if net := findNet(t, balances, "b"); !net.Equal(amount("-50")) {
		t.Errorf("b net = %s, want -50", net)
	}
}

func TestComputePaymentsAdjust(t *testing.T) {
	roster := members("a", "b")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("100"), SplitAmong: []string{"a", "b"}},
	}
	payments := []*models.Payment{
		{FromID: "b", ToID: "a", Amount: amount("50")},
	}

	balances := Compute(roster, expenses, payments)
	assertZeroSum(t, balances)

	if net := findNet(t, balances, "a"); !net.IsZero() {
		t.Errorf("a net = %s, want 0 after settling", net)
	}
	if net := findNet(t, balances, "b"); !net.IsZero() {
		t.Errorf("b net = %s, want 0 after settling", net)
	}
}

func TestComputeDepartedPayerKeepsBooksClosed(t *testing.T) {
	roster := members("a", "b")
	expenses := []*models.Expense{
		{PayerID: "gone", PayerName: "Gone", Amount: amount("100"), SplitAmong: []string{"a", "b"}},
	}

	balances := Compute(roster, expenses, nil)
	assertZeroSum(t, balances)

	if net := findNet(t, balances, "gone"); !net.Equal(amount("100")) {
		t.Errorf("departed payer net = %s, want 100", net)
	}
}

func TestComputeUnevenSplitNearlyZeroSum(t *testing.T) {
	roster := members("a", "b", "c")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("100"), SplitAmong: []string{"a", "b", "c"}},
	}

	balances := Compute(roster, expenses, nil)
	assertZeroSum(t, balances)
}

func TestComputeOrdering(t *testing.T) {
	roster := members("a", "b", "c")
	expenses := []*models.Expense{
		{PayerID: "b", Amount: amount("300"), SplitAmong: []string{"a", "b", "c"}},
	}

	balances := Compute(roster, expenses, nil)
	if balances[0].MemberID != "b" {
		t.Errorf("first row is %s, want the creditor b", balances[0].MemberID)
	}
	if balances[0].Net.LessThan(balances[1].Net) || balances[1].Net.LessThan(balances[2].Net) {
		t.Error("balances are not sorted creditors first")
	}
}

func TestSettlements(t *testing.T) {
	roster := members("a", "b", "c")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("300"), SplitAmong: []string{"a", "b", "c"}},
		{PayerID: "b", Amount: amount("150"), SplitAmong: []string{"a", "b", "c"}},
	}

	balances := Compute(roster, expenses, nil)
	edges := Settlements(balances)

	// a fronted 300 (net +150), b fronted 150 (net 0), c owes 150.
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1: %+v", len(edges), edges)
	}
	e := edges[0]
	if e.FromID != "c" || e.ToID != "a" {
		t.Errorf("edge %s -> %s, want c -> a", e.FromID, e.ToID)
	}
	if !e.Amount.Equal(amount("150")) {
		t.Errorf("edge amount = %s, want 150", e.Amount)
	}
}

func TestSettlementsBalanced(t *testing.T) {
	roster := members("a", "b")
	expenses := []*models.Expense{
		{PayerID: "a", Amount: amount("100"), SplitAmong: []string{"a", "b"}},
		{PayerID: "b", Amount: amount("100"), SplitAmong: []string{"a", "b"}},
	}

	if edges := Settlements(Compute(roster, expenses, nil)); len(edges) != 0 {
		t.Errorf("balanced group should need no transfers, got %+v", edges)
	}
}
