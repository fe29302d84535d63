package calculator

import (
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func TestGroupBalances(t *testing.T) {
	// alice paid 100 split 50/50 with bob; bob paid 30 split 10/10/10
	// with alice and carol.
	expenses := []ExpenseForBalance{
		{
			PayerID: "alice",
			Amount:  100,
			Shares: []models.ExpenseShare{
				{UserID: "alice", Split: 50},
				{UserID: "bob", Split: 50},
			},
		},
		{
			PayerID: "bob",
			Amount:  30,
			Shares: []models.ExpenseShare{
				{UserID: "alice", Split: 10},
				{UserID: "bob", Split: 10},
				{UserID: "carol", Split: 10},
			},
		},
	}

	balances, edges := GroupBalances(expenses)

	want := map[string]MemberBalance{
		"alice": {UserID: "alice", TotalPaid: 100, TotalOwed: 60, NetBalance: 40},
		"bob":   {UserID: "bob", TotalPaid: 30, TotalOwed: 60, NetBalance: -30},
		"carol": {UserID: "carol", TotalPaid: 0, TotalOwed: 10, NetBalance: -10},
	}
	if len(balances) != len(want) {
		t.Fatalf("got %d balances, want %d", len(balances), len(want))
	}
	var net int64
	for _, b := range balances {
		net += b.NetBalance
		if b != want[b.UserID] {
			t.Errorf("balance for %s = %+v, want %+v", b.UserID, b, want[b.UserID])
		}
	}
	if net != 0 {
		t.Errorf("net balances sum to %d, want 0", net)
	}

	// bob owes alice 30, carol owes alice 10.
	wantEdges := []DebtEdge{
		{From: "bob", To: "alice", Amount: 30},
		{From: "carol", To: "alice", Amount: 10},
	}
	if len(edges) != len(wantEdges) {
		t.Fatalf("got edges %+v, want %+v", edges, wantEdges)
	}
	for i, e := range edges {
		if e != wantEdges[i] {
			t.Errorf("edge %d = %+v, want %+v", i, e, wantEdges[i])
		}
	}
}

func TestGroupBalancesSettled(t *testing.T) {
	// Everyone pays exactly their own share: nothing to settle.
	expenses := []ExpenseForBalance{
		{PayerID: "alice", Amount: 20, Shares: []models.ExpenseShare{{UserID: "alice", Split: 20}}},
		{PayerID: "bob", Amount: 20, Shares: []models.ExpenseShare{{UserID: "bob", Split: 20}}},
	}

	balances, edges := GroupBalances(expenses)
	for _, b := range balances {
		if b.NetBalance != 0 {
			t.Errorf("%s net balance = %d, want 0", b.UserID, b.NetBalance)
		}
	}
	if len(edges) != 0 {
		t.Errorf("expected no settlement edges, got %+v", edges)
	}
}

func TestGroupBalancesEmpty(t *testing.T) {
	balances, edges := GroupBalances(nil)
	if len(balances) != 0 || len(edges) != 0 {
		t.Errorf("expected empty results, got %+v / %+v", balances, edges)
	}
}
