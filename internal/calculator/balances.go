package calculator

import (
	"sort"

	"github.com/tallyhq/tally/internal/models"
)

// ExpenseForBalance carries the minimal expense information needed for
// balance aggregation: who paid, how much, and the recorded shares.
type ExpenseForBalance struct {
	PayerID string
	Amount  int64
	Shares  []models.ExpenseShare
}

// MemberBalance is the aggregated position of one group member.
// All amounts are in the smallest currency unit.
type MemberBalance struct {
	UserID     string
	NetBalance int64 // positive = owed money, negative = owes money
	TotalPaid  int64 // total paid across all expenses
	TotalOwed  int64 // total of this member's shares
}

// DebtEdge represents a suggested settlement payment.
type DebtEdge struct {
	From   string // member who owes
	To     string // member who is owed
	Amount int64
}

// GroupBalances aggregates who paid what and who owes what across a
// group's expenses, returning per-member balances and a simplified set
// of settlement payments.
//
// For each expense the payer contributed +amount and every share holder
// owes their split. Net balance is total_paid - total_owed; because the
// shares of each expense sum to exactly its amount, the net balances of
// a group always sum to zero. Settlement edges come from a greedy
// match of debtors against creditors.
func GroupBalances(expenses []ExpenseForBalance) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	member := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{UserID: id}
			balances[id] = b
		}
		return b
	}

	for _, e := range expenses {
		member(e.PayerID).TotalPaid += e.Amount
		for _, share := range e.Shares {
			member(share.UserID).TotalOwed += share.Split
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.NetBalance = b.TotalPaid - b.TotalOwed
		result = append(result, *b)
	}
	// Map iteration order is random; sort for deterministic output.
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result, simplifyDebts(result)
}

// simplifyDebts matches debtors against creditors greedily so the
// whole group settles in at most members-1 payments.
func simplifyDebts(balances []MemberBalance) []DebtEdge {
	var debtors, creditors []MemberBalance
	for _, b := range balances {
		switch {
		case b.NetBalance < 0:
			debtors = append(debtors, b)
		case b.NetBalance > 0:
			creditors = append(creditors, b)
		}
	}

	var edges []DebtEdge
	i, j := 0, 0
	owes := int64(0)
	owed := int64(0)
	for i < len(debtors) && j < len(creditors) {
		if owes == 0 {
			owes = -debtors[i].NetBalance
		}
		if owed == 0 {
			owed = creditors[j].NetBalance
		}

		amount := min(owes, owed)
		if amount > 0 {
			edges = append(edges, DebtEdge{
				From:   debtors[i].UserID,
				To:     creditors[j].UserID,
				Amount: amount,
			})
		}

		owes -= amount
		owed -= amount
		if owes == 0 {
			i++
		}
		if owed == 0 {
			j++
		}
	}
	return edges
}
