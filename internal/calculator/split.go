// Package calculator implements the pure expense-split computations.
// It has no storage dependencies; the store calls it before writing
// share rows.
package calculator

import (
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

var (
	// ErrUnsupportedSplit is returned for split-policy codes the
	// calculator does not implement. The store rejects the expense
	// before any row is written.
	ErrUnsupportedSplit = errors.New("unsupported split type")

	// ErrNoMembers is returned when an expense would be split across
	// an empty member list.
	ErrNoMembers = errors.New("group has no members")

	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// splitFunc partitions amount across members, returning one share per
// member. Implementations must produce shares that sum to exactly
// amount.
type splitFunc func(amount int64, members []models.User) ([]models.ExpenseShare, error)

// policies dispatches split-type codes to their implementation.
// Adding Percent or Amount later is a table entry, not a structural
// change. Codes absent from the table fail with ErrUnsupportedSplit.
var policies = map[models.SplitType]splitFunc{
	models.SplitEqual: splitEqual,
}

// Split computes the per-member breakdown of amount under the given
// policy. The returned shares are in members order and sum to exactly
// amount; ExpenseID is left zero for the store to fill in.
func Split(amount int64, splitType models.SplitType, members []models.User) ([]models.ExpenseShare, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	fn, ok := policies[splitType]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%d)", ErrUnsupportedSplit, splitType, splitType)
	}
	return fn(amount, members)
}

// splitEqual divides amount evenly. Integer division leaves a
// remainder of up to len(members)-1 units; those units go to the first
// members in join order, one each, so the shares always sum to exactly
// amount. The rule is deterministic: the same group and amount always
// produce the same breakdown.
func splitEqual(amount int64, members []models.User) ([]models.ExpenseShare, error) {
	n := int64(len(members))
	base := amount / n
	remainder := amount % n

	shares := make([]models.ExpenseShare, len(members))
	for i, m := range members {
		split := base
		if int64(i) < remainder {
			split++
		}
		shares[i] = models.ExpenseShare{UserID: m.ID, Split: split}
	}
	return shares, nil
}
