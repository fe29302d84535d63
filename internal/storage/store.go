// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/tallyhq/tally/internal/models"
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the conversational layer.
//
// Every operation returns either a success value or a *storage.Error
// carrying exactly one Kind. Migrate must be called to completion before
// any other operation is issued; callers that skip it observe undefined
// schema state.
type Store interface {
	// Migrate brings the on-disk schema up to the version this binary
	// knows, applying pending migrations in ascending order. It is
	// idempotent: a second call on an up-to-date store is a no-op.
	Migrate(ctx context.Context) error

	// AddUser registers a user. Fails KindConflict if the user ID is
	// already registered.
	AddUser(ctx context.Context, user *models.User) error

	// GetUser fails KindNotFound if the user is absent.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// DeleteUser removes the user and all of their membership rows in
	// one transaction.
	DeleteUser(ctx context.Context, userID string) error

	// AddGroup inserts the group, assigns group.ID, and adds the
	// creator as the first member. Both writes commit together.
	AddGroup(ctx context.Context, group *models.Group) error

	// GetGroup fails KindNotFound if the group is absent.
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)

	// DeleteGroup removes the group's membership rows and the group
	// row in one transaction.
	DeleteGroup(ctx context.Context, groupID int64) error

	// AddUserToGroup joins a user to a group. The group-existence
	// check and the membership insert share one transaction; fails
	// KindNotFound if the group does not exist.
	AddUserToGroup(ctx context.Context, groupID int64, userID string) error

	// RemoveUserFromGroup deletes the membership row.
	RemoveUserFromGroup(ctx context.Context, groupID int64, userID string) error

	// GetGroupMembers returns the group's members in join order.
	// An empty group yields an empty slice, not an error.
	GetGroupMembers(ctx context.Context, groupID int64) ([]models.User, error)

	// GetMembership returns all groups the user belongs to.
	GetMembership(ctx context.Context, userID string) ([]models.GroupMembership, error)

	// AddExpense records an expense against its group, computes the
	// per-member shares under expense.SplitType, assigns expense.ID,
	// and inserts the expense and share rows in one transaction.
	// Fails KindNotFound if the group does not exist, KindInvalidInput
	// if the split policy is unsupported; neither writes any row.
	AddExpense(ctx context.Context, expense *models.Expense) error

	// GetExpenses returns all expenses recorded against the group.
	GetExpenses(ctx context.Context, groupID int64) ([]models.Expense, error)

	// GetUserExpenses returns all expenses the user holds a share of,
	// across groups.
	GetUserExpenses(ctx context.Context, userID string) ([]models.Expense, error)

	// GetExpenseShares returns the per-member breakdown of an expense.
	GetExpenseShares(ctx context.Context, expenseID int64) ([]models.ExpenseShare, error)

	// DeleteExpense removes the expense and its share rows in one
	// transaction.
	DeleteExpense(ctx context.Context, expenseID int64) error

	// Close releases any resources held by the store.
	Close() error
}
