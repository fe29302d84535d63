package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// AddExpense records an expense and its per-member shares atomically.
//
// The group-existence check, the membership read, and all inserts share
// one transaction: the split is computed against the member list the
// expense commits with, and a failed split (unsupported policy, empty
// group) rejects the whole operation before any row is written. On
// success expense.ID carries the assigned ID.
func (s *SQLiteStore) AddExpense(ctx context.Context, expense *models.Expense) error {
	const op = "sqlite.AddExpense"

	release, err := s.acquireWrite(ctx, op)
	if err != nil {
		return s.done(op, err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.done(op, errOp(op, err))
	}
	defer tx.Rollback()

	if err := groupExists(ctx, tx, expense.GroupID); err != nil {
		return s.done(op, errOp(op, err))
	}

	members, err := queryGroupMembers(ctx, tx, expense.GroupID)
	if err != nil {
		return s.done(op, errOp(op, err))
	}

	shares, err := calculator.Split(expense.Amount, expense.SplitType, members)
	if err != nil {
		// Policy failures are input errors, not database errors;
		// nothing has been written yet.
		return s.done(op, storage.NewError(storage.KindInvalidInput, op, err))
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (added_by, group_id, amount, title, description, split_type)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.AddedBy, expense.GroupID, expense.Amount, expense.Title, expense.Description, expense.SplitType,
	)
	if err != nil {
		return s.done(op, errOp(op, fmt.Errorf("inserting expense %q: %w", expense.Title, err)))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return s.done(op, errOp(op, fmt.Errorf("reading assigned expense id: %w", err)))
	}

	for _, share := range shares {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_shares (user_id, expense_id, split) VALUES (?, ?, ?)`,
			share.UserID, id, share.Split,
		); err != nil {
			return s.done(op, errOp(op, fmt.Errorf("inserting share for %s: %w", share.UserID, err)))
		}
	}

	if err := tx.Commit(); err != nil {
		return s.done(op, errOp(op, err))
	}
	expense.ID = id
	return s.done(op, nil)
}

// GetExpenses returns all expenses recorded against the group, oldest
// first.
func (s *SQLiteStore) GetExpenses(ctx context.Context, groupID int64) ([]models.Expense, error) {
	const op = "sqlite.GetExpenses"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, added_by, group_id, amount, title, description, split_type
		 FROM expenses WHERE group_id = ? ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	return expenses, s.done(op, nil)
}

// GetUserExpenses returns every expense the user holds a share of,
// across all groups, oldest first.
func (s *SQLiteStore) GetUserExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	const op = "sqlite.GetUserExpenses"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.added_by, e.group_id, e.amount, e.title, e.description, e.split_type
		 FROM expenses e
		 JOIN expense_shares es ON es.expense_id = e.id
		 WHERE es.user_id = ?
		 ORDER BY e.id`,
		userID,
	)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	return expenses, s.done(op, nil)
}

// GetExpenseShares returns the per-member breakdown of an expense in
// the order the shares were written (member join order).
func (s *SQLiteStore) GetExpenseShares(ctx context.Context, expenseID int64) ([]models.ExpenseShare, error) {
	const op = "sqlite.GetExpenseShares"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, expense_id, split FROM expense_shares WHERE expense_id = ? ORDER BY rowid`,
		expenseID,
	)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	defer rows.Close()

	var shares []models.ExpenseShare
	for rows.Next() {
		var sh models.ExpenseShare
		if err := rows.Scan(&sh.UserID, &sh.ExpenseID, &sh.Split); err != nil {
			return nil, s.done(op, errOp(op, fmt.Errorf("scanning share: %w", err)))
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	return shares, s.done(op, nil)
}

// DeleteExpense removes the expense and its share rows in one
// transaction.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID int64) error {
	const op = "sqlite.DeleteExpense"

	release, err := s.acquireWrite(ctx, op)
	if err != nil {
		return s.done(op, err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.done(op, errOp(op, err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = ?`, expenseID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting shares of expense %d: %w", expenseID, err)))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting expense %d: %w", expenseID, err)))
	}
	return s.done(op, errOp(op, tx.Commit()))
}

func scanExpenses(rows *sql.Rows) ([]models.Expense, error) {
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.AddedBy, &e.GroupID, &e.Amount, &e.Title, &e.Description, &e.SplitType); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}
	return expenses, nil
}
