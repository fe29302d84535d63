package sqlite

import (
	"context"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// AddUser registers a user. A duplicate user ID violates the primary
// key and surfaces as KindConflict.
func (s *SQLiteStore) AddUser(ctx context.Context, user *models.User) error {
	const op = "sqlite.AddUser"

	release, err := s.acquireWrite(ctx, op)
	if err != nil {
		return s.done(op, err)
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, username) VALUES (?, ?, ?)`,
		user.ID, user.Name, user.Username,
	)
	if err != nil {
		return s.done(op, errOp(op, fmt.Errorf("inserting user %s: %w", user.ID, err)))
	}
	return s.done(op, nil)
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "sqlite.GetUser"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	user := &models.User{}
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, name, username FROM users WHERE user_id = ?`,
		userID,
	).Scan(&user.ID, &user.Name, &user.Username)
	if err != nil {
		return nil, s.done(op, errOp(op, fmt.Errorf("user %s: %w", userID, err)))
	}
	return user, s.done(op, nil)
}

// DeleteUser removes the user row and all of the user's membership
// rows in one transaction.
func (s *SQLiteStore) DeleteUser(ctx context.Context, userID string) error {
	const op = "sqlite.DeleteUser"

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

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE user_id = ?`, userID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting memberships of %s: %w", userID, err)))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting user %s: %w", userID, err)))
	}
	return s.done(op, errOp(op, tx.Commit()))
}

// GetMembership returns all groups the user belongs to, oldest join
// first.
func (s *SQLiteStore) GetMembership(ctx context.Context, userID string) ([]models.GroupMembership, error) {
	const op = "sqlite.GetMembership"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, group_id FROM group_members WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	defer rows.Close()

	var memberships []models.GroupMembership
	for rows.Next() {
		var m models.GroupMembership
		if err := rows.Scan(&m.UserID, &m.GroupID); err != nil {
			return nil, s.done(op, errOp(op, fmt.Errorf("scanning membership: %w", err)))
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	return memberships, s.done(op, nil)
}
