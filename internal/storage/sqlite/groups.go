package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// AddGroup inserts the group and joins the creator as its first
// member. Both writes commit together or neither does; on success
// group.ID carries the assigned ID.
func (s *SQLiteStore) AddGroup(ctx context.Context, group *models.Group) error {
	const op = "sqlite.AddGroup"

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

	res, err := tx.ExecContext(ctx,
		`INSERT INTO groups (name, description, created_by) VALUES (?, ?, ?)`,
		group.Name, group.Description, group.CreatedBy,
	)
	if err != nil {
		return s.done(op, errOp(op, fmt.Errorf("inserting group %q: %w", group.Name, err)))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return s.done(op, errOp(op, fmt.Errorf("reading assigned group id: %w", err)))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (user_id, group_id) VALUES (?, ?)`,
		group.CreatedBy, id,
	); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("joining creator %s: %w", group.CreatedBy, err)))
	}

	if err := tx.Commit(); err != nil {
		return s.done(op, errOp(op, err))
	}
	group.ID = id
	return s.done(op, nil)
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	const op = "sqlite.GetGroup"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	group := &models.Group{}
	err = s.db.QueryRowContext(ctx,
		`SELECT group_id, name, description, created_by FROM groups WHERE group_id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy)
	if err != nil {
		return nil, s.done(op, errOp(op, fmt.Errorf("group %d: %w", groupID, err)))
	}
	return group, s.done(op, nil)
}

// DeleteGroup removes the group's membership rows and the group row in
// one transaction.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID int64) error {
	const op = "sqlite.DeleteGroup"

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

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting memberships of group %d: %w", groupID, err)))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE group_id = ?`, groupID); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("deleting group %d: %w", groupID, err)))
	}
	return s.done(op, errOp(op, tx.Commit()))
}

// AddUserToGroup joins a user to an existing group. The existence
// check and the insert share one transaction, so a group deleted
// concurrently cannot gain a membership row.
func (s *SQLiteStore) AddUserToGroup(ctx context.Context, groupID int64, userID string) error {
	const op = "sqlite.AddUserToGroup"

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

	if err := groupExists(ctx, tx, groupID); err != nil {
		return s.done(op, errOp(op, err))
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (user_id, group_id) VALUES (?, ?)`,
		userID, groupID,
	); err != nil {
		return s.done(op, errOp(op, fmt.Errorf("joining %s to group %d: %w", userID, groupID, err)))
	}
	return s.done(op, errOp(op, tx.Commit()))
}

// RemoveUserFromGroup deletes the membership row. Removing an absent
// membership is a no-op, not an error.
func (s *SQLiteStore) RemoveUserFromGroup(ctx context.Context, groupID int64, userID string) error {
	const op = "sqlite.RemoveUserFromGroup"

	release, err := s.acquireWrite(ctx, op)
	if err != nil {
		return s.done(op, err)
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	return s.done(op, errOp(op, err))
}

// GetGroupMembers returns the group's members in join order. An empty
// or unknown group yields an empty slice.
func (s *SQLiteStore) GetGroupMembers(ctx context.Context, groupID int64) ([]models.User, error) {
	const op = "sqlite.GetGroupMembers"

	release, err := s.acquireRead(ctx, op)
	if err != nil {
		return nil, s.done(op, err)
	}
	defer release()

	members, err := queryGroupMembers(ctx, s.db, groupID)
	if err != nil {
		return nil, s.done(op, errOp(op, err))
	}
	return members, s.done(op, nil)
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so member listing can run standalone or inside a write transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryGroupMembers lists a group's members ordered by when they
// joined (membership rowid).
func queryGroupMembers(ctx context.Context, q querier, groupID int64) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.user_id, u.name, u.username
		FROM users u
		JOIN group_members gm ON gm.user_id = u.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying members of group %d: %w", groupID, err)
	}
	defer rows.Close()

	var members []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

// groupExists fails with KindNotFound when the group is absent. Run it
// inside the transaction of any write that depends on the group.
func groupExists(ctx context.Context, q querier, groupID int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT group_id FROM groups WHERE group_id = ?`, groupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NewError(storage.KindNotFound, "sqlite.groupExists", fmt.Errorf("group %d does not exist", groupID))
	}
	return err
}
