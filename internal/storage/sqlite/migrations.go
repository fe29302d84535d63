package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/storage"
)

// migration is one immutable, versioned schema change. Statements and
// the metadata record for a version commit in one transaction, so a
// crash can never record a version whose statements did not fully
// apply, or the reverse.
type migration struct {
	Version    int64
	Name       string
	Statements string
}

// migrationList is the static, version-ordered list of schema changes
// this binary knows. Entries are immutable once shipped: evolve the
// schema by appending, never by editing an existing entry.
var migrationList = []migration{
	{
		Version: 1,
		Name:    "base tables",
		Statements: `
CREATE TABLE users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    username TEXT NOT NULL
);

CREATE TABLE groups (
    group_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL
);

CREATE TABLE group_members (
    user_id TEXT NOT NULL,
    group_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, group_id)
);

CREATE TABLE expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    added_by TEXT NOT NULL,
    group_id INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    split_type INTEGER NOT NULL
);

CREATE TABLE expense_shares (
    user_id TEXT NOT NULL,
    expense_id INTEGER NOT NULL,
    split INTEGER NOT NULL,
    PRIMARY KEY (user_id, expense_id)
);
`,
	},
	{
		Version: 2,
		Name:    "secondary indexes",
		Statements: `
CREATE INDEX idx_group_members_group_id ON group_members(group_id);
CREATE INDEX idx_expenses_group_id ON expenses(group_id);
CREATE INDEX idx_expense_shares_expense_id ON expense_shares(expense_id);
`,
	},
}

// Migrate brings the on-disk schema up to the newest version in
// migrationList, applying pending migrations in ascending order, one
// transaction each. Calling it on an up-to-date store is a no-op.
//
// A store whose recorded version is newer than this binary's list is
// an unknown future schema; Migrate fails with KindEngine rather than
// guess, and the process must not proceed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const op = "sqlite.Migrate"

	release, err := s.acquireWrite(ctx, op)
	if err != nil {
		return s.done(op, err)
	}
	defer release()

	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`,
	); err != nil {
		return s.done(op, storage.NewError(storage.KindEngine, op, fmt.Errorf("creating migrations table: %w", err)))
	}

	var last int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM migrations`).Scan(&last); err != nil {
		return s.done(op, storage.NewError(storage.KindEngine, op, fmt.Errorf("reading schema version: %w", err)))
	}

	newest := migrationList[len(migrationList)-1].Version
	if last > newest {
		return s.done(op, storage.NewError(storage.KindEngine, op,
			fmt.Errorf("store is at schema version %d but this binary only knows up to %d", last, newest)))
	}

	for _, m := range migrationList {
		if m.Version <= last {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return s.done(op, err)
		}
		slog.Info("applied schema migration", "version", m.Version, "name", m.Name)
		metrics.MigrationsApplied.Inc()
	}
	return s.done(op, nil)
}

// applyMigration runs one migration's statements and records its
// version, committing both together. On failure the transaction rolls
// back and the store stays at its pre-migration version, so a retry on
// the next startup is safe.
func (s *SQLiteStore) applyMigration(ctx context.Context, m migration) error {
	const op = "sqlite.Migrate"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewError(storage.KindEngine, op, fmt.Errorf("migration %d: begin: %w", m.Version, err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Statements); err != nil {
		return storage.NewError(storage.KindEngine, op, fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err))
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO migrations (version, applied_at) VALUES (?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return storage.NewError(storage.KindEngine, op, fmt.Errorf("migration %d: recording version: %w", m.Version, err))
	}
	if err := tx.Commit(); err != nil {
		return storage.NewError(storage.KindEngine, op, fmt.Errorf("migration %d: commit: %w", m.Version, err))
	}
	return nil
}
