package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

func appliedVersions(t *testing.T, store *SQLiteStore) []int64 {
	t.Helper()
	rows, err := store.db.Query(`SELECT version FROM migrations ORDER BY version`)
	if err != nil {
		t.Fatalf("querying migrations: %v", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scanning version: %v", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating versions: %v", err)
	}
	return versions
}

func TestMigrateFreshStore(t *testing.T) {
	store := newTestStore(t)

	versions := appliedVersions(t, store)
	if len(versions) != len(migrationList) {
		t.Fatalf("got versions %v, want all %d known migrations", versions, len(migrationList))
	}
	for i, m := range migrationList {
		if versions[i] != m.Version {
			t.Errorf("version %d = %d, want %d (ascending order)", i, versions[i], m.Version)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	before := appliedVersions(t, store)

	for i := 0; i < 3; i++ {
		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("repeat Migrate failed: %v", err)
		}
	}

	after := appliedVersions(t, store)
	if len(after) != len(before) {
		t.Errorf("record count changed from %d to %d", len(before), len(after))
	}
}

func TestMigrateSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := New(Options{Path: dbPath})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	addUser(t, store, "alice")
	store.Close()

	reopened, err := New(Options{Path: dbPath})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("Migrate after reopen failed: %v", err)
	}

	if n := len(appliedVersions(t, reopened)); n != len(migrationList) {
		t.Errorf("got %d migration records after reopen, want %d", n, len(migrationList))
	}
	if _, err := reopened.GetUser(ctx, "alice"); err != nil {
		t.Errorf("data lost across reopen: %v", err)
	}
}

// TestMigrateAppliesOnlyPending rolls the store back to version 1 by
// hand and checks that Migrate re-applies version 2 alone, leaving
// version 1 data untouched.
func TestMigrateAppliesOnlyPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	addUser(t, store, "alice")

	undoV2 := []string{
		`DELETE FROM migrations WHERE version = 2`,
		`DROP INDEX idx_group_members_group_id`,
		`DROP INDEX idx_expenses_group_id`,
		`DROP INDEX idx_expense_shares_expense_id`,
	}
	for _, stmt := range undoV2 {
		if _, err := store.db.Exec(stmt); err != nil {
			t.Fatalf("undoing version 2: %v", err)
		}
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	versions := appliedVersions(t, store)
	want := []int64{1, 2}
	if len(versions) != len(want) || versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("got versions %v, want %v", versions, want)
	}
	if _, err := store.GetUser(ctx, "alice"); err != nil {
		t.Errorf("version 1 data touched by re-applying version 2: %v", err)
	}
}

func TestMigrateRejectsFutureSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.db.Exec(
		`INSERT INTO migrations (version, applied_at) VALUES (99, '2030-01-01T00:00:00Z')`,
	); err != nil {
		t.Fatalf("inserting future version: %v", err)
	}

	err := store.Migrate(ctx)
	if err == nil {
		t.Fatal("expected Migrate to fail on a future schema version")
	}
	if storage.KindOf(err) != storage.KindEngine {
		t.Errorf("got kind %s, want engine", storage.KindOf(err))
	}
}

// A migration whose statements fail must leave no record, so the next
// startup can retry from the same version.
func TestMigrateFailureLeavesNoRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bad := migration{
		Version:    3,
		Name:       "broken",
		Statements: `CREATE TABLE valid (id INTEGER); THIS IS NOT SQL;`,
	}
	if err := store.applyMigration(ctx, bad); err == nil {
		t.Fatal("expected broken migration to fail")
	}

	for _, v := range appliedVersions(t, store) {
		if v == bad.Version {
			t.Fatal("failed migration left a version record")
		}
	}
	var n int
	err := store.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'valid'`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("checking table: %v", err)
	}
	if n != 0 {
		t.Error("failed migration left partial schema behind")
	}
}

func TestStoreUnusableBeforeMigrate(t *testing.T) {
	store, err := New(Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	// No schema yet: operations fail, and with a classified kind
	// rather than a raw driver error.
	err = store.AddUser(context.Background(), &models.User{ID: "alice"})
	if err == nil {
		t.Fatal("expected failure before Migrate")
	}
	var se *storage.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *storage.Error, got %T: %v", err, err)
	}
}
