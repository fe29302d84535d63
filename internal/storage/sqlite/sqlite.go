// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
//
// The store keeps a single database/sql pool over one file. Every
// operation first takes a permit from the concurrency gate: reads share
// the pool of MaxReaders permits, writes drain it and run alone. A
// permit that cannot be acquired within AcquireTimeout fails the
// operation with KindBusy instead of blocking indefinitely.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	// DefaultMaxReaders is the permit-pool size when Options leaves
	// MaxReaders unset.
	DefaultMaxReaders = 5

	// DefaultAcquireTimeout bounds the wait for a gate permit.
	DefaultAcquireTimeout = 5 * time.Second
)

// Options configures a SQLiteStore.
type Options struct {
	// Path is the database file location. Parent directories are
	// created if missing.
	Path string

	// MaxReaders is the number of concurrent read permits
	// (default 5). A write takes all of them.
	MaxReaders int

	// AcquireTimeout is the bounded wait for a permit; expiry fails
	// the operation with KindBusy.
	AcquireTimeout time.Duration
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db             *sql.DB
	gate           *gate
	acquireTimeout time.Duration
}

// New opens (or creates) the database file and prepares the store.
// It does not touch the schema: call Migrate before issuing any other
// operation.
func New(opts Options) (*SQLiteStore, error) {
	if opts.MaxReaders <= 0 {
		opts.MaxReaders = DefaultMaxReaders
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight; the gate
	// above bounds how many of them there are. The pragma reports the
	// resulting mode, so it has to be queried, not executed.
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxReaders + 1)

	return &SQLiteStore{
		db:             db,
		gate:           newGate(opts.MaxReaders),
		acquireTimeout: opts.AcquireTimeout,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// acquireRead takes a shared permit, returning its release func.
// A timed-out wait is reported as KindBusy.
func (s *SQLiteStore) acquireRead(ctx context.Context, op string) (func(), error) {
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	if err := s.gate.acquireRead(waitCtx); err != nil {
		return nil, storage.NewError(storage.KindBusy, op, fmt.Errorf("waiting for read permit: %w", err))
	}
	metrics.ObserveGateWait("read", time.Since(start))
	return s.gate.releaseRead, nil
}

// acquireWrite takes the exclusive permit, returning its release func.
func (s *SQLiteStore) acquireWrite(ctx context.Context, op string) (func(), error) {
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	if err := s.gate.acquireWrite(waitCtx); err != nil {
		return nil, storage.NewError(storage.KindBusy, op, fmt.Errorf("waiting for write permit: %w", err))
	}
	metrics.ObserveGateWait("write", time.Since(start))
	return s.gate.releaseWrite, nil
}

// done records the operation outcome. Every public operation returns
// through here exactly once. Unclassified failures are logged for
// diagnosis; the caller only ever sees the taxonomy kind.
func (s *SQLiteStore) done(op string, err error) error {
	metrics.ObserveOp(op, err)
	if err != nil && storage.KindOf(err) == storage.KindUnknown {
		slog.Warn("unclassified storage error", "op", op, "error", err)
	}
	return err
}
