package sqlite

import (
	"context"
	"database/sql"
	"errors"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/storage"
)

// errOp classifies err into the storage taxonomy at the point of
// origin. Errors that are already classified pass through unchanged,
// so an operation can pre-classify (e.g. a missing group as NotFound)
// and still funnel everything through one exit.
func errOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *storage.Error
	if errors.As(err, &se) {
		return err
	}
	return storage.NewError(kindOf(err), op, err)
}

// kindOf maps a low-level error to exactly one taxonomy kind. It is
// total: anything unrecognized maps to KindUnknown, never panics.
func kindOf(err error) storage.Kind {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return storage.KindBusy
	case errors.Is(err, calculator.ErrUnsupportedSplit),
		errors.Is(err, calculator.ErrNoMembers),
		errors.Is(err, calculator.ErrNegativeAmount):
		return storage.KindInvalidInput
	}

	var serr *sqlitedrv.Error
	if errors.As(err, &serr) {
		return kindOfCode(serr.Code())
	}
	return storage.KindUnknown
}

// kindOfCode maps a SQLite result code to a taxonomy kind. Extended
// codes carry the primary code in the low byte.
func kindOfCode(code int) storage.Kind {
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return storage.KindConflict
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return storage.KindBusy
	case sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE, sqlite3.SQLITE_FORMAT:
		return storage.KindSerialization
	case sqlite3.SQLITE_ERROR, sqlite3.SQLITE_INTERNAL, sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_FULL, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_CORRUPT,
		sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM,
		sqlite3.SQLITE_NOMEM, sqlite3.SQLITE_SCHEMA, sqlite3.SQLITE_INTERRUPT:
		return storage.KindEngine
	default:
		return storage.KindUnknown
	}
}
