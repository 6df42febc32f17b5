package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Domain errors for the store package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // handle missing record
//	}
var (
	// ErrUnknownTable is returned when a table is not an entity table.
	ErrUnknownTable = errors.New("store: unknown table")

	// ErrUnknownColumn is returned when a record names a column the table does not have.
	ErrUnknownColumn = errors.New("store: unknown column")

	// ErrMissingID is returned by Create when the record has no non-empty string id.
	ErrMissingID = errors.New("store: record has no id")

	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("store: not found")

	// ErrWriteConstraint is returned when a write violates a UNIQUE,
	// FOREIGN KEY, NOT NULL, or CHECK constraint.
	ErrWriteConstraint = errors.New("store: constraint violation")
)

// classifyWriteError tags SQLite constraint failures with ErrWriteConstraint.
// The driver message is kept so callers can show it verbatim.
func classifyWriteError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s: %w", ErrWriteConstraint, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
