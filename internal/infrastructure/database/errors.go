package database

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the connection and bootstrap layer.
var (
	// ErrPathResolution is returned when the data directory cannot be
	// determined or created.
	ErrPathResolution = errors.New("database: cannot resolve data directory")

	// ErrConnection is returned when the database file cannot be opened or read.
	ErrConnection = errors.New("database: cannot open database")

	// ErrSchemaExecution is returned when baseline schema creation fails.
	ErrSchemaExecution = errors.New("database: schema execution failed")

	// ErrMigration is returned when an upgrade step fails.
	// It also matches ErrSchemaExecution.
	ErrMigration = fmt.Errorf("%w: migration failed", ErrSchemaExecution)
)
