package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tskpay/tskpay-core/internal/infrastructure/config"
)

// Manager hands out bootstrapped connections to the database file.
//
// Every Connect call opens a fresh connection and runs the Migrator on it
// before returning, so callers never observe a half-initialised schema.
type Manager struct {
	location    Location
	busyTimeout int
	migrator    *Migrator
	logger      Logger
}

// Status describes the database file without modifying it.
type Status struct {
	Path          string `json:"path"`
	Exists        bool   `json:"exists"`
	Version       int    `json:"version"`
	EngineVersion int    `json:"engineVersion"`
}

// NewManager creates a Manager for the given location.
func NewManager(location Location, busyTimeout int) *Manager {
	return &Manager{
		location:    location,
		busyTimeout: busyTimeout,
		migrator:    NewMigrator(),
		logger:      noopLogger{},
	}
}

// NewManagerFromConfig creates a Manager from application configuration.
func NewManagerFromConfig(cfg *config.Config) *Manager {
	return NewManager(LocationFromConfig(cfg), cfg.Database.BusyTimeout)
}

// SetMigrator replaces the Migrator used on Connect.
func (m *Manager) SetMigrator(migrator *Migrator) {
	migrator.SetLogger(m.logger)
	m.migrator = migrator
}

// SetLogger sets the logger for connection and bootstrap events.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
	m.migrator.SetLogger(logger)
}

// Path resolves the database file path, creating its directory.
// Backup tooling uses this to find the file to copy.
func (m *Manager) Path() (string, error) {
	return m.location.Resolve()
}

// Connect opens a new connection and bootstraps the schema.
// The caller owns the returned DB and must close it.
func (m *Manager) Connect(ctx context.Context) (*DB, error) {
	path, err := m.Path()
	if err != nil {
		return nil, err
	}

	db, err := Open(ctx, Config{Path: path, BusyTimeout: m.busyTimeout})
	if err != nil {
		return nil, err
	}

	if _, err := m.migrator.Run(ctx, db); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("bootstrapping %s: %w", path, err)
	}

	// Cascading deletes on member_parents depend on enforcement
	enabled, err := db.ForeignKeysEnabled(ctx)
	if err == nil && !enabled {
		err = errors.New("foreign key enforcement is off")
	}
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return db, nil
}

// Init bootstraps the database and reports what was done.
func (m *Manager) Init(ctx context.Context) (Report, error) {
	path, err := m.Path()
	if err != nil {
		return Report{}, err
	}

	db, err := Open(ctx, Config{Path: path, BusyTimeout: m.busyTimeout})
	if err != nil {
		return Report{}, err
	}
	defer db.Close() //nolint:errcheck // Read-only after commit

	report, err := m.migrator.Run(ctx, db)
	if err != nil {
		return Report{}, fmt.Errorf("bootstrapping %s: %w", path, err)
	}

	m.logger.Info("database ready", "path", path, "version", report.To)
	return report, nil
}

// Status inspects the database file without creating or migrating it.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	path, err := m.Path()
	if err != nil {
		return Status{}, err
	}

	status := Status{Path: path, EngineVersion: m.migrator.Target()}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status, nil
		}
		return Status{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	status.Exists = true

	db, err := Open(ctx, Config{Path: path, BusyTimeout: m.busyTimeout})
	if err != nil {
		return Status{}, err
	}
	defer db.Close() //nolint:errcheck // Read-only

	status.Version, err = SchemaVersion(ctx, db)
	if err != nil {
		return Status{}, err
	}

	return status, nil
}
