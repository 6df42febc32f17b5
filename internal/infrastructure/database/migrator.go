package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tskpay/tskpay-core/migrations"
)

// Logger is the logging surface used by the bootstrap layer.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Report describes what a bootstrap run did.
type Report struct {
	// Created is true when the baseline schema was created.
	Created bool `json:"created"`

	// From is the stored version found before the run (0 when unversioned).
	From int `json:"from"`

	// To is the stored version after the run.
	To int `json:"to"`

	// Applied lists the upgrade steps executed, in order.
	Applied []int `json:"applied"`
}

// Migrator brings a database file to a target schema version.
//
// The baseline creation, every upgrade step, and the version marker
// update run in one transaction: a failure anywhere leaves the file as
// it was before the run.
type Migrator struct {
	baseline   string
	probeTable string
	steps      map[int]migrations.Step
	target     int
	logger     Logger
}

// NewMigrator returns a Migrator for the engine's current schema.
func NewMigrator() *Migrator {
	return NewMigratorWith(migrations.Baseline, migrations.Registry(), migrations.CurrentVersion)
}

// NewMigratorWith returns a Migrator over an explicit baseline, step
// registry, and target version.
func NewMigratorWith(baseline string, steps map[int]migrations.Step, target int) *Migrator {
	return &Migrator{
		baseline:   baseline,
		probeTable: migrations.ProbeTable,
		steps:      steps,
		target:     target,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for bootstrap events.
func (m *Migrator) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Target returns the version the Migrator brings databases to.
func (m *Migrator) Target() int {
	return m.target
}

// Run bootstraps db.
//
//  1. If the probe table is missing, the baseline script is executed.
//  2. The schema_version table is created if missing.
//  3. With no stored version, the target version is recorded.
//  4. With an older stored version, every registered step in
//     stored+1..target runs in ascending order and the marker advances.
//
// A stored version newer than the target is left untouched.
func (m *Migrator) Run(ctx context.Context, db *DB) (Report, error) {
	report := Report{}

	exists, err := tableExists(ctx, db.DB, m.probeTable)
	if err != nil {
		return report, fmt.Errorf("%w: probing schema: %w", ErrConnection, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if !exists {
		if _, err := tx.ExecContext(ctx, m.baseline); err != nil {
			return report, fmt.Errorf("%w: creating baseline schema: %w", ErrSchemaExecution, err)
		}
		report.Created = true
	}

	if _, err := tx.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return report, fmt.Errorf("%w: creating schema_version: %w", ErrSchemaExecution, err)
	}

	stored, found, err := readVersion(ctx, tx)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrSchemaExecution, err)
	}

	switch {
	case !found:
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", m.target); err != nil {
			return report, fmt.Errorf("%w: recording schema version: %w", ErrSchemaExecution, err)
		}
		report.To = m.target

	case stored < m.target:
		report.From = stored
		applied, err := m.upgrade(ctx, tx, stored)
		if err != nil {
			return report, err
		}
		report.Applied = applied

		if _, err := tx.ExecContext(ctx,
			"UPDATE schema_version SET version = ?", m.target); err != nil {
			return report, fmt.Errorf("%w: advancing schema version: %w", ErrMigration, err)
		}
		report.To = m.target

	default:
		report.From = stored
		report.To = stored
		if stored > m.target {
			m.logger.Warn("database schema is newer than this build",
				"stored_version", stored,
				"engine_version", m.target,
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return Report{}, fmt.Errorf("%w: committing transaction: %w", ErrSchemaExecution, err)
	}

	switch {
	case report.Created:
		m.logger.Info("database schema created", "version", report.To)
	case len(report.Applied) > 0 || report.From != report.To:
		m.logger.Info("database schema upgraded", "from", report.From, "to", report.To)
	}

	return report, nil
}

func (m *Migrator) upgrade(ctx context.Context, tx *sql.Tx, stored int) ([]int, error) {
	var applied []int
	for v := stored + 1; v <= m.target; v++ {
		step, ok := m.steps[v]
		if !ok {
			continue
		}

		m.logger.Info("applying migration", "version", v, "name", step.Name)
		if err := step.Apply(ctx, tx); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrMigration, v, step.Name, err)
		}
		applied = append(applied, v)
	}
	return applied, nil
}

// SchemaVersion returns the stored schema version, or 0 when the database
// has never been bootstrapped.
func SchemaVersion(ctx context.Context, db *DB) (int, error) {
	exists, err := tableExists(ctx, db.DB, "schema_version")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func readVersion(ctx context.Context, tx *sql.Tx) (int, bool, error) {
	var version int
	err := tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return version, true, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q rowQuerier, name string) (bool, error) {
	var found string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
