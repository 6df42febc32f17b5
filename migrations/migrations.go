// Package migrations holds the TSK Pay schema: the embedded baseline
// script for fresh installs and the numbered upgrade steps that bring an
// older database file forward to CurrentVersion.
//
// A fresh database is created directly from Baseline and stamped with
// CurrentVersion; it never runs the individual steps. Every seed row
// introduced by a step must therefore also appear in schema.sql.
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/tskpay/tskpay-core/internal/store"
)

// CurrentVersion is the schema version this build of the engine writes.
const CurrentVersion = 5

// ProbeTable is the table whose absence marks an uninitialised database.
const ProbeTable = "parents"

// Baseline is the schema script for a fresh install at CurrentVersion.
//
//go:embed schema.sql
var Baseline string

// Step is one numbered schema or data transformation.
// Apply runs inside the caller's transaction and must not commit it.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sql.Tx) error
}

// Registry returns the upgrade steps keyed by the version they produce.
func Registry() map[int]Step {
	steps := []Step{
		{Version: 2, Name: "recurring_costs", Apply: addRecurringCosts},
		{Version: 3, Name: "member_parents", Apply: createMemberParents},
		{Version: 4, Name: "payment_payer_name", Apply: addPaymentPayerName},
		{Version: 5, Name: "samo_clani_group", Apply: seedSamoClaniGroup},
	}

	registry := make(map[int]Step, len(steps))
	for _, s := range steps {
		registry[s.Version] = s
	}
	return registry
}

// execAll runs statements in order, stopping at the first failure.
func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return nil
}

func addRecurringCosts(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		"ALTER TABLE costs ADD COLUMN is_recurring INTEGER DEFAULT 0",
		"ALTER TABLE costs ADD COLUMN recurring_period TEXT",
		"ALTER TABLE costs ADD COLUMN recurring_start_date TEXT",
		"ALTER TABLE costs ADD COLUMN recurring_end_date TEXT",
		"ALTER TABLE costs ADD COLUMN recurring_day_of_month INTEGER",
		"ALTER TABLE costs ADD COLUMN recurring_template_id TEXT",
	)
}

// createMemberParents adds the member/parent pivot and backfills it from
// the legacy members.parent_id column. Members pointing at a parent that
// no longer exists are skipped.
func createMemberParents(ctx context.Context, tx *sql.Tx) error {
	err := execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS member_parents (
			id          TEXT PRIMARY KEY,
			member_id   TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			parent_id   TEXT NOT NULL REFERENCES parents(id) ON DELETE CASCADE,
			created_at  TEXT,
			UNIQUE(member_id, parent_id)
		)`,
		"CREATE INDEX IF NOT EXISTS idx_member_parents_member ON member_parents(member_id)",
		"CREATE INDEX IF NOT EXISTS idx_member_parents_parent ON member_parents(parent_id)",
	)
	if err != nil {
		return err
	}

	type legacyLink struct {
		memberID  string
		parentID  string
		createdAt sql.NullString
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT m.id, m.parent_id, m.created_at
		FROM members m
		JOIN parents p ON p.id = m.parent_id
		WHERE m.parent_id IS NOT NULL AND m.parent_id != ''
		ORDER BY m.rowid`)
	if err != nil {
		return fmt.Errorf("querying legacy parent links: %w", err)
	}

	var links []legacyLink
	for rows.Next() {
		var l legacyLink
		if err := rows.Scan(&l.memberID, &l.parentID, &l.createdAt); err != nil {
			rows.Close()
			return fmt.Errorf("scanning legacy parent link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating legacy parent links: %w", err)
	}
	rows.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, l := range links {
		createdAt := now
		if l.createdAt.Valid && l.createdAt.String != "" {
			createdAt = l.createdAt.String
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO member_parents (id, member_id, parent_id, created_at) VALUES (?, ?, ?, ?)",
			store.MemberParentKey(l.memberID, l.parentID, 0), l.memberID, l.parentID, createdAt,
		)
		if err != nil {
			return fmt.Errorf("backfilling member %s: %w", l.memberID, err)
		}
	}

	return nil
}

func addPaymentPayerName(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, "ALTER TABLE payments ADD COLUMN payer_name TEXT")
}

func seedSamoClaniGroup(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		"INSERT OR IGNORE INTO coaches (id, name) VALUES ('coach-samo-clani', 'Samo člani')",
		"INSERT OR IGNORE INTO groups (id, name, coach_id) VALUES ('group-samo-clani', 'Samo člani', 'coach-samo-clani')",
	)
}
