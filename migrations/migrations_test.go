package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestRegistry(t *testing.T) {
	registry := Registry()

	for v := 2; v <= CurrentVersion; v++ {
		step, ok := registry[v]
		if !ok {
			t.Errorf("no step registered for version %d", v)
			continue
		}
		if step.Version != v {
			t.Errorf("registry[%d].Version = %d", v, step.Version)
		}
		if step.Name == "" || step.Apply == nil {
			t.Errorf("registry[%d] is incomplete: %+v", v, step)
		}
	}

	for v := range registry {
		if v <= 1 || v > CurrentVersion {
			t.Errorf("step %d is outside 2..%d", v, CurrentVersion)
		}
	}
}

func TestBaseline(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "baseline.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, Baseline); err != nil {
		t.Fatalf("executing baseline: %v", err)
	}

	var probe string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", ProbeTable).Scan(&probe)
	if err != nil {
		t.Fatalf("probe table %s missing: %v", ProbeTable, err)
	}

	var versionTables int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE name = 'schema_version'").Scan(&versionTables)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if versionTables != 0 {
		t.Error("baseline must leave schema_version to the runner")
	}

	var groupCoach string
	err = db.QueryRowContext(ctx,
		"SELECT coach_id FROM groups WHERE id = 'group-samo-clani'").Scan(&groupCoach)
	if err != nil {
		t.Fatalf("seeded group missing: %v", err)
	}
	if groupCoach != "coach-samo-clani" {
		t.Errorf("seeded group coach = %q", groupCoach)
	}
}

func TestSeedSamoClaniGroup_Reapplicable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "seed.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, Baseline); err != nil {
		t.Fatalf("executing baseline: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	defer tx.Rollback() //nolint:errcheck // Test cleanup

	if err := Registry()[5].Apply(ctx, tx); err != nil {
		t.Fatalf("re-applying seed step: %v", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM coaches").Scan(&n); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if n != 1 {
		t.Errorf("coaches = %d, want 1", n)
	}
}
