package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// entityTables maps every table reachable through generic CRUD to its id prefix.
// member_parents and schema_version are deliberately absent.
var entityTables = map[string]string{
	"parents":             "par",
	"coaches":             "coa",
	"groups":              "grp",
	"members":             "mem",
	"cost_types":          "ct",
	"costs":               "cost",
	"payments":            "pay",
	"bank_statements":     "stmt",
	"bank_transactions":   "txn",
	"payment_allocations": "alloc",
	"audit_log":           "audit",
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tables returns the entity table names in sorted order.
func Tables() []string {
	names := make([]string, 0, len(entityTables))
	for name := range entityTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEntityTable reports whether table is reachable through generic CRUD.
func IsEntityTable(table string) bool {
	_, ok := entityTables[table]
	return ok
}

// NewID returns a fresh id for table in the form <prefix>-<uuid>.
func NewID(table string) (string, error) {
	prefix, ok := entityTables[table]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return prefix + "-" + uuid.NewString(), nil
}

func checkTable(table string) error {
	if !IsEntityTable(table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}

// quote returns an identifier for interpolation. Callers validate first.
func quote(identifier string) string {
	return `"` + identifier + `"`
}

// schemaCache holds the column allow-list per table, read from the live
// schema on first use.
type schemaCache struct {
	mu      sync.Mutex
	columns map[string]map[string]struct{}
}

func newSchemaCache() *schemaCache {
	return &schemaCache{columns: make(map[string]map[string]struct{})}
}

func (c *schemaCache) tableColumns(ctx context.Context, q Querier, table string) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cols, ok := c.columns[table]; ok {
		return cols, nil
	}

	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns of %s: %w", table, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q has no columns in this database", ErrUnknownTable, table)
	}

	c.columns[table] = cols
	return cols, nil
}

// checkColumns verifies every column exists in table.
func (c *schemaCache) checkColumns(ctx context.Context, q Querier, table string, columns []string) error {
	known, err := c.tableColumns(ctx, q, table)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if !identifierPattern.MatchString(col) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		if _, ok := known[col]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, col)
		}
	}
	return nil
}
