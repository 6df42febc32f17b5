// Package audit reads and writes the audit_log table.
//
// The desktop shell records user actions through generic CRUD. The engine
// itself adds entries for file-level events such as a database import,
// and the CLI lists the trail with filters.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tskpay/tskpay-core/internal/store"
)

const (
	table        = "audit_log"
	defaultLimit = 50
	maxLimit     = 200
)

// Actions written by the engine.
const (
	ActionDatabaseImport = "database_import"
)

// Entry represents a single audit trail entry.
type Entry struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Description string         `json:"description,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	UserName    string         `json:"user_name,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Details     map[string]any `json:"details,omitempty"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action string // optional: exact action match
	UserID string // optional: exact user match
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult contains one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Querier is the connection surface the repository needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository accesses audit_log.
type Repository struct {
	db  Querier
	now func() time.Time
}

// NewRepository creates a Repository over db.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts entry. ID and Timestamp are generated when empty.
func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		id, err := store.NewID(table)
		if err != nil {
			return err
		}
		entry.ID = id
	}
	if entry.Timestamp == "" {
		entry.Timestamp = r.now().UTC().Format(time.RFC3339)
	}

	var details any
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		details = string(b)
	}

	query, args, err := sq.Insert(table).
		Columns("id", "action", "description", "user_id", "user_name", "timestamp", "details", "created_at").
		Values(entry.ID, entry.Action,
			nullableString(entry.Description), nullableString(entry.UserID), nullableString(entry.UserName),
			entry.Timestamp, details, entry.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("building audit insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, most recent first.
func (r *Repository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := sq.Eq{}
	if filter.Action != "" {
		where["action"] = filter.Action
	}
	if filter.UserID != "" {
		where["user_id"] = filter.UserID
	}

	count := sq.Select("COUNT(*)").From(table)
	page := sq.Select("id", "action", "description", "user_id", "user_name", "timestamp", "details").
		From(table).
		OrderBy("timestamp DESC", "rowid DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if len(where) > 0 {
		count = count.Where(where)
		page = page.Where(where)
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query, args, err := page.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var description, userID, userName, details sql.NullString

		if err := rows.Scan(&e.ID, &e.Action, &description, &userID, &userName, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		e.Description = description.String
		e.UserID = userID.String
		e.UserName = userName.String
		if details.Valid && details.String != "" {
			var m map[string]any
			if json.Unmarshal([]byte(details.String), &m) == nil {
				e.Details = m
			}
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
