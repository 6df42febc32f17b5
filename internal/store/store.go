package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tskpay/tskpay-core/internal/record"
)

// Querier is the connection surface the store needs.
// *database.DB and *sql.Tx both satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxBeginner is a Querier that can start transactions.
type TxBeginner interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store provides table-agnostic CRUD over the entity tables.
//
// Table names are checked against a fixed allow-list and column names
// against the live schema before any SQL is built.
type Store struct {
	db     Querier
	schema *schemaCache
}

// New creates a Store over db.
func New(db Querier) *Store {
	return &Store{
		db:     db,
		schema: newSchemaCache(),
	}
}

// GetAll returns every row of table in storage order.
func (s *Store) GetAll(ctx context.Context, table string) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query, args, err := selectAll(table)
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	return s.query(ctx, query, args...)
}

// GetByID returns the row of table with the given id.
// When several rows share the id the first one returned wins.
//
// Returns:
//   - record.Record: The stored row
//   - error: ErrNotFound if no row has the id
func (s *Store) GetByID(ctx context.Context, table, id string) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query, args, err := selectByID(table, id)
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	records, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, table, id)
	}
	return records[0], nil
}

// Create inserts rec into table and returns the row as stored.
//
// The insert names exactly the columns present in rec, in sorted order.
//
// Returns:
//   - record.Record: The row re-read by id
//   - error: ErrMissingID when rec has no non-empty string id,
//     ErrUnknownColumn for columns the table lacks,
//     ErrWriteConstraint when the insert violates a constraint
func (s *Store) Create(ctx context.Context, table string, rec record.Record) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	id, ok := rec.ID()
	if !ok {
		return nil, fmt.Errorf("%w: creating in %s", ErrMissingID, table)
	}

	columns := rec.Columns()
	if err := s.schema.checkColumns(ctx, s.db, table, columns); err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = record.ToStorage(rec[col])
	}

	query, args, err := insertRecord(table, columns, values)
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, classifyWriteError("inserting into "+table, err)
	}

	return s.GetByID(ctx, table, id)
}

// Update sets every column in rec except id on the row with the given id.
// A record carrying only id is a no-op. A missing row is not an error.
func (s *Store) Update(ctx context.Context, table, id string, rec record.Record) error {
	if err := checkTable(table); err != nil {
		return err
	}

	columns := make([]string, 0, len(rec))
	for _, col := range rec.Columns() {
		if col != "id" {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return nil
	}

	if err := s.schema.checkColumns(ctx, s.db, table, columns); err != nil {
		return err
	}

	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = record.ToStorage(rec[col])
	}

	query, args, err := updateRecord(table, id, columns, values)
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classifyWriteError("updating "+table, err)
	}
	return nil
}

// Delete removes the row with the given id. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	query, args, err := deleteRecord(table, id)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classifyWriteError("deleting from "+table, err)
	}
	return nil
}

// query runs a SELECT and maps every row through record.FromStorage.
func (s *Store) query(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	records := []record.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec := make(record.Record, len(columns))
		for i, col := range columns {
			rec[col] = record.FromStorage(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return records, nil
}
