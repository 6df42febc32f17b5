package store

import (
	sq "github.com/Masterminds/squirrel"
)

// The builders below interpolate table and column names. Every caller
// validates them against the entity allow-list and the live schema first;
// values are always bound as parameters.

func selectAll(table string) (string, []any, error) {
	return sq.Select("*").From(quote(table)).OrderBy("rowid").ToSql()
}

func selectByID(table, id string) (string, []any, error) {
	return sq.Select("*").From(quote(table)).Where(sq.Eq{"id": id}).ToSql()
}

func insertRecord(table string, columns []string, values []any) (string, []any, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quote(col)
	}
	return sq.Insert(quote(table)).Columns(quoted...).Values(values...).ToSql()
}

func updateRecord(table, id string, columns []string, values []any) (string, []any, error) {
	b := sq.Update(quote(table))
	for i, col := range columns {
		b = b.Set(quote(col), values[i])
	}
	return b.Where(sq.Eq{"id": id}).ToSql()
}

func deleteRecord(table, id string) (string, []any, error) {
	return sq.Delete(quote(table)).Where(sq.Eq{"id": id}).ToSql()
}
