package store

import (
	"context"
	"fmt"
	"time"
)

// MemberParents owns the member_parents pivot table.
// Generic CRUD never touches it.
type MemberParents struct {
	db  TxBeginner
	now func() time.Time
}

// NewMemberParents creates a MemberParents accessor over db.
func NewMemberParents(db TxBeginner) *MemberParents {
	return &MemberParents{db: db, now: time.Now}
}

// MemberParentKey returns the pivot row id for the ordinal-th parent of a member.
func MemberParentKey(memberID, parentID string, ordinal int) string {
	return fmt.Sprintf("%s_%s_%d", memberID, parentID, ordinal)
}

// GetMemberParents returns the parent ids linked to memberID in storage order.
func (r *MemberParents) GetMemberParents(ctx context.Context, memberID string) ([]string, error) {
	return r.lookup(ctx,
		"SELECT parent_id FROM member_parents WHERE member_id = ? ORDER BY rowid", memberID)
}

// GetParentMembers returns the member ids linked to parentID in storage order.
func (r *MemberParents) GetParentMembers(ctx context.Context, parentID string) ([]string, error) {
	return r.lookup(ctx,
		"SELECT member_id FROM member_parents WHERE parent_id = ? ORDER BY rowid", parentID)
}

// SetMemberParents replaces the full parent set of memberID.
//
// Duplicate and empty ids in parentIDs are dropped, first occurrence wins.
// The delete and all inserts run in one transaction: an unknown member or
// parent id leaves the previous set untouched.
//
// Returns:
//   - error: ErrWriteConstraint when a member or parent id does not exist
func (r *MemberParents) SetMemberParents(ctx context.Context, memberID string, parentIDs []string) error {
	if memberID == "" {
		return fmt.Errorf("%w: member id is required", ErrMissingID)
	}

	uniqueIDs := dedupeOrdered(parentIDs)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM member_parents WHERE member_id = ?", memberID); err != nil {
		return fmt.Errorf("clearing member parents: %w", err)
	}

	if len(uniqueIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO member_parents (id, member_id, parent_id, created_at) VALUES (?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing member parent insert: %w", err)
		}
		defer stmt.Close()

		createdAt := r.now().UTC().Format(time.RFC3339)
		for i, parentID := range uniqueIDs {
			_, err := stmt.ExecContext(ctx, MemberParentKey(memberID, parentID, i), memberID, parentID, createdAt)
			if err != nil {
				return classifyWriteError("linking parent "+parentID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (r *MemberParents) lookup(ctx context.Context, query, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying member parents: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning member parent: %w", err)
		}
		ids = append(ids, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member parents: %w", err)
	}

	return ids, nil
}

func dedupeOrdered(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}

	return unique
}
