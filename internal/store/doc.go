// Package store implements generic record access over the entity tables
// and the member/parent relationship.
//
// Store builds SELECT, INSERT, UPDATE, and DELETE statements with squirrel
// for any entity table. The set of columns is taken from the record at call
// time and checked against the table's live schema, so a single code path
// serves parents, members, costs, payments, and the rest.
//
// MemberParents maintains the member_parents pivot with hand-written SQL.
// Its replace operation is transactional.
package store
