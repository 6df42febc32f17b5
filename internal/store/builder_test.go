package store

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	g := goldie.New(t)

	t.Run("select all", func(t *testing.T) {
		query, args, err := selectAll("members")
		require.NoError(t, err)
		assert.Empty(t, args)
		g.Assert(t, "select_all", []byte(query))
	})

	t.Run("select by id", func(t *testing.T) {
		query, args, err := selectByID("members", "mem-1")
		require.NoError(t, err)
		assert.Equal(t, []any{"mem-1"}, args)
		g.Assert(t, "select_by_id", []byte(query))
	})

	t.Run("insert", func(t *testing.T) {
		query, args, err := insertRecord("costs",
			[]string{"amount", "id", "member_id", "title"},
			[]any{35.5, "cost-1", "mem-1", "Vadnina"},
		)
		require.NoError(t, err)
		assert.Equal(t, []any{35.5, "cost-1", "mem-1", "Vadnina"}, args)
		g.Assert(t, "insert", []byte(query))
	})

	t.Run("update", func(t *testing.T) {
		query, args, err := updateRecord("costs", "cost-1",
			[]string{"amount", "status"},
			[]any{int64(40), "paid"},
		)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(40), "paid", "cost-1"}, args)
		g.Assert(t, "update", []byte(query))
	})

	t.Run("delete", func(t *testing.T) {
		query, args, err := deleteRecord("payments", "pay-1")
		require.NoError(t, err)
		assert.Equal(t, []any{"pay-1"}, args)
		g.Assert(t, "delete", []byte(query))
	})
}

func TestTables(t *testing.T) {
	tables := Tables()
	assert.Len(t, tables, 11)
	assert.Contains(t, tables, "payment_allocations")
	assert.NotContains(t, tables, "member_parents")
	assert.NotContains(t, tables, "schema_version")
	assert.IsIncreasing(t, tables)
}

func TestNewID(t *testing.T) {
	id, err := NewID("members")
	require.NoError(t, err)
	assert.Regexp(t, `^mem-[0-9a-f-]{36}$`, id)

	other, err := NewID("members")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	_, err = NewID("member_parents")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestMemberParentKey(t *testing.T) {
	assert.Equal(t, "mem-1_par-1_0", MemberParentKey("mem-1", "par-1", 0))
	assert.Equal(t, "mem-1_par-2_3", MemberParentKey("mem-1", "par-2", 3))
}

func TestDedupeOrdered(t *testing.T) {
	assert.Nil(t, dedupeOrdered(nil))
	assert.Equal(t, []string{"b", "a"}, dedupeOrdered([]string{"b", "", "a", "b", "a"}))
}
