package record

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStorage(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "true", in: true, want: int64(1)},
		{name: "false", in: false, want: int64(0)},
		{name: "int", in: 42, want: int64(42)},
		{name: "int32", in: int32(-7), want: int64(-7)},
		{name: "uint8", in: uint8(200), want: int64(200)},
		{name: "huge uint64", in: uint64(math.MaxUint64), want: float64(math.MaxUint64)},
		{name: "float", in: 12.5, want: 12.5},
		{name: "float32", in: float32(0.5), want: 0.5},
		{name: "NaN", in: math.NaN(), want: int64(0)},
		{name: "positive infinity", in: math.Inf(1), want: int64(0)},
		{name: "negative infinity", in: math.Inf(-1), want: int64(0)},
		{name: "json integer", in: json.Number("35"), want: int64(35)},
		{name: "json real", in: json.Number("35.50"), want: 35.5},
		{name: "json overflow", in: json.Number("1e400"), want: int64(0)},
		{name: "string", in: "vadnine", want: "vadnine"},
		{name: "empty string", in: "", want: ""},
		{name: "time", in: ts, want: "2025-03-14T09:30:00Z"},
		{name: "slice", in: []any{"a", json.Number("1")}, want: `["a",1]`},
		{name: "map", in: map[string]any{"k": true}, want: `{"k":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToStorage(tt.in))
		})
	}
}

func TestFromStorage(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "integer", in: int64(1), want: int64(1)},
		{name: "real", in: 2.25, want: 2.25},
		{name: "NaN", in: math.NaN(), want: int64(0)},
		{name: "text", in: "Samo člani", want: "Samo člani"},
		{name: "blob", in: []byte{0x00, 0x01}, want: BlobPlaceholder},
		{name: "empty blob", in: []byte{}, want: BlobPlaceholder},
		{name: "bool has no read path", in: true, want: int64(1)},
		{name: "time", in: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), want: "2024-01-02T03:04:05Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromStorage(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(`{"id":"cost-1","amount":35,"rate":0.5,"is_recurring":true,"due_date":null}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("35"), r["amount"])
	assert.Equal(t, json.Number("0.5"), r["rate"])
	assert.Equal(t, true, r["is_recurring"])
	assert.Nil(t, r["due_date"])
	assert.Contains(t, r, "due_date")

	assert.Equal(t, int64(35), ToStorage(r["amount"]))
	assert.Equal(t, 0.5, ToStorage(r["rate"]))
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte(`null`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Decode([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"id":`))
	assert.Error(t, err)
}

func TestRecordID(t *testing.T) {
	id, ok := Record{"id": "mem-1"}.ID()
	assert.True(t, ok)
	assert.Equal(t, "mem-1", id)

	for _, r := range []Record{{}, {"id": ""}, {"id": 7}, {"id": nil}} {
		_, ok := r.ID()
		assert.False(t, ok, "record %v", r)
	}
}

func TestRecordColumns(t *testing.T) {
	r := Record{"last_name": "Kos", "id": "mem-1", "first_name": "Eva"}
	assert.Equal(t, []string{"first_name", "id", "last_name"}, r.Columns())
}
