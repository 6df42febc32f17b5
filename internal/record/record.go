package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// BlobPlaceholder is returned in place of binary column data.
const BlobPlaceholder = "BLOB"

// ErrNotObject is returned by Decode when the input is not a JSON object.
var ErrNotObject = errors.New("record: not a JSON object")

// Record is one row keyed by column name.
type Record map[string]any

// ID returns the record's id when it is a non-empty string.
func (r Record) ID() (string, bool) {
	id, ok := r["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Columns returns the record's keys in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Decode parses a JSON object into a Record, keeping the integer/real
// distinction of numbers.
func Decode(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if r == nil {
		return nil, ErrNotObject
	}
	return r, nil
}

// ToStorage converts a dynamic value to a driver argument.
func ToStorage(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return uint64ToStorage(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return uint64ToStorage(x)
	case float32:
		return floatToStorage(float64(x))
	case float64:
		return floatToStorage(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, err := x.Float64()
		if err != nil {
			return int64(0)
		}
		return floatToStorage(f)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		text, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(text)
	}
}

// FromStorage converts a scanned column value to a dynamic value.
func FromStorage(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return BlobPlaceholder
	case int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return int64(0)
		}
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// NaN and infinities have no SQLite representation; they are stored as 0.
func floatToStorage(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return int64(0)
	}
	return f
}

func uint64ToStorage(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}
