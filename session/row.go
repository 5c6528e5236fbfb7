package session

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.cbdd.dev/baroquedb/engine"
)

// MaxSafeInteger bounds integers which decode exactly. Integers beyond
// ±MaxSafeInteger are narrowed to the nearest float64, matching the
// precision of JSON number consumers.
const MaxSafeInteger = 1<<53 - 1

// Row is one decoded record: an ordered mapping of column names to scalar
// values. Values are string, int64, float64, bool, time.Time, []byte, or nil.
type Row struct {
	columns []string // Shared by all Rows of a result.
	values  []interface{}
}

// NewRow returns a Row of |values| under |columns|, which must have equal length.
func NewRow(columns []string, values []interface{}) Row {
	if len(columns) != len(values) {
		panic("columns and values have different lengths")
	}
	return Row{columns: columns, values: values}
}

// Columns of the Row, in result order. The returned slice must not be modified.
func (r Row) Columns() []string { return r.columns }

// Values of the Row, in column order. The returned slice must not be modified.
func (r Row) Values() []interface{} { return r.values }

// Len is the number of columns of the Row.
func (r Row) Len() int { return len(r.columns) }

// Get the value of column |name|. If the result has duplicate column names,
// the last one wins.
func (r Row) Get(name string) (interface{}, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the Row as an unordered map.
func (r Row) Map() map[string]interface{} {
	var m = make(map[string]interface{}, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the Row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	var seen = make(map[string]struct{}, len(r.columns))
	for _, c := range r.columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}

		if len(seen) != 1 {
			buf.WriteByte(',')
		}
		var key, _ = json.Marshal(c)
		var value, _ = r.Get(c)

		var b, err = json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeResult maps a raw engine Result into Rows.
func decodeResult(res *engine.Result) []Row {
	var rows = make([]Row, 0, len(res.Rows))

	for _, raw := range res.Rows {
		var values = make([]interface{}, len(raw))
		for i, v := range raw {
			var dbType string
			if i < len(res.DatabaseTypes) {
				dbType = res.DatabaseTypes[i]
			}
			values[i] = decodeValue(v, dbType)
		}
		rows = append(rows, Row{columns: res.Columns, values: values})
	}
	return rows
}

// decodeValue maps a driver value into a Row scalar.
func decodeValue(v interface{}, dbType string) interface{} {
	switch vv := v.(type) {
	case int64:
		return narrowInt(vv)
	case int:
		return narrowInt(int64(vv))
	case int32:
		return int64(vv)
	case uint64:
		if vv > MaxSafeInteger {
			return float64(vv)
		}
		return int64(vv)
	case float32:
		return float64(vv)
	case []byte:
		if isTextType(dbType) {
			return string(vv)
		}
		return append([]byte(nil), vv...)
	default:
		return v
	}
}

func narrowInt(v int64) interface{} {
	if v > MaxSafeInteger || v < -MaxSafeInteger {
		return float64(v)
	}
	return v
}

func isTextType(dbType string) bool {
	dbType = strings.ToUpper(dbType)
	return strings.Contains(dbType, "CHAR") ||
		strings.Contains(dbType, "TEXT") ||
		strings.Contains(dbType, "CLOB")
}
