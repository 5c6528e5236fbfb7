package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.cbdd.dev/baroquedb/engine"
)

func TestRowDuplicateColumns(t *testing.T) {
	var row = NewRow([]string{"id", "name", "id"}, []interface{}{int64(1), "Asam", int64(2)})

	var v, ok = row.Get("id")
	require.True(t, ok)
	require.Equal(t, int64(2), v)
	_, ok = row.Get("missing")
	require.False(t, ok)

	require.Equal(t, 3, row.Len())
	require.Equal(t, map[string]interface{}{"id": int64(2), "name": "Asam"}, row.Map())

	var b, err = json.Marshal(row)
	require.NoError(t, err)
	require.Equal(t, `{"id":2,"name":"Asam"}`, string(b))

	require.Panics(t, func() { NewRow([]string{"a"}, nil) })
}

func TestDecodeResult(t *testing.T) {
	var ts = time.Date(1754, time.May, 1, 0, 0, 0, 0, time.UTC)

	var rows = decodeResult(&engine.Result{
		Columns:       []string{"name", "blob", "n", "big", "f", "when", "nil"},
		DatabaseTypes: []string{"VARCHAR(32)", "BLOB", "INTEGER", "INTEGER", "REAL", "DATETIME", ""},
		Rows: [][]interface{}{
			{[]byte("Tiepolo"), []byte{0x01, 0x02}, int64(42), int64(1) << 60, float32(1.5), ts, nil},
		},
	})
	require.Len(t, rows, 1)
	require.Equal(t, []interface{}{
		"Tiepolo",
		[]byte{0x01, 0x02},
		int64(42),
		float64(int64(1) << 60),
		float64(1.5),
		ts,
		nil,
	}, rows[0].Values())

	require.Equal(t, int64(7), decodeValue(int32(7), ""))
	require.Equal(t, int64(7), decodeValue(uint64(7), ""))
	require.Equal(t, float64(uint64(1)<<63), decodeValue(uint64(1)<<63, ""))
	require.Equal(t, "text", decodeValue([]byte("text"), "clob"))
	require.Equal(t, true, decodeValue(true, "BOOLEAN"))
}

func TestErrors(t *testing.T) {
	var cause = json.Unmarshal([]byte("{"), &struct{}{})

	var initErr error = &InitializationError{Step: StepFetch, Cause: cause}
	require.Equal(t, "initializing session (fetch): "+cause.Error(), initErr.Error())
	require.Equal(t, cause, initErr.(*InitializationError).Unwrap())

	var queryErr error = &QueryError{SQL: "SELECT", Message: "no such table: x", Cause: cause}
	require.Equal(t, "query failed: no such table: x", queryErr.Error())

	require.Equal(t, "failed", Failed.String())
	var b, _ = json.Marshal(Status{State: Ready})
	require.JSONEq(t, `{"state":"ready","progress":{"message":"","percent":0}}`, string(b))

	var status Status
	require.NoError(t, json.Unmarshal(b, &status))
	require.Equal(t, Ready, status.State)
	require.Error(t, json.Unmarshal([]byte(`{"state":"bogus"}`), &status))
}
