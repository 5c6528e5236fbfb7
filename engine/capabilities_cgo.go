//go:build cgo

package engine

import sqlite3 "github.com/mattn/go-sqlite3"

const nativeLinked = true

// setNativeLimit sets a run-time limit of a native engine connection,
// returning false if |driverConn| isn't one.
func setNativeLimit(driverConn interface{}, id, value int) bool {
	var conn, ok = driverConn.(*sqlite3.SQLiteConn)
	if ok {
		conn.SetLimit(id, value)
	}
	return ok
}
