//go:build !cgo

package engine

const nativeLinked = false

// Without cgo the native engine can't open connections.
func setNativeLimit(interface{}, int, int) bool { return false }
