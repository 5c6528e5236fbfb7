// Package engine runs an embedded SQL engine on a dedicated worker goroutine.
//
// Two runtime bundles are available. The Minimal bundle is a pure-Go
// translation of the engine which runs on every host. The Optimized bundle
// links the native engine through cgo, and is chosen when the host's
// Capabilities report native linking. All engine operations of a Worker are
// executed sequentially by its goroutine over a single pinned connection,
// so ATTACH and connection-scoped PRAGMAs apply to every later query.
package engine
