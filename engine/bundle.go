package engine

import (
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // Registers the "sqlite3" driver.
	_ "modernc.org/sqlite"          // Registers the "sqlite" driver.
)

// Bundle describes a runtime variant of the engine: the compiled artifact
// (a database/sql driver) which executes statements.
type Bundle struct {
	// Name of the Bundle, as used in configuration and logs.
	Name string
	// Driver is the database/sql driver name of the Bundle's engine.
	Driver string
	// Description is a short human-readable description.
	Description string
}

// Runtime bundles of the engine.
var (
	// Minimal is the portable bundle, a pure-Go build of the engine.
	Minimal = Bundle{Name: "mvp", Driver: "sqlite", Description: "portable pure-Go engine"}
	// Optimized is the native bundle, linked through cgo.
	Optimized = Bundle{Name: "eh", Driver: "sqlite3", Description: "native cgo engine"}
)

func (b Bundle) String() string { return b.Name }

// Capabilities of the hosting environment which influence Bundle selection.
// Hosts supply Capabilities explicitly; DetectCapabilities is the default.
type Capabilities struct {
	// Native is true if the host links native engine code.
	Native bool
}

// DetectCapabilities returns the Capabilities of the running binary.
func DetectCapabilities() Capabilities {
	return Capabilities{Native: nativeLinked}
}

// SelectBundle returns the best Bundle for the Capabilities.
func SelectBundle(caps Capabilities) Bundle {
	if caps.Native {
		return Optimized
	}
	return Minimal
}

// ParseBundle maps a configured bundle name to its Bundle. Names "auto" and
// "" return ok == false, meaning selection is left to SelectBundle.
func ParseBundle(name string) (b Bundle, ok bool, err error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return Bundle{}, false, nil
	case "mvp", "minimal":
		return Minimal, true, nil
	case "eh", "optimized":
		return Optimized, true, nil
	default:
		return Bundle{}, false, fmt.Errorf("unknown engine bundle %q", name)
	}
}
