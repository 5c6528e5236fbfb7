// Package imagestore provides an abstraction over the storage systems from
// which database images are fetched.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store provides read access to database images of a storage backend.
type Store interface {
	// Provider returns the name of the storage backend (e.g., "http", "s3", "gcs", "azure", "fs").
	Provider() string

	// Get returns an io.ReadCloser for content at the given path.
	// The returned reader provides the raw content without any decompression.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// IsAuthError returns true if the error represents an authorization failure
	// (e.g., missing permissions, bucket not found, access denied).
	IsAuthError(error) bool
}

// Constructor is a function that creates a Store instance from a URL.
// Each storage backend provides its own constructor implementation.
type Constructor func(*url.URL) (Store, error)

// StatusError is returned when a fetch completes with a non-2xx status.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Status)
}

// Registry maps URL schemes to Constructors, and caches constructed Stores.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	stores       map[string]Store
}

// NewRegistry returns a Registry of the given scheme Constructors.
func NewRegistry(providers map[string]Constructor) *Registry {
	var r = &Registry{
		constructors: make(map[string]Constructor),
		stores:       make(map[string]Store),
	}
	r.Register(providers)
	return r
}

// Register adds or replaces scheme Constructors of the Registry.
func (r *Registry) Register(providers map[string]Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for scheme, constructor := range providers {
		r.constructors[scheme] = constructor
	}
}

// Schemes returns the registered URL schemes.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for scheme := range r.constructors {
		out = append(out, scheme)
	}
	return out
}

// Store returns the Store of |ep| and the path of |ep| within that Store.
// Stores are constructed on first use and cached by their root URL.
func (r *Registry) Store(ep *url.URL) (Store, string, error) {
	var root, path = SplitURL(ep)

	// Fast path: check if store already exists.
	r.mu.RLock()
	if store, ok := r.stores[root.String()]; ok {
		r.mu.RUnlock()
		return store, path, nil
	}
	r.mu.RUnlock()

	// Slow path: need to initialize.
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if store, ok := r.stores[root.String()]; ok {
		return store, path, nil
	}

	var constructor, ok = r.constructors[root.Scheme]
	if !ok {
		return nil, "", fmt.Errorf("unsupported image store scheme: %q", root.Scheme)
	}
	store, err := constructor(root)
	if err != nil {
		// Return error but don't cache - will retry on next call.
		return nil, "", err
	}
	r.stores[root.String()] = store
	activeStores.Set(float64(len(r.stores)))

	return store, path, nil
}

// Open the image at |ep|, returning its Store and a reader of its raw content.
func (r *Registry) Open(ctx context.Context, ep *url.URL) (Store, io.ReadCloser, error) {
	var store, path, err = r.Store(ep)
	if err != nil {
		return nil, nil, err
	}
	rc, err := store.Get(ctx, path)
	if err != nil {
		return store, nil, err
	}
	return store, rc, nil
}

// SplitURL splits |ep| into the root URL of its Store and a path within
// that Store. Paths of http(s) URLs remain escaped, and their query
// arguments belong to the path. Query arguments of other schemes configure
// the Store.
func SplitURL(ep *url.URL) (root *url.URL, path string) {
	root = &url.URL{Scheme: ep.Scheme, Host: ep.Host, User: ep.User, Path: "/"}
	path = strings.TrimPrefix(ep.Path, "/")

	switch ep.Scheme {
	case "http", "https":
		path = strings.TrimPrefix(ep.EscapedPath(), "/")
		if ep.RawQuery != "" {
			path += "?" + ep.RawQuery
		}
	default:
		root.RawQuery = ep.RawQuery
	}
	return root, path
}

// Resolve the image reference |ref|. URLs having a scheme are returned as-is.
// Otherwise |ref| is resolved relative to |base|, or if |base| is empty,
// as a path of the local file system.
func Resolve(base, ref string) (*url.URL, error) {
	if ep, err := url.Parse(ref); err == nil && len(ep.Scheme) > 1 {
		return ep, nil
	}
	if base != "" {
		var b, err = url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL %q: %w", base, err)
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing image reference %q: %w", ref, err)
		}
		return b.ResolveReference(rel), nil
	}
	var abs, err = filepath.Abs(ref)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// ParseStoreArgs decodes the query arguments of |ep| into |args|.
// Unknown arguments are an error.
func ParseStoreArgs(ep *url.URL, args interface{}) error {
	var decoder = schema.NewDecoder()
	decoder.IgnoreUnknownKeys(false)

	if q, err := url.ParseQuery(ep.RawQuery); err != nil {
		return err
	} else if err = decoder.Decode(args, q); err != nil {
		return fmt.Errorf("parsing store URL arguments: %s", err)
	}
	return nil
}

var activeStores = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "baroque_image_stores_active",
	Help: "Number of constructed image stores",
})
