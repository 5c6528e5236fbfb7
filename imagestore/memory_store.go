package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for testing.
type MemoryStore struct {
	URL     *url.URL
	Content map[string][]byte
	// Gets counts calls to Get, by path.
	Gets map[string]int
	mu   sync.Mutex
}

// NewMemoryStore returns an empty MemoryStore of the given root URL.
func NewMemoryStore(ep *url.URL) *MemoryStore {
	return &MemoryStore{
		URL:     ep,
		Content: make(map[string][]byte),
		Gets:    make(map[string]int),
	}
}

// Constructor returns a Constructor which always returns this MemoryStore.
func (m *MemoryStore) Constructor() Constructor {
	return func(*url.URL) (Store, error) { return m, nil }
}

// Put |content| at |path|.
func (m *MemoryStore) Put(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Content[path] = append([]byte(nil), content...)
}

func (m *MemoryStore) Provider() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Gets[path]++

	var content, exists = m.Content[path]
	if !exists {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *MemoryStore) IsAuthError(err error) bool { return false }
