// Package vfs presents in-memory byte buffers to the engine as named files.
//
// A Registry owns a private directory, wrapped as an afero.Fs rooted at that
// directory. Registered names are flat: they may not contain separators, and
// resolve to real paths which the engine can open.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Registry of virtual files.
type Registry struct {
	root  string
	fs    *afero.BasePathFs
	owned bool // Whether |root| was created by (and is removed by) the Registry.

	mu    sync.Mutex
	names map[string]struct{}
}

// NewRegistry returns a Registry rooted at directory |root|, which must exist.
// If |root| is empty, a private temporary directory is created and removed
// again by Close.
func NewRegistry(root string) (*Registry, error) {
	var owned bool

	if root == "" {
		var err error
		if root, err = os.MkdirTemp("", "baroque-vfs-"); err != nil {
			return nil, errors.Wrap(err, "creating vfs root")
		}
		owned = true
	} else if info, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(err, "stat of vfs root")
	} else if !info.IsDir() {
		return nil, fmt.Errorf("vfs root %s is not a directory", root)
	}

	return &Registry{
		root:  root,
		fs:    afero.NewBasePathFs(afero.NewOsFs(), root).(*afero.BasePathFs),
		owned: owned,
		names: make(map[string]struct{}),
	}, nil
}

// Fs returns the afero.Fs of the Registry.
func (r *Registry) Fs() afero.Fs { return r.fs }

// RegisterFileBuffer registers |content| under |name|, replacing any prior
// registration, and returns the real path of the file.
func (r *Registry) RegisterFileBuffer(name string, content []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Write to a partial file which is then atomically renamed into place.
	var partial = ".partial-" + name
	if err := afero.WriteFile(r.fs, partial, content, 0600); err != nil {
		return "", errors.Wrapf(err, "writing %s", name)
	}
	if err := r.fs.Rename(partial, name); err != nil {
		_ = r.fs.Remove(partial)
		return "", errors.Wrapf(err, "renaming %s", name)
	}
	r.names[name] = struct{}{}

	var path, err = r.fs.RealPath(name)
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"name":  name,
		"path":  path,
		"bytes": len(content),
	}).Debug("registered virtual file")

	return path, nil
}

// RealPath returns the real path of registered file |name|.
func (r *Registry) RealPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; !ok {
		return "", fmt.Errorf("virtual file %q is not registered", name)
	}
	return r.fs.RealPath(name)
}

// Names returns registered file names, in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Remove the registration of |name| and its file.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; !ok {
		return nil
	}
	delete(r.names, name)

	if err := r.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close removes all registered files, and the root directory if the
// Registry created it.
func (r *Registry) Close() error {
	for _, name := range r.Names() {
		if err := r.Remove(name); err != nil {
			log.WithFields(log.Fields{"err": err, "name": name}).
				Warn("failed to remove virtual file")
		}
	}
	if r.owned {
		return os.RemoveAll(r.root)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Clean(name) ||
		strings.HasPrefix(name, ".partial-") {
		return fmt.Errorf("invalid virtual file name %q", name)
	}
	return nil
}
