// Package fs implements an image Store over the local file system.
package fs

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"go.cbdd.dev/baroquedb/imagestore"
)

// FileSystemStoreRoot is the filesystem path which roots the paths of file://
// image URLs. It must be set at program startup prior to use.
var FileSystemStoreRoot = "/"

type store struct {
	root string
}

// New creates a new filesystem Store from the provided URL.
func New(ep *url.URL) (imagestore.Store, error) {
	if ep.Host != "" && ep.Host != "localhost" {
		return nil, errors.New("file:// image URLs must not name a remote host")
	}
	return &store{root: FileSystemStoreRoot}, imagestore.ParseStoreArgs(ep, &struct{}{})
}

func (s *store) Provider() string { return "fs" }

func (s *store) Get(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, filepath.FromSlash(path)))
}

func (s *store) IsAuthError(err error) bool {
	return err != nil && errors.Is(err, os.ErrPermission)
}
