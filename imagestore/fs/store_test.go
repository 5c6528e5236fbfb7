package fs

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.cbdd.dev/baroquedb/imagestore"
)

func TestGet(t *testing.T) {
	var dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "baroque.db"), []byte("content"), 0644))

	defer func(prev string) { FileSystemStoreRoot = prev }(FileSystemStoreRoot)
	FileSystemStoreRoot = dir

	var ep, _ = url.Parse("file:///images/baroque.db")
	var root, path = imagestore.SplitURL(ep)
	var s, err = New(root)
	require.NoError(t, err)
	require.Equal(t, "fs", s.Provider())

	rc, err := s.Get(context.Background(), path)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "content", string(b))

	_, err = s.Get(context.Background(), "images/missing.db")
	require.True(t, os.IsNotExist(err))
	require.False(t, s.IsAuthError(err))

	// Stores take no arguments, and don't address remote hosts.
	ep, _ = url.Parse("file:///?foo=bar")
	_, err = New(ep)
	require.Error(t, err)
	ep, _ = url.Parse("file://remote/")
	_, err = New(ep)
	require.Error(t, err)
}
