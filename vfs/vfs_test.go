package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndRemove(t *testing.T) {
	var root = t.TempDir()
	var r, err = NewRegistry(root)
	require.NoError(t, err)

	path, err := r.RegisterFileBuffer("baroque.db", []byte("image-one"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "baroque.db"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "image-one", string(b))

	// Re-registration replaces content.
	_, err = r.RegisterFileBuffer("baroque.db", []byte("image-two"))
	require.NoError(t, err)
	b, err = afero.ReadFile(r.Fs(), "baroque.db")
	require.NoError(t, err)
	require.Equal(t, "image-two", string(b))

	_, err = r.RegisterFileBuffer("other.db", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"baroque.db", "other.db"}, r.Names())

	got, err := r.RealPath("other.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "other.db"), got)

	_, err = r.RealPath("missing.db")
	require.EqualError(t, err, `virtual file "missing.db" is not registered`)

	require.NoError(t, r.Remove("other.db"))
	require.NoFileExists(t, filepath.Join(root, "other.db"))
	require.NoError(t, r.Remove("other.db")) // Not registered: no-op.

	// Close removes registered files but not a caller-provided root.
	require.NoError(t, r.Close())
	require.NoFileExists(t, path)
	require.DirExists(t, root)
}

func TestOwnedRootIsRemoved(t *testing.T) {
	var r, err = NewRegistry("")
	require.NoError(t, err)

	path, err := r.RegisterFileBuffer("baroque.db", []byte("content"))
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, r.Close())
	require.NoDirExists(t, filepath.Dir(path))
}

func TestInvalidNames(t *testing.T) {
	var r, err = NewRegistry(t.TempDir())
	require.NoError(t, err)
	defer r.Close()

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../escape.db", ".partial-x"} {
		_, err = r.RegisterFileBuffer(name, []byte("x"))
		require.Error(t, err, name)
	}
}

func TestRootMustBeDirectory(t *testing.T) {
	var file = filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	var _, err = NewRegistry(file)
	require.Error(t, err)

	_, err = NewRegistry(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
