package imagestore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryCachesStoresByRoot(t *testing.T) {
	var constructed []string

	var r = NewRegistry(map[string]Constructor{
		"mock": func(ep *url.URL) (Store, error) {
			constructed = append(constructed, ep.String())
			var ms = NewMemoryStore(ep)
			ms.Put("images/baroque.db", []byte("image"))
			return ms, nil
		},
		"error": func(*url.URL) (Store, error) {
			return nil, errors.New("constructor error")
		},
	})
	require.ElementsMatch(t, []string{"mock", "error"}, r.Schemes())

	var _, rc, err = r.Open(context.Background(), mustParseURL("mock://bucket/images/baroque.db"))
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "image", string(b))

	// Same root: cached. Other root: constructed.
	_, path, err := r.Store(mustParseURL("mock://bucket/other.db"))
	require.NoError(t, err)
	require.Equal(t, "other.db", path)
	_, _, err = r.Store(mustParseURL("mock://other-bucket/other.db"))
	require.NoError(t, err)
	require.Equal(t, []string{"mock://bucket/", "mock://other-bucket/"}, constructed)

	// Constructor errors are not cached.
	_, _, err = r.Store(mustParseURL("error://bucket/x.db"))
	require.EqualError(t, err, "constructor error")

	_, _, err = r.Store(mustParseURL("ftp://host/x.db"))
	require.EqualError(t, err, `unsupported image store scheme: "ftp"`)

	// Get errors of a constructed Store are returned with the Store.
	store, _, err := r.Open(context.Background(), mustParseURL("mock://bucket/missing.db"))
	require.EqualError(t, err, "path not found: missing.db")
	require.NotNil(t, store)
}

func TestSplitURL(t *testing.T) {
	for _, tc := range []struct {
		url, root, path string
	}{
		{"https://example.org/story/CbDD/baroque.db", "https://example.org/", "story/CbDD/baroque.db"},
		{"https://example.org/baroque.db?v=2", "https://example.org/", "baroque.db?v=2"},
		{"https://example.org/what%3F%23.db?v=2", "https://example.org/", "what%3F%23.db?v=2"},
		{"https://example.org/Barock%20Bayern.db", "https://example.org/", "Barock%20Bayern.db"},
		{"gs://bucket/Barock%20Bayern.db", "gs://bucket/", "Barock Bayern.db"},
		{"s3://bucket/images/baroque.db?region=eu-central-1", "s3://bucket/?region=eu-central-1", "images/baroque.db"},
		{"file:///var/data/baroque.db", "file:///", "var/data/baroque.db"},
	} {
		var root, path = SplitURL(mustParseURL(tc.url))
		require.Equal(t, tc.root, root.String(), tc.url)
		require.Equal(t, tc.path, path, tc.url)
	}
}

func TestResolve(t *testing.T) {
	var ep, err = Resolve("", "https://example.org/baroque.db")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/baroque.db", ep.String())

	ep, err = Resolve("https://example.org/story/CbDD/index.html", "baroque.duckdb")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/story/CbDD/baroque.duckdb", ep.String())

	ep, err = Resolve("https://example.org/docs/", "/story/CbDD/baroque.duckdb")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/story/CbDD/baroque.duckdb", ep.String())

	ep, err = Resolve("", "test.db")
	require.NoError(t, err)
	var abs, _ = filepath.Abs("test.db")
	require.Equal(t, "file", ep.Scheme)
	require.Equal(t, filepath.ToSlash(abs), ep.Path)
}

func TestParseStoreArgs(t *testing.T) {
	var args struct {
		Region   string
		Endpoint string
	}
	require.NoError(t, ParseStoreArgs(mustParseURL("s3://bucket/?Region=eu&Endpoint=http://minio:9000"), &args))
	require.Equal(t, "eu", args.Region)
	require.Equal(t, "http://minio:9000", args.Endpoint)

	require.Error(t, ParseStoreArgs(mustParseURL("s3://bucket/?Unknown=1"), &args))
}

func TestStatusError(t *testing.T) {
	var err error = &StatusError{URL: "https://example.org/x.db", Code: 404, Status: "404 Not Found"}
	require.EqualError(t, err, "failed to fetch https://example.org/x.db: 404 Not Found")
}

func mustParseURL(s string) *url.URL {
	var u, err = url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}
