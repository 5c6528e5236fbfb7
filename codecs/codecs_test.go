package codecs

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	var content = strings.Repeat("SQLite format 3\x00 ceiling paintings ", 256)

	for _, codec := range []Codec{None, Gzip, Snappy, Zstandard} {
		var buf bytes.Buffer

		var w, err = NewCodecWriter(&buf, codec)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		if codec != None {
			require.Less(t, buf.Len(), len(content), codec.String())
		}

		r, err := NewCodecReader(&buf, codec)
		require.NoError(t, err)
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.Equal(t, content, string(out), codec.String())
	}
}

func TestCodecFor(t *testing.T) {
	for _, tc := range []struct {
		name string
		want Codec
	}{
		{"baroque.db", None},
		{"baroque.duckdb", None},
		{"baroque.db.gz", Gzip},
		{"https://example.org/story/baroque.db.zst?v=3", Zstandard},
		{"https://example.org/story/baroque.db?name=x.gz", None},
		{"s3://bucket/images/baroque.db.sz", Snappy},
		{"BAROQUE.DB.GZ", Gzip},
	} {
		require.Equal(t, tc.want, CodecFor(tc.name), tc.name)
	}
}

func TestParseCodec(t *testing.T) {
	for _, c := range []Codec{None, Gzip, Snappy, Zstandard} {
		var parsed, err = ParseCodec(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}
	var _, err = ParseCodec("lz4")
	require.EqualError(t, err, `unsupported codec "lz4"`)
	require.Equal(t, ".zst", Zstandard.Extension())
	require.Equal(t, "", None.Extension())
}
