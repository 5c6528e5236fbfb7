//go:build nozstd

package codecs

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Builds tagged `nozstd` avoid the cgo zstd library, and fall back to a
// pure-Go implementation.
func init() {
	zstdNewReader = func(r io.Reader) (io.ReadCloser, error) {
		var d, err = zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	}
	zstdNewWriter = func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) }
}
