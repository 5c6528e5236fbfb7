// Package codecs decodes and encodes compressed database images.
package codecs

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
)

// Codec is a compression codec of a database image.
type Codec int

const (
	// None is an uncompressed image.
	None Codec = iota
	// Gzip is an RFC 1952 image (".gz").
	Gzip
	// Snappy is a snappy framed-format image (".sz").
	Snappy
	// Zstandard is a zstd image (".zst").
	Zstandard
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Snappy:
		return "snappy"
	case Zstandard:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// Extension returns the file extension of the Codec, including its leading dot.
func (c Codec) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Snappy:
		return ".sz"
	case Zstandard:
		return ".zst"
	default:
		return ""
	}
}

// ParseCodec parses a Codec name as returned by Codec.String.
func ParseCodec(name string) (Codec, error) {
	for _, c := range []Codec{None, Gzip, Snappy, Zstandard} {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return None, fmt.Errorf("unsupported codec %q", name)
}

// CodecFor infers the Codec of an image from the extension of its |name|,
// which may be a path or URL.
func CodecFor(name string) Codec {
	// Drop any query or fragment of URL-like names.
	if ind := strings.IndexAny(name, "?#"); ind != -1 {
		name = name[:ind]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".sz", ".snappy":
		return Snappy
	case ".zst", ".zstd":
		return Zstandard
	default:
		return None
	}
}

// Decompressor is a ReadCloser where Close closes and releases Decompressor
// state, but does not Close or affect the underlying Reader.
type Decompressor io.ReadCloser

// Compressor is a WriteCloser where Close closes and releases Compressor
// state, potentially flushing final content to the underlying Writer,
// but does not Close or otherwise affect the underlying Writer.
type Compressor io.WriteCloser

// NewCodecReader returns a Decompressor of the Reader encoded with Codec.
func NewCodecReader(r io.Reader, codec Codec) (Decompressor, error) {
	switch codec {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case Zstandard:
		return zstdNewReader(r)
	default:
		return nil, fmt.Errorf("unsupported codec %s", codec)
	}
}

// NewCodecWriter returns a Compressor wrapping the Writer encoding with Codec.
func NewCodecWriter(w io.Writer, codec Codec) (Compressor, error) {
	switch codec {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case Zstandard:
		return zstdNewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported codec %s", codec)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

var (
	zstdNewReader func(io.Reader) (io.ReadCloser, error)
	zstdNewWriter func(io.Writer) (io.WriteCloser, error)
)
