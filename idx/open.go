package idx

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type file struct {
	io.Reader
	closers []io.Closer
}

func (f *file) Close() error {
	var err error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if cerr := f.closers[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// NewDecompressor sniffs the first few bytes of r and, if they match the
// gzip or zstd magic, returns a reader that decompresses the stream.
// Otherwise the returned reader yields the bytes of r unchanged.
func NewDecompressor(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	// Peek returns what it can along with an error for short streams, which
	// are left for the header decoder to reject
	b, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(b, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &file{Reader: zr, closers: []io.Closer{zr}}, nil
	case bytes.HasPrefix(b, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		rc := zr.IOReadCloser()
		return &file{Reader: rc, closers: []io.Closer{rc}}, nil
	default:
		return io.NopCloser(br), nil
	}
}

// Open opens the named file for sequential reading, transparently
// decompressing it if required. The caller must close the returned reader.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	rc, err := NewDecompressor(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &file{Reader: rc, closers: []io.Closer{f, rc}}, nil
}
