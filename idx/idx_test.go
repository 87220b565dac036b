package idx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T, h Header) []byte {
	t.Helper()

	b := new(bytes.Buffer)
	w, err := NewWriter(b, h)
	require.NoError(t, err)

	for i := 0; i < int(h.Count); i++ {
		record := bytes.Repeat([]byte{byte(i)}, int(h.RecordSize()))
		_, err := w.Write(record)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return b.Bytes()
}

func TestHeaderUnmarshalBinary(t *testing.T) {
	b := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0xc8, 0x00, 0x00, 0x00, 0x1c, 0x00, 0x00, 0x00, 0x1c}

	var h Header
	require.NoError(t, h.UnmarshalBinary(b))
	assert.Equal(t, Header{Magic: 2048, Count: 200, Rows: 28, Cols: 28}, h)
	assert.Equal(t, uint64(784), h.RecordSize())
	assert.Equal(t, "magic: 2048, items: 200, rows: 28, cols: 28", h.String())

	out, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, out)
}

func TestHeaderShort(t *testing.T) {
	var h Header
	assert.Equal(t, ErrShortHeader, h.UnmarshalBinary(make([]byte, 15)))

	_, err := NewReader(bytes.NewReader(make([]byte, 10)))
	assert.Equal(t, ErrShortHeader, err)

	_, err = NewReader(bytes.NewReader(nil))
	assert.Equal(t, ErrShortHeader, err)
}

func TestHeaderAnyMagic(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), h.Magic)
	assert.Equal(t, uint64(6), h.RecordSize())
}

func TestReaderSequential(t *testing.T) {
	h := Header{Magic: MagicImages, Count: 3, Rows: 2, Cols: 4}
	r, err := NewReader(bytes.NewReader(dataset(t, h)))
	require.NoError(t, err)
	assert.Equal(t, h, r.Header())

	for i := 0; i < 3; i++ {
		record, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, 8), record)
	}

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderTruncated(t *testing.T) {
	h := Header{Magic: MagicImages, Count: 3, Rows: 2, Cols: 2}
	b := dataset(t, h)

	// Drop the last record and half of the one before it
	r, err := NewReader(bytes.NewReader(b[:len(b)-6]))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Available)
	assert.Equal(t, uint64(4), ide.Want)
	assert.Equal(t, uint64(2), ide.Got)
}

func TestReaderEndOfStream(t *testing.T) {
	// Header claims one record but there is nothing after it
	b, err := Header{Count: 1, Rows: 1, Cols: 1}.MarshalBinary()
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)

	_, err = r.Next()
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestReaderOversizedRecord(t *testing.T) {
	b := []byte{0x00, 0x00, 0x08, 0x03, 0x00, 0x00, 0x00, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffff)*0xffffffff, r.Header().RecordSize())

	var record []byte
	require.NotPanics(t, func() {
		record, err = r.Next()
	})
	assert.Nil(t, record)
	require.Error(t, err)

	// Too big for an int on 64-bit, otherwise just truncated
	var rse *RecordSizeError
	if !errors.As(err, &rse) {
		assert.True(t, errors.Is(err, ErrInsufficientData))
	}

	_, err = NewWriter(new(bytes.Buffer), Header{Count: 1, Rows: 0xffffffff, Cols: 0xffffffff})
	assert.Error(t, err)
}

func TestReaderLargeTruncatedRecord(t *testing.T) {
	// 65536x65536 claims 4 GiB per record but only a few bytes follow
	h := Header{Magic: MagicImages, Count: 1, Rows: 1 << 16, Cols: 1 << 16}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	b = append(b, 1, 2, 3)

	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, uint64(1)<<32, ide.Want)
	assert.Equal(t, uint64(3), ide.Got)
	assert.Equal(t, 0, ide.Available)
}

func TestCheckCount(t *testing.T) {
	h := Header{Count: 5, Rows: 1, Cols: 1}
	assert.NoError(t, h.CheckCount(0))
	assert.NoError(t, h.CheckCount(5))

	err := h.CheckCount(6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, "idx: insufficient records: requested 6, only 5 available", err.Error())
}

func TestWriter(t *testing.T) {
	b := new(bytes.Buffer)

	_, err := NewWriter(b, Header{Count: 1})
	assert.Error(t, err)

	w, err := NewWriter(b, Header{Count: 1, Rows: 1, Cols: 2})
	require.NoError(t, err)

	_, err = w.Write([]byte{1})
	assert.Equal(t, errWrongSize, err)
	assert.Error(t, w.Close())

	_, err = w.Write([]byte{1, 2})
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2})
	assert.Error(t, err)
	assert.NoError(t, w.Close())

	assert.Equal(t, HeaderSize+2, b.Len())
}

func TestOpen(t *testing.T) {
	h := Header{Magic: MagicImages, Count: 2, Rows: 3, Cols: 3}
	raw := dataset(t, h)

	gz := new(bytes.Buffer)
	gw := gzip.NewWriter(gz)
	_, err := gw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := zw.EncodeAll(raw, nil)
	require.NoError(t, zw.Close())

	tests := map[string][]byte{
		"raw":  raw,
		"gzip": gz.Bytes(),
		"zstd": zs,
	}

	dir := t.TempDir()
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(file, b, 0o644))

			f, err := Open(file)
			require.NoError(t, err)
			defer f.Close()

			got, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
