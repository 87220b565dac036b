/*
Package idx implements a reader and writer for the IDX dataset format used to
distribute the MNIST handwritten digit images.

Only three dimensional files, such as the image files, are supported. The one
dimensional label files have an 8 byte header and are not readable here.

An image file starts with a 16 byte header holding four big-endian unsigned
32-bit integers; a magic number, the number of records, and the number of rows
and columns of each record. The records follow immediately with no padding,
each one rows*cols bytes long with one byte per pixel in row-major order.
*/
package idx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// HeaderSize is the size in bytes of the fixed header
	HeaderSize = 16

	// MagicImages is the magic number of an unsigned byte, three
	// dimensional file such as train-images-idx3-ubyte
	MagicImages = 0x00000803
)

var (
	// ErrShortHeader is returned when fewer than HeaderSize bytes are
	// available
	ErrShortHeader = errors.New("idx: short header")
	// ErrInsufficientData is matched by errors.Is for any
	// InsufficientDataError
	ErrInsufficientData = errors.New("idx: insufficient data")

	errZeroRecordSize = errors.New("idx: zero record size")
)

// Header is the fixed header at the start of an IDX file. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Header struct {
	Magic uint32 `json:"magic"`
	Count uint32 `json:"count"`
	Rows  uint32 `json:"rows"`
	Cols  uint32 `json:"cols"`
}

// RecordSize returns the size in bytes of each record. It cannot overflow
// as both dimensions are 32-bit.
func (h Header) RecordSize() uint64 {
	return uint64(h.Rows) * uint64(h.Cols)
}

// RecordSizeError is returned when a record is too large to be held in
// memory
type RecordSizeError struct {
	Rows, Cols uint32
}

func (e *RecordSizeError) Error() string {
	return fmt.Sprintf("idx: record of %dx%d bytes is too large", e.Rows, e.Cols)
}

func (h Header) recordSize() (int, error) {
	size := h.RecordSize()
	switch {
	case size == 0:
		return 0, errZeroRecordSize
	case size > math.MaxInt:
		return 0, &RecordSizeError{Rows: h.Rows, Cols: h.Cols}
	}
	return int(size), nil
}

func (h Header) String() string {
	return fmt.Sprintf("magic: %d, items: %d, rows: %d, cols: %d", h.Magic, h.Count, h.Rows, h.Cols)
}

// MarshalBinary encodes the header into its 16 byte form
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[0:], h.Magic)
	binary.BigEndian.PutUint32(b[4:], h.Count)
	binary.BigEndian.PutUint32(b[8:], h.Rows)
	binary.BigEndian.PutUint32(b[12:], h.Cols)
	return b, nil
}

// UnmarshalBinary decodes the header from the first 16 bytes of b. No check
// is made of the magic number.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return ErrShortHeader
	}
	h.Magic = binary.BigEndian.Uint32(b[0:])
	h.Count = binary.BigEndian.Uint32(b[4:])
	h.Rows = binary.BigEndian.Uint32(b[8:])
	h.Cols = binary.BigEndian.Uint32(b[12:])
	return nil
}

// InsufficientDataError reports that the dataset holds fewer records than
// were asked for, either because the header says so or because the stream
// ended early.
type InsufficientDataError struct {
	// Requested is the number of records asked for
	Requested int
	// Available is the number of complete records that could be read
	Available int
	// Want and Got are the byte counts of a truncated record, both zero
	// when the shortfall was detected from the header alone
	Want, Got uint64

	err error
}

func (e *InsufficientDataError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("idx: insufficient data: record %d truncated, got %d of %d bytes", e.Available, e.Got, e.Want)
	}
	return fmt.Sprintf("idx: insufficient records: requested %d, only %d available", e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientData) true
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

func (e *InsufficientDataError) Unwrap() error {
	return e.err
}

// CheckCount returns an InsufficientDataError if the header does not hold at
// least n records
func (h Header) CheckCount(n int) error {
	if n < 0 || uint64(n) > uint64(h.Count) {
		return &InsufficientDataError{
			Requested: n,
			Available: int(h.Count),
		}
	}
	return nil
}
