package idx

import (
	"errors"
	"fmt"
	"io"
)

var errWrongSize = errors.New("idx: record is wrong size")

// Writer writes an IDX stream. The header is written by NewWriter and every
// record must be exactly Header.RecordSize bytes.
type Writer struct {
	w io.Writer

	header  Header
	written int
}

// NewWriter writes h to w and returns a Writer ready for h.Count records
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if _, err := h.recordSize(); err != nil {
		return nil, err
	}

	b, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		return nil, err
	}

	return &Writer{
		w:      w,
		header: h,
	}, nil
}

// Write writes a single record
func (w *Writer) Write(record []byte) (int, error) {
	if uint64(len(record)) != w.header.RecordSize() {
		return 0, errWrongSize
	}
	if uint64(w.written) >= uint64(w.header.Count) {
		return 0, fmt.Errorf("idx: more than %d records", w.header.Count)
	}
	n, err := w.w.Write(record)
	if err != nil {
		return n, err
	}
	w.written++
	return n, nil
}

// Close checks that the number of records written matches the header. It
// does not close the underlying writer.
func (w *Writer) Close() error {
	if uint64(w.written) != uint64(w.header.Count) {
		return fmt.Errorf("idx: wrote %d of %d records", w.written, w.header.Count)
	}
	return nil
}
