package idx

import (
	"bytes"
	"io"
)

func readFull(r io.Reader, b []byte) (int, error) {
	n, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Reader reads records sequentially from an IDX stream. The stream is never
// seeked; each call to Next advances it by exactly one record.
type Reader struct {
	r io.Reader

	header Header
	index  int

	// Reused for each record
	buf bytes.Buffer
}

// NewReader reads the header from r and returns a Reader positioned at the
// first record.
func NewReader(r io.Reader) (*Reader, error) {
	var tmp [HeaderSize]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, ErrShortHeader
	}

	ir := &Reader{r: r}
	if err := ir.header.UnmarshalBinary(tmp[:]); err != nil {
		return nil, err
	}

	return ir, nil
}

// ReadHeader reads and returns just the header from r
func ReadHeader(r io.Reader) (Header, error) {
	ir, err := NewReader(r)
	if err != nil {
		return Header{}, err
	}
	return ir.Header(), nil
}

// Header returns the header read from the stream
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record. The returned slice is only valid until the
// following call to Next. Once all records declared in the header have been
// read io.EOF is returned. If the stream ends part way through a record an
// InsufficientDataError is returned.
func (r *Reader) Next() ([]byte, error) {
	if uint64(r.index) >= uint64(r.header.Count) {
		return nil, io.EOF
	}

	size, err := r.header.recordSize()
	if err != nil {
		return nil, err
	}

	// The buffer only grows as data arrives so a header claiming a huge
	// record cannot force a huge allocation
	r.buf.Reset()
	n, err := io.CopyN(&r.buf, r.r, int64(size))
	if err != nil {
		if err != io.EOF {
			return nil, err
		}
		return nil, &InsufficientDataError{
			Requested: r.index + 1,
			Available: r.index,
			Want:      uint64(size),
			Got:       uint64(n),
			err:       io.ErrUnexpectedEOF,
		}
	}
	r.index++

	return r.buf.Bytes(), nil
}
