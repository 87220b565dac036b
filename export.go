package idxtool

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/idxtool/catalog"
	"github.com/bodgit/idxtool/idx"
	"github.com/bodgit/idxtool/raster"
)

// DimensionError is returned when the header dimensions differ from the
// configured ones
type DimensionError struct {
	Rows, Cols         uint32
	WantRows, WantCols uint32
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("record is %dx%d, expected %dx%d", e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// MagicError is returned when the header magic differs from the configured
// one
type MagicError struct {
	Magic, Want uint32
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("bad magic number 0x%08x, expected 0x%08x", e.Magic, e.Want)
}

// Result summarises a completed export session
type Result struct {
	Header idx.Header
	// Files lists the written files in index order
	Files []string
	// Session is the catalog session ID, empty without a catalog
	Session string
}

func (e *Exporter) checkHeader(h idx.Header) error {
	if e.config.Magic != 0 && h.Magic != e.config.Magic {
		return &MagicError{Magic: h.Magic, Want: e.config.Magic}
	}
	if (e.config.Rows != 0 && h.Rows != e.config.Rows) || (e.config.Cols != 0 && h.Cols != e.config.Cols) {
		return &DimensionError{
			Rows:     h.Rows,
			Cols:     h.Cols,
			WantRows: e.config.Rows,
			WantCols: e.config.Cols,
		}
	}
	return nil
}

func (e *Exporter) writeSample(file string, record []byte, h idx.Header) (string, error) {
	m, err := raster.Decode(record, int(h.Rows), int(h.Cols))
	if err != nil {
		return "", err
	}

	f, err := os.Create(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum := sha1.New()
	if err := raster.Encode(io.MultiWriter(f, sum), m, raster.Options{
		Format:  e.config.Format,
		Quality: e.config.Quality,
		Colors:  e.config.Colors,
	}); err != nil {
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", sum.Sum(nil)), nil
}

// Export runs one export session. The first Count records of the input are
// written to the output directory as 0.jpg, 1.jpg, and so on, replacing any
// existing files. The first failure aborts the session; files already
// written are left in place.
func (e *Exporter) Export() (*Result, error) {
	f, err := idx.Open(e.config.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := idx.NewReader(f)
	if err != nil {
		return nil, err
	}
	h := r.Header()

	fmt.Fprintln(e.out, h)

	if err := e.checkHeader(h); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.config.Output, 0o755); err != nil {
		return nil, err
	}

	if err := h.CheckCount(e.config.Count); err != nil {
		return nil, err
	}

	result := &Result{
		Header: h,
		Files:  make([]string, 0, e.config.Count),
	}

	if e.catalog != nil {
		s, err := e.catalog.BeginSession(catalog.Session{
			Source: e.config.Input,
			Output: e.config.Output,
			Format: e.config.Format.String(),
			Magic:  h.Magic,
			Count:  h.Count,
			Rows:   h.Rows,
			Cols:   h.Cols,
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		result.Session = s.ID
		e.logger.Printf("Started catalog session %s\n", s.ID)
	}

	for i := 0; i < e.config.Count; i++ {
		record, err := r.Next()
		if err != nil {
			var ide *idx.InsufficientDataError
			if errors.As(err, &ide) {
				ide.Requested = e.config.Count
			}
			return nil, err
		}

		file := filepath.Join(e.config.Output, strconv.Itoa(i)+e.config.Format.Ext())
		sha, err := e.writeSample(file, record, h)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		e.logger.Printf("Wrote \"%s\" with SHA1 \"%s\"\n", file, sha)

		if e.catalog != nil {
			if err := e.catalog.AddSample(result.Session, catalog.Sample{
				Index:    i,
				Filename: filepath.Base(file),
				SHA1:     sha,
			}); err != nil {
				return nil, fmt.Errorf("catalog: %w", err)
			}
		}

		result.Files = append(result.Files, file)
	}

	fmt.Fprintf(e.out, "Saved %d images to %s\n", len(result.Files), e.config.Output)

	return result, nil
}
