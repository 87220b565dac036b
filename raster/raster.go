/*
Package raster converts IDX records to and from images.

A record is rows*cols bytes, one byte per pixel in row-major order, and maps
directly onto an 8-bit grayscale image with no normalization or colorspace
conversion.
*/
package raster

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrShape is returned when a buffer does not match the requested dimensions
var ErrShape = errors.New("raster: buffer does not match shape")

// Format is an output image format
type Format int

// Supported formats
const (
	JPEG Format = iota
	PNG
	GIF
)

var formats = map[string]Format{
	"jpeg": JPEG,
	"jpg":  JPEG,
	"png":  PNG,
	"gif":  GIF,
}

// ParseFormat returns the Format for the given name, case-insensitively
func ParseFormat(name string) (Format, error) {
	if f, ok := formats[strings.ToLower(name)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("raster: unknown format %q", name)
}

// Ext returns the file extension, including the leading dot
func (f Format) Ext() string {
	switch f {
	case PNG:
		return ".png"
	case GIF:
		return ".gif"
	default:
		return ".jpg"
	}
}

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case GIF:
		return "gif"
	default:
		return "jpeg"
	}
}

// MarshalText implements encoding.TextMarshaler
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Decode returns the record b as a rows by cols grayscale image. The pixel
// data is copied.
func Decode(b []byte, rows, cols int) (*image.Gray, error) {
	// Divide rather than multiply so huge dimensions cannot overflow
	if rows <= 0 || cols <= 0 || len(b)%cols != 0 || len(b)/cols != rows {
		return nil, ErrShape
	}
	m := image.NewGray(image.Rect(0, 0, cols, rows))
	copy(m.Pix, b)
	return m, nil
}
