package raster

import (
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

const (
	// DefaultQuality is the JPEG quality used when none is given
	DefaultQuality = 95
	// DefaultColors is the GIF palette size used when none is given
	DefaultColors = 256
)

// Options control how an image is encoded
type Options struct {
	Format Format
	// Quality is the JPEG quality, 1 to 100
	Quality int
	// Colors is the maximum GIF palette size, 1 to 256
	Colors int
}

func (o Options) quality() int {
	if o.Quality < 1 || o.Quality > 100 {
		return DefaultQuality
	}
	return o.Quality
}

func (o Options) colors() int {
	if o.Colors < 1 || o.Colors > 256 {
		return DefaultColors
	}
	return o.Colors
}

// Encode writes m to w in the format given by o
func Encode(w io.Writer, m image.Image, o Options) error {
	switch o.Format {
	case PNG:
		return png.Encode(w, m)
	case GIF:
		// No dithering so flat regions stay flat
		return gif.Encode(w, m, &gif.Options{
			NumColors: o.colors(),
			Quantizer: &quantize.MedianCutQuantizer{},
			Drawer:    draw.Src,
		})
	default:
		return jpeg.Encode(w, m, &jpeg.Options{Quality: o.quality()})
	}
}
