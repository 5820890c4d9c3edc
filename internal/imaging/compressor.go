// Package imaging shrinks uploaded images before they reach the engine.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultMaxPixels caps the decoded raster at roughly 160MB of RGBA.
const DefaultMaxPixels int64 = 40_000_000

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// the pixel cap. Nothing is decoded in that case.
var ErrImageTooLarge = errors.New("image dimensions exceed pixel limit")

// Compressor implements domain.ImageCompressor with Catmull-Rom resampling
// and JPEG re-encoding.
type Compressor struct {
	background color.Color
	maxPixels  int64
}

// NewCompressor creates a compressor that flattens transparency onto white
func NewCompressor() *Compressor {
	return &Compressor{background: color.White, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the largest width*height accepted for decoding.
// Values below 1 keep the current limit.
func (c *Compressor) WithMaxPixels(n int64) *Compressor {
	if n > 0 {
		c.maxPixels = n
	}
	return c
}

// ResizeAndRecompress decodes data, downscales it to fit within
// maxWidth x maxHeight keeping the aspect ratio, drops any alpha channel or
// palette and encodes the result as JPEG at quality.
func (c *Compressor) ResizeAndRecompress(data []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	if maxWidth < 1 || maxHeight < 1 {
		return nil, fmt.Errorf("invalid bounds %dx%d", maxWidth, maxHeight)
	}

	// The header is checked first so a small file declaring a huge raster
	// is refused before any pixel buffer is allocated.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width < 1 || cfg.Height < 1 || int64(cfg.Width)*int64(cfg.Height) > c.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d (max %d pixels)", ErrImageTooLarge, cfg.Width, cfg.Height, c.maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	sb := src.Bounds()
	w, h := FitWithin(sb.Dx(), sb.Dy(), maxWidth, maxHeight)

	// An opaque RGBA canvas turns alpha and palette images into plain RGB.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// FitWithin returns the largest size with the aspect ratio of w x h that fits
// maxW x maxH. Sizes already within bounds are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw > maxW {
		nw = maxW
	}
	if nh > maxH {
		nh = maxH
	}
	return nw, nh
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}
