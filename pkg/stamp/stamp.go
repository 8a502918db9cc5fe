// Package stamp prepares signature and stamp images for embedding: it decodes
// PNG, JPEG and BMP input and shrinks it to a bounded thumbnail.
package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

const (
	// MaxWidth and MaxHeight bound the size of an embedded stamp
	MaxWidth  = 200
	MaxHeight = 100
)

var (
	errEmpty    = errors.New("empty image data")
	errNoPixels = errors.New("image has no pixels")
)

// ImageFormatError is returned when stamp bytes are not a supported raster
// image
type ImageFormatError struct {
	Format string // detected format, if any
	Err    error
}

func (e *ImageFormatError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("unsupported image format %q: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("unsupported image: %v", e.Err)
}

func (e *ImageFormatError) Unwrap() error { return e.Err }

// Image is a decoded and thumbnailed stamp
type Image struct {
	RGBA *image.NRGBA
	// PNG holds the re-encoded thumbnail
	PNG []byte
}

// Width returns the thumbnail width in pixels
func (i *Image) Width() int { return i.RGBA.Bounds().Dx() }

// Height returns the thumbnail height in pixels
func (i *Image) Height() int { return i.RGBA.Bounds().Dy() }

// Decode decodes PNG, JPEG or BMP data
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &ImageFormatError{Err: errEmpty}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageFormatError{Format: format, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &ImageFormatError{Format: format, Err: errNoPixels}
	}
	return img, nil
}

// FitSize returns the largest size not exceeding maxW x maxH that keeps the
// aspect ratio of w x h. Images already inside the bounds are not enlarged.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/h against maxW/maxH without floating point
	if w*maxH > h*maxW {
		nh := (h*maxW + w/2) / w
		return maxW, max(nh, 1)
	}
	nw := (w*maxH + h/2) / h
	return max(nw, 1), maxH
}

// Thumbnail decodes data and shrinks it to fit maxW x maxH
func Thumbnail(data []byte, maxW, maxH int) (*Image, error) {
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return &Image{RGBA: dst, PNG: buf.Bytes()}, nil
}

// DecodeNRGBA decodes data into a non-premultiplied RGBA image without
// resizing it
func DecodeNRGBA(data []byte) (*image.NRGBA, error) {
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if n, ok := src.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n, nil
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}
