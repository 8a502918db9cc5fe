// Package render rasterizes page snapshots and caches the last raster.
//
// GGRenderer draws only the annotations, on white paper of the page size.
// Page content streams are not rasterized; a host that needs them plugs in
// its own Renderer.
package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

// Raster is a rendered page as packed RGB8 samples
type Raster struct {
	Width  int
	Height int
	Stride int
	Pix    []byte

	// Page, Zoom and Revision identify what was rendered
	Page     int
	Zoom     float64
	Revision uint64
}

// NewRaster converts img to a raster, dropping alpha
func NewRaster(img image.Image) *Raster {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	r := &Raster{Width: w, Height: h, Stride: w * 3, Pix: make([]byte, w*h*3)}
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := r.Pix[y*r.Stride : y*r.Stride+w*3]
		for x := 0; x < w; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return r
}

// At returns the RGB sample at x, y
func (r *Raster) At(x, y int) (uint8, uint8, uint8) {
	i := y*r.Stride + x*3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// ToImage returns an opaque copy of the raster
func (r *Raster) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			si := y*r.Stride + x*3
			di := y*img.Stride + x*4
			img.Pix[di] = r.Pix[si]
			img.Pix[di+1] = r.Pix[si+1]
			img.Pix[di+2] = r.Pix[si+2]
			img.Pix[di+3] = 0xFF
		}
	}
	return img
}

// SavePNG writes the raster to a PNG file
func (r *Raster) SavePNG(path string) error {
	dc := gg.NewContextForImage(r.ToImage())
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save raster: %w", err)
	}
	return nil
}
