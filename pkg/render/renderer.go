package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/stamp"
)

// Renderer rasterizes a page snapshot. The output must depend only on the
// page content and zoom.
type Renderer interface {
	Render(page pdf.Page, zoom float64) (*Raster, error)
}

// GGRenderer draws pages with gg: white paper with the annotations on top.
// Page content streams are not rasterized.
type GGRenderer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewGGRenderer returns a renderer using the Go Regular font for text
func NewGGRenderer() (*GGRenderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &GGRenderer{font: f, faces: make(map[float64]font.Face)}, nil
}

// RasterSize returns the pixel size of a page rendered at zoom
func RasterSize(page pdf.Page, zoom float64) (int, int) {
	w := int(math.Ceil(page.Width * zoom))
	h := int(math.Ceil(page.Height * zoom))
	return max(w, 1), max(h, 1)
}

func (r *GGRenderer) Render(page pdf.Page, zoom float64) (*Raster, error) {
	if zoom <= 0 {
		return nil, fmt.Errorf("invalid zoom %g", zoom)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := RasterSize(page, zoom)
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.RGB(1, 1, 1))

	var texts []pdf.Annotation
	for _, a := range page.Annotations {
		var err error
		switch a.Kind {
		case pdf.KindHighlight:
			err = drawHighlight(dc, a, zoom)
		case pdf.KindUnderline:
			err = drawUnderline(dc, a, zoom)
		case pdf.KindImageStamp:
			err = drawStamp(dc, a, zoom)
		case pdf.KindTextInsertion:
			texts = append(texts, a)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to draw %s %s: %w", a.Kind, a.ID, err)
		}
	}

	img := dc.Image()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected image type %T", img)
	}
	for _, a := range texts {
		if err := r.drawText(rgba, a, zoom); err != nil {
			return nil, fmt.Errorf("failed to draw text %s: %w", a.ID, err)
		}
	}

	out := NewRaster(rgba)
	out.Page = page.Index
	out.Zoom = zoom
	out.Revision = page.Revision

	logger.Logger().Debug("page rendered",
		"page", page.Index, "zoom", zoom, "revision", page.Revision,
		"width", w, "height", h, "annotations", len(page.Annotations))
	return out, nil
}

func setColor(dc *gg.Context, c pdf.Color) {
	red, green, blue := c.RGB()
	dc.SetRGBA(red, green, blue, c.Opacity())
}

func drawHighlight(dc *gg.Context, a pdf.Annotation, zoom float64) error {
	setColor(dc, a.Color)
	dc.DrawRectangle(a.Rect.X0*zoom, a.Rect.Y0*zoom, a.Rect.Width()*zoom, a.Rect.Height()*zoom)
	return dc.Fill()
}

func drawUnderline(dc *gg.Context, a pdf.Annotation, zoom float64) error {
	setColor(dc, a.Color)
	dc.SetLineWidth(max(zoom, 1))
	y := a.Rect.Y1 * zoom
	dc.DrawLine(a.Rect.X0*zoom, y, a.Rect.X1*zoom, y)
	return dc.Stroke()
}

func drawStamp(dc *gg.Context, a pdf.Annotation, zoom float64) error {
	if len(a.Image) == 0 {
		return nil
	}
	img, err := stamp.DecodeNRGBA(a.Image)
	if err != nil {
		return err
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         a.Rect.X0 * zoom,
		Y:         a.Rect.Y0 * zoom,
		DstWidth:  a.Rect.Width() * zoom,
		DstHeight: a.Rect.Height() * zoom,
		Opacity:   1,
	})
	return nil
}

func (r *GGRenderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

func (r *GGRenderer) drawText(dst *image.RGBA, a pdf.Annotation, zoom float64) error {
	size := a.FontSize
	if size <= 0 {
		size = pdf.DefaultFontSize
	}
	face, err := r.face(size * zoom)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: a.Color.R, G: a.Color.G, B: a.Color.B, A: 255}),
		Face: face,
		Dot:  fixed.P(int(math.Round(a.Anchor.X*zoom)), int(math.Round(a.Anchor.Y*zoom))),
	}
	d.DrawString(a.Text)
	return nil
}
