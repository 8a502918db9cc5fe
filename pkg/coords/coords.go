// Package coords converts pointer positions on a displayed page raster to
// document units and back.
package coords

import (
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

// Size is a width and height, in pixels or document units depending on use
type Size struct {
	Width, Height float64
}

// Mapper maps screen pixels of a displayed raster to document units of the
// page it shows. X and Y scale independently.
//
// The zero offset reproduces a raster drawn at the viewport origin. A
// raster centered in a larger viewport needs WithOffset(Letterbox(...)),
// otherwise points are shifted by the margin.
type Mapper struct {
	raster Size
	page   Size
	offset pdf.Point
}

// New returns a mapper for a raster of the given pixel size showing a page
// of the given document size
func New(raster, page Size) Mapper {
	return Mapper{raster: raster, page: page}
}

// WithOffset returns a copy of m whose raster starts at off in screen pixels
func (m Mapper) WithOffset(off pdf.Point) Mapper {
	m.offset = off
	return m
}

// Offset returns the screen position of the raster origin
func (m Mapper) Offset() pdf.Point {
	return m.offset
}

// Raster returns the displayed raster size
func (m Mapper) Raster() Size {
	return m.raster
}

// Page returns the page size in document units
func (m Mapper) Page() Size {
	return m.page
}

// Valid reports whether both sizes are positive. Mapping with an invalid
// mapper returns the zero point.
func (m Mapper) Valid() bool {
	return m.raster.Width > 0 && m.raster.Height > 0 &&
		m.page.Width > 0 && m.page.Height > 0
}

// ToDocument converts a screen point to document units
func (m Mapper) ToDocument(p pdf.Point) pdf.Point {
	if !m.Valid() {
		return pdf.Point{}
	}
	return pdf.Point{
		X: (p.X - m.offset.X) * m.page.Width / m.raster.Width,
		Y: (p.Y - m.offset.Y) * m.page.Height / m.raster.Height,
	}
}

// ToScreen converts a document point to screen pixels
func (m Mapper) ToScreen(p pdf.Point) pdf.Point {
	if !m.Valid() {
		return pdf.Point{}
	}
	return pdf.Point{
		X: p.X*m.raster.Width/m.page.Width + m.offset.X,
		Y: p.Y*m.raster.Height/m.page.Height + m.offset.Y,
	}
}

// ToDocumentRect converts both corners of a screen rectangle
func (m Mapper) ToDocumentRect(r pdf.Rect) pdf.Rect {
	return pdf.RectFromPoints(
		m.ToDocument(pdf.Point{X: r.X0, Y: r.Y0}),
		m.ToDocument(pdf.Point{X: r.X1, Y: r.Y1}),
	)
}

// Letterbox returns the margin of a raster centered in a viewport. Axes
// where the raster is larger than the viewport get a zero margin.
func Letterbox(viewport, raster Size) pdf.Point {
	return pdf.Point{
		X: max((viewport.Width-raster.Width)/2, 0),
		Y: max((viewport.Height-raster.Height)/2, 0),
	}
}
