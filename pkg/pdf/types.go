package pdf

import (
	"time"
)

// AnnotationKind identifies the variant of an Annotation
type AnnotationKind string

const (
	KindHighlight     AnnotationKind = "highlight"
	KindUnderline     AnnotationKind = "underline"
	KindTextInsertion AnnotationKind = "text"
	KindImageStamp    AnnotationKind = "stamp"
)

// IsStroke reports whether the kind is placed by a pointer drag
func (k AnnotationKind) IsStroke() bool {
	return k == KindHighlight || k == KindUnderline
}

// Point is a position in document units, origin top-left, y down
type Point struct {
	X, Y float64
}

// Rect represents a rectangular area in document units
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// RectFromPoints returns the normalized rectangle spanned by two corners
func RectFromPoints(a, b Point) Rect {
	return Rect{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y}.Normalize()
}

// Normalize orders the corners so that X0 <= X1 and Y0 <= Y1.
// Zero-area rectangles are kept as they are.
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Width returns the width of the rectangle
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the height of the rectangle
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Contains checks if a point is within the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Color represents an RGBA color
type Color struct {
	R, G, B uint8
	A       uint8 // Alpha channel
}

var (
	// HighlightYellow is the default highlight color, semi-transparent yellow
	HighlightYellow = Color{R: 255, G: 255, B: 0, A: 128}
	// Black is the default text color
	Black = Color{A: 255}
)

// Opacity returns the alpha channel in [0, 1]
func (c Color) Opacity() float64 {
	return float64(c.A) / 255
}

// RGB returns the color channels in [0, 1], as used by PDF operators
func (c Color) RGB() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Annotation is one mark placed on a page. Geometry is always in document
// units.
//
// Which payload fields are meaningful depends on Kind:
//   - Highlight, Underline: Rect, Color
//   - TextInsertion: Anchor (baseline start), Text, FontSize, Color, Rect
//   - ImageStamp: Anchor (top-left), Image (PNG bytes), ImageWidth,
//     ImageHeight, Rect
type Annotation struct {
	ID     string
	Kind   AnnotationKind
	Rect   Rect
	Anchor Point
	Color  Color

	Text     string
	FontSize float64

	Image       []byte
	ImageWidth  int
	ImageHeight int
}

// Page is a snapshot of one page of a Document
type Page struct {
	Index       int // 0-based
	Width       float64
	Height      float64
	Rotation    int
	Annotations []Annotation
	// Revision increases on every mutation of the page
	Revision uint64
}

// Size returns the page width and height in document units
func (p Page) Size() (float64, float64) {
	return p.Width, p.Height
}

// Metadata represents PDF document metadata
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
}

// TextRun is a piece of text found in the page content
type TextRun struct {
	Text     string
	X        float64 // Baseline start, document units
	Y        float64
	Width    float64
	FontSize float64
	Font     string
}
