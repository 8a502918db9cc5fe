package session

import (
	"fmt"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/render"
)

// DefaultZoom matches the 2x pixmap the page view renders at
const DefaultZoom = 2.0

// Handle owns the open document, the current page, the zoom factor and the
// render cache
type Handle struct {
	doc      pdf.Document
	page     int
	zoom     float64
	cache    *render.Cache
	openOpts []pdf.OpenOption
	open     func(path string, opts ...pdf.OpenOption) (pdf.Document, error)
}

// NewHandle returns a handle with no document
func NewHandle(cache *render.Cache, zoom float64, opts ...pdf.OpenOption) *Handle {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &Handle{
		cache:    cache,
		zoom:     zoom,
		openOpts: opts,
		open: func(path string, opts ...pdf.OpenOption) (pdf.Document, error) {
			return pdf.Open(path, opts...)
		},
	}
}

// Open replaces the current document with the one at path. On failure the
// previous document stays open and untouched.
func (h *Handle) Open(path string) error {
	doc, err := h.open(path, h.openOpts...)
	if err != nil {
		logger.Logger().Warn("open failed", "path", path, "error", err)
		return err
	}

	if h.doc != nil {
		if err := h.doc.Close(); err != nil {
			logger.Logger().Warn("failed to close previous document", "error", err)
		}
	}
	h.doc = doc
	h.page = 0
	h.cache.Invalidate()
	return nil
}

// Save writes the document with all annotations to path
func (h *Handle) Save(path string) error {
	if h.doc == nil {
		return pdf.ErrNoDocument
	}
	return h.doc.Save(path)
}

// Close closes the document, if any
func (h *Handle) Close() error {
	if h.doc == nil {
		return nil
	}
	err := h.doc.Close()
	h.doc = nil
	h.page = 0
	h.cache.Invalidate()
	return err
}

// Document returns the open document or nil
func (h *Handle) Document() pdf.Document {
	return h.doc
}

// HasDocument reports whether a document is open
func (h *Handle) HasDocument() bool {
	return h.doc != nil
}

// PageCount returns the number of pages, 0 with no document
func (h *Handle) PageCount() int {
	if h.doc == nil {
		return 0
	}
	return h.doc.PageCount()
}

// CurrentPage returns the 0-based index of the displayed page
func (h *Handle) CurrentPage() int {
	return h.page
}

// GoTo displays page index. It returns false and changes nothing when index
// is out of range or already current.
func (h *Handle) GoTo(index int) bool {
	if h.doc == nil || index < 0 || index >= h.doc.PageCount() || index == h.page {
		return false
	}
	h.page = index
	return true
}

// Next moves to the following page
func (h *Handle) Next() bool {
	return h.GoTo(h.page + 1)
}

// Prev moves to the preceding page
func (h *Handle) Prev() bool {
	return h.GoTo(h.page - 1)
}

// Zoom returns the render zoom factor
func (h *Handle) Zoom() float64 {
	return h.zoom
}

// SetZoom changes the render zoom factor
func (h *Handle) SetZoom(zoom float64) error {
	if zoom <= 0 {
		return fmt.Errorf("invalid zoom %g", zoom)
	}
	h.zoom = zoom
	return nil
}

// Page returns a snapshot of the current page
func (h *Handle) Page() (pdf.Page, error) {
	if h.doc == nil {
		return pdf.Page{}, pdf.ErrNoDocument
	}
	return h.doc.GetPage(h.page)
}

// InsertText adds a text insertion to page index
func (h *Handle) InsertText(index int, anchor pdf.Point, text string, fontSize float64, color pdf.Color) error {
	if h.doc == nil {
		return pdf.ErrNoDocument
	}
	return h.doc.InsertText(index, anchor, text, fontSize, color)
}

// InsertImage stamps an image on page index
func (h *Handle) InsertImage(index int, anchor pdf.Point, data []byte) error {
	if h.doc == nil {
		return pdf.ErrNoDocument
	}
	return h.doc.InsertImage(index, anchor, data)
}

// AddStrokeAnnotation adds a highlight or underline to page index
func (h *Handle) AddStrokeAnnotation(index int, kind pdf.AnnotationKind, rect pdf.Rect, color pdf.Color) error {
	if h.doc == nil {
		return pdf.ErrNoDocument
	}
	return h.doc.AddStrokeAnnotation(index, kind, rect, color)
}

// PageText extracts the text of page index
func (h *Handle) PageText(index int) ([]pdf.TextRun, error) {
	if h.doc == nil {
		return nil, pdf.ErrNoDocument
	}
	return h.doc.PageText(index)
}

// Raster returns the current page rendered at the current zoom
func (h *Handle) Raster() (*render.Raster, error) {
	if h.doc == nil {
		return nil, pdf.ErrNoDocument
	}
	return h.cache.GetOrRender(h.doc, h.page, h.zoom)
}
