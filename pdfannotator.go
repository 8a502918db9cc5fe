// Package pdfannotator opens PDF files for in-memory annotation with
// highlights, underlines, text insertions and image stamps, and writes them
// back to disk.
//
// Page rasters produced by the session show annotations on blank paper; the
// page content is left to the host's own Renderer.
package pdfannotator

import (
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/session"
)

// Re-export types from the pdf and session packages for the public API
type (
	Document       = pdf.Document
	Page           = pdf.Page
	Annotation     = pdf.Annotation
	AnnotationKind = pdf.AnnotationKind
	Point          = pdf.Point
	Rect           = pdf.Rect
	Color          = pdf.Color
	Metadata       = pdf.Metadata
	TextRun        = pdf.TextRun
	OpenOption     = pdf.OpenOption
	OpenError      = pdf.OpenError
	SaveError      = pdf.SaveError
	Session        = session.Session
	Dialogs        = session.Dialogs
)

// Re-export annotation kinds
const (
	KindHighlight     = pdf.KindHighlight
	KindUnderline     = pdf.KindUnderline
	KindTextInsertion = pdf.KindTextInsertion
	KindImageStamp    = pdf.KindImageStamp
)

// Re-export option functions and file tools
var (
	WithStampBounds    = pdf.WithStampBounds
	WithTextExtractors = pdf.WithTextExtractors
	Merge              = pdf.Merge
	Split              = pdf.Split
	ErrNoDocument      = pdf.ErrNoDocument
)

// Open opens a PDF file for annotation
func Open(path string, opts ...OpenOption) (Document, error) {
	doc, err := pdf.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// NewSession creates an interactive annotation session that talks to the
// user through dialogs
func NewSession(dialogs Dialogs, opts ...session.Option) (*Session, error) {
	return session.New(dialogs, opts...)
}
