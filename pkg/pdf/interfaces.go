package pdf

// PageSource is the read-only view of a document needed to render pages
type PageSource interface {
	// ID identifies this opened instance of the document
	ID() string

	// GetPage returns a snapshot of a page by index (0-based)
	GetPage(index int) (Page, error)

	// Revision returns the mutation counter of a page
	Revision(index int) uint64
}

// Document represents an opened PDF document that can be annotated in memory
// and written back to disk
type Document interface {
	PageSource

	// GetMetadata returns the PDF metadata
	GetMetadata() Metadata

	// PageCount returns the total number of pages
	PageCount() int

	// InsertText appends a text insertion anchored at the baseline start
	InsertText(index int, anchor Point, text string, fontSize float64, color Color) error

	// InsertImage decodes, thumbnails and stamps an image with its top-left
	// corner at anchor
	InsertImage(index int, anchor Point, data []byte) error

	// AddStrokeAnnotation appends a highlight or underline covering rect
	AddStrokeAnnotation(index int, kind AnnotationKind, rect Rect, color Color) error

	// PageText extracts the text runs of the original page content
	PageText(index int) ([]TextRun, error)

	// Save serializes the document with all annotations to path
	Save(path string) error

	// Close releases resources associated with the document
	Close() error
}

// TextExtractor extracts positioned text from a PDF file
type TextExtractor interface {
	// Name identifies the backend in logs
	Name() string

	// ExtractText returns the text runs of a page (1-based page number).
	// Coordinates are PDF user space, origin bottom-left.
	ExtractText(path string, pageNumber int) ([]TextRun, error)
}
