package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/stamp"
)

// DefaultFontSize is used for text insertions without an explicit size
const DefaultFontSize = 12

var disableConfigDir sync.Once

// newConfiguration returns a pdfcpu configuration that never touches the
// user's pdfcpu config directory
func newConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// pageState is the mutable state of one page
type pageState struct {
	number   int // 1-based
	width    float64
	height   float64
	rotation int
	geom     pageGeometry
	// base holds annotations found in the file, added those inserted since
	base     []Annotation
	added    []Annotation
	revision uint64
}

// PDFDocument implements the Document interface using pdfcpu
type PDFDocument struct {
	id         string
	raw        []byte
	filepath   string
	pages      []*pageState
	metadata   Metadata
	stampMaxW  int
	stampMaxH  int
	extractors []TextExtractor
}

// OpenOption is a function that modifies how a document is opened
type OpenOption func(*PDFDocument)

// WithStampBounds sets the largest size of an embedded stamp image
func WithStampBounds(maxWidth, maxHeight int) OpenOption {
	return func(d *PDFDocument) {
		if maxWidth > 0 && maxHeight > 0 {
			d.stampMaxW, d.stampMaxH = maxWidth, maxHeight
		}
	}
}

// WithTextExtractors replaces the text extraction backends, tried in order
func WithTextExtractors(extractors ...TextExtractor) OpenOption {
	return func(d *PDFDocument) {
		d.extractors = extractors
	}
}

// Open opens a PDF file and returns a Document. Failures are reported as
// *OpenError.
func Open(path string, opts ...OpenOption) (*PDFDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		reason := ReasonUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			reason = ReasonNotFound
		}
		return nil, &OpenError{Path: path, Reason: reason, Err: err}
	}

	ctx, err := readContext(raw)
	if err != nil {
		reason := ReasonCorrupt
		if msg := strings.ToLower(err.Error()); strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
			reason = ReasonEncrypted
		}
		return nil, &OpenError{Path: path, Reason: reason, Err: err}
	}
	if ctx.Encrypt != nil {
		return nil, &OpenError{Path: path, Reason: ReasonEncrypted}
	}

	doc := &PDFDocument{
		id:         uuid.NewString(),
		raw:        raw,
		filepath:   path,
		stampMaxW:  stamp.MaxWidth,
		stampMaxH:  stamp.MaxHeight,
		extractors: DefaultTextExtractors(),
	}
	for _, opt := range opts {
		opt(doc)
	}

	doc.extractMetadata(ctx)

	if err := doc.initializePages(ctx); err != nil {
		return nil, &OpenError{Path: path, Reason: ReasonCorrupt, Err: err}
	}

	logger.Logger().Info("document opened",
		"path", path, "pages", len(doc.pages), "id", doc.id)
	return doc, nil
}

// readContext parses and validates PDF bytes
func readContext(raw []byte) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	ctx, err = api.ReadContext(bytes.NewReader(raw), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	// Validate the PDF
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	return ctx, nil
}

// extractMetadata reads the Info dictionary, if any
func (d *PDFDocument) extractMetadata(ctx *model.Context) {
	if ctx.Info == nil {
		return
	}
	info, err := derefDict(ctx, *ctx.Info)
	if err != nil || info == nil {
		return
	}

	d.metadata = Metadata{
		Title:        getStringFromDict(info, "Title"),
		Author:       getStringFromDict(info, "Author"),
		Subject:      getStringFromDict(info, "Subject"),
		Keywords:     getStringFromDict(info, "Keywords"),
		Creator:      getStringFromDict(info, "Creator"),
		Producer:     getStringFromDict(info, "Producer"),
		CreationDate: parsePDFDate(getStringFromDict(info, "CreationDate")),
		ModDate:      parsePDFDate(getStringFromDict(info, "ModDate")),
	}
}

// initializePages collects size and annotations of every page
func (d *PDFDocument) initializePages(ctx *model.Context) error {
	pageCount := ctx.PageCount
	d.pages = make([]*pageState, pageCount)

	for i := 1; i <= pageCount; i++ {
		pageDict, _, attrs, err := ctx.PageDict(i, false)
		if err != nil {
			return fmt.Errorf("failed to get page dict %d: %w", i, err)
		}
		if pageDict == nil {
			return fmt.Errorf("page %d not found", i)
		}

		ps := &pageState{number: i}
		mediaBox := defaultMediaBox()
		if attrs != nil {
			if attrs.MediaBox != nil {
				mediaBox = attrs.MediaBox
			}
			ps.rotation = attrs.Rotate
		}
		ps.width = mediaBox.Width()
		ps.height = mediaBox.Height()
		ps.geom = pageGeometry{llx: mediaBox.LL.X, ury: mediaBox.UR.Y}

		annots, err := readAnnotations(ctx, pageDict, ps.geom)
		if err != nil {
			logger.Logger().Warn("skipping unreadable annotations",
				"page", i, "error", err)
		}
		ps.base = annots
		d.pages[i-1] = ps
	}

	return nil
}

// defaultMediaBox is US Letter
func defaultMediaBox() *types.Rectangle {
	return types.NewRectangle(0, 0, 612, 792)
}

// ID identifies this opened instance of the document
func (d *PDFDocument) ID() string {
	return d.id
}

// Path returns the file the document was opened from
func (d *PDFDocument) Path() string {
	return d.filepath
}

// GetMetadata returns the PDF metadata
func (d *PDFDocument) GetMetadata() Metadata {
	return d.metadata
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return len(d.pages)
}

func (d *PDFDocument) page(index int) (*pageState, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, len(d.pages))
	}
	return d.pages[index], nil
}

// GetPage returns a snapshot of a specific page by index (0-based)
func (d *PDFDocument) GetPage(index int) (Page, error) {
	ps, err := d.page(index)
	if err != nil {
		return Page{}, err
	}
	annots := make([]Annotation, 0, len(ps.base)+len(ps.added))
	annots = append(annots, ps.base...)
	annots = append(annots, ps.added...)
	return Page{
		Index:       index,
		Width:       ps.width,
		Height:      ps.height,
		Rotation:    ps.rotation,
		Annotations: annots,
		Revision:    ps.revision,
	}, nil
}

// Revision returns the mutation counter of a page, 0 when out of range
func (d *PDFDocument) Revision(index int) uint64 {
	ps, err := d.page(index)
	if err != nil {
		return 0
	}
	return ps.revision
}

func (d *PDFDocument) appendAnnotation(ps *pageState, a Annotation) {
	a.ID = uuid.NewString()
	ps.added = append(ps.added, a)
	ps.revision++
	logger.Logger().Info("annotation added",
		"kind", string(a.Kind), "page", ps.number-1, "revision", ps.revision)
}

// InsertText appends a text insertion. Empty text is a no-op.
func (d *PDFDocument) InsertText(index int, anchor Point, text string, fontSize float64, color Color) error {
	ps, err := d.page(index)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	d.appendAnnotation(ps, Annotation{
		Kind:     KindTextInsertion,
		Rect:     textRect(anchor, text, fontSize),
		Anchor:   anchor,
		Color:    color,
		Text:     text,
		FontSize: fontSize,
	})
	return nil
}

// InsertImage thumbnails a PNG, JPEG or BMP image and stamps it with its
// top-left corner at anchor. Undecodable data fails with
// *stamp.ImageFormatError.
func (d *PDFDocument) InsertImage(index int, anchor Point, data []byte) error {
	ps, err := d.page(index)
	if err != nil {
		return err
	}

	thumb, err := stamp.Thumbnail(data, d.stampMaxW, d.stampMaxH)
	if err != nil {
		return err
	}

	w, h := thumb.Width(), thumb.Height()
	d.appendAnnotation(ps, Annotation{
		Kind:        KindImageStamp,
		Rect:        Rect{X0: anchor.X, Y0: anchor.Y, X1: anchor.X + float64(w), Y1: anchor.Y + float64(h)},
		Anchor:      anchor,
		Image:       thumb.PNG,
		ImageWidth:  w,
		ImageHeight: h,
	})
	return nil
}

// AddStrokeAnnotation appends a highlight or underline. The rectangle is
// normalized, so inverted or zero-area input is accepted.
func (d *PDFDocument) AddStrokeAnnotation(index int, kind AnnotationKind, rect Rect, color Color) error {
	ps, err := d.page(index)
	if err != nil {
		return err
	}
	if !kind.IsStroke() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	d.appendAnnotation(ps, Annotation{
		Kind:  kind,
		Rect:  rect.Normalize(),
		Color: color,
	})
	return nil
}

// Save writes the original document plus every annotation added since it
// was opened. The file is written next to path and renamed into place, so
// a failure leaves neither a partial file nor a modified document.
func (d *PDFDocument) Save(path string) error {
	if d.raw == nil {
		return ErrNoDocument
	}

	ctx, err := readContext(d.raw)
	if err != nil {
		return &SaveError{Path: path, Reason: ReasonEncode, Err: err}
	}

	w := newAnnotationWriter(ctx)
	for _, ps := range d.pages {
		for _, a := range ps.added {
			if err := w.add(ps.number, ps.geom, a); err != nil {
				return &SaveError{Path: path, Reason: ReasonEncode, Err: err}
			}
		}
	}

	if err := writeAtomic(ctx, path); err != nil {
		return err
	}

	logger.Logger().Info("document saved", "path", path, "id", d.id)
	return nil
}

func writeAtomic(ctx *model.Context, path string) error {
	classify := func(err error) *SaveError {
		reason := ReasonIO
		if errors.Is(err, fs.ErrPermission) {
			reason = ReasonPermission
		}
		return &SaveError{Path: path, Reason: reason, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfannotator-*.pdf")
	if err != nil {
		return classify(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := api.WriteContext(ctx, tmp); err != nil {
		tmp.Close()
		return &SaveError{Path: path, Reason: ReasonEncode, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return classify(err)
	}
	if err := tmp.Close(); err != nil {
		return classify(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return classify(err)
	}
	return nil
}

// PageText extracts the text runs of the original page content, trying each
// extraction backend in turn
func (d *PDFDocument) PageText(index int) ([]TextRun, error) {
	ps, err := d.page(index)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, ex := range d.extractors {
		runs, err := ex.ExtractText(d.filepath, ps.number)
		if err != nil {
			logger.Logger().Debug("text extraction failed",
				"backend", ex.Name(), "page", index, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ex.Name(), err))
			continue
		}
		for i := range runs {
			p := ps.geom.fromPDF(runs[i].X, runs[i].Y)
			runs[i].X, runs[i].Y = p.X, p.Y
		}
		return runs, nil
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to extract text: %w", errors.Join(errs...))
}

// Close releases resources associated with the document
func (d *PDFDocument) Close() error {
	d.raw = nil
	d.pages = nil
	return nil
}
