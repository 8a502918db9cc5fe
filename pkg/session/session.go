// Package session is the annotation session controller: it owns the open
// document, the page view and the active tool, and turns pointer events
// and dialog results into document mutations.
//
// A Session is driven from a single UI thread and is not safe for
// concurrent use.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/coords"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/render"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/tool"
)

const textPrompt = "Enter text to add:"

// Option configures a Session
type Option func(*options)

type options struct {
	zoom      float64
	policy    tool.CommitPolicy
	highlight pdf.Color
	textColor pdf.Color
	fontSize  float64
	renderer  render.Renderer
	letterbox bool
	openOpts  []pdf.OpenOption
}

// WithZoom sets the initial render zoom
func WithZoom(zoom float64) Option {
	return func(o *options) { o.zoom = zoom }
}

// WithCommitPolicy sets when strokes become annotations
func WithCommitPolicy(p tool.CommitPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithHighlightColor sets the initial tool colour
func WithHighlightColor(c pdf.Color) Option {
	return func(o *options) { o.highlight = c }
}

// WithTextStyle sets the font size and colour of "Add Text" insertions
func WithTextStyle(fontSize float64, c pdf.Color) Option {
	return func(o *options) {
		if fontSize > 0 {
			o.fontSize = fontSize
		}
		o.textColor = c
	}
}

// WithRenderer replaces the default gg renderer
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithLetterbox makes pointer mapping subtract the margin of a raster
// centered in the viewport
func WithLetterbox(enabled bool) Option {
	return func(o *options) { o.letterbox = enabled }
}

// WithOpenOptions passes options to every pdf.Open
func WithOpenOptions(opts ...pdf.OpenOption) Option {
	return func(o *options) { o.openOpts = append(o.openOpts, opts...) }
}

// Session is the annotation session controller
type Session struct {
	handle    *Handle
	cache     *render.Cache
	tools     *tool.Machine
	dialogs   Dialogs
	textColor pdf.Color
	fontSize  float64
	letterbox bool

	viewport coords.Size
	mapper   coords.Mapper
}

// New returns a session with no document
func New(dialogs Dialogs, opts ...Option) (*Session, error) {
	o := options{
		zoom:      DefaultZoom,
		highlight: pdf.HighlightYellow,
		textColor: pdf.Black,
		fontSize:  pdf.DefaultFontSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.renderer == nil {
		r, err := render.NewGGRenderer()
		if err != nil {
			return nil, err
		}
		o.renderer = r
	}

	cache := render.NewCache(o.renderer)
	machine := tool.New(o.policy)
	machine.SetColor(o.highlight)

	return &Session{
		handle:    NewHandle(cache, o.zoom, o.openOpts...),
		cache:     cache,
		tools:     machine,
		dialogs:   dialogs,
		textColor: o.textColor,
		fontSize:  o.fontSize,
		letterbox: o.letterbox,
	}, nil
}

// Handle returns the document handle
func (s *Session) Handle() *Handle {
	return s.handle
}

// Tools returns the tool state machine
func (s *Session) Tools() *tool.Machine {
	return s.tools
}

// CacheStats reports render cache hits and misses
func (s *Session) CacheStats() render.Stats {
	return s.cache.Stats()
}

// OpenFile opens path, replacing the current document on success
func (s *Session) OpenFile(path string) error {
	if err := s.handle.Open(path); err != nil {
		return err
	}
	s.tools.Leave()
	s.mapper = coords.Mapper{}
	return nil
}

// OpenWithDialog asks for a file and opens it, reporting failures
func (s *Session) OpenWithDialog() {
	path, ok := s.dialogs.OpenPath()
	if !ok || path == "" {
		return
	}
	if err := s.OpenFile(path); err != nil {
		s.dialogs.Notify(MessageError, fmt.Sprintf("Could not open PDF: %v", err))
	}
}

// Save writes the document to path
func (s *Session) Save(path string) error {
	return s.handle.Save(path)
}

// SaveWithDialog asks for a destination and saves, reporting the outcome.
// Without a document it does nothing.
func (s *Session) SaveWithDialog() {
	if !s.handle.HasDocument() {
		return
	}
	path, ok := s.dialogs.SavePath()
	if !ok || path == "" {
		return
	}
	if err := s.Save(path); err != nil {
		s.dialogs.Notify(MessageError, fmt.Sprintf("Could not save PDF: %v", err))
		return
	}
	s.dialogs.Notify(MessageInfo, "PDF saved successfully!")
}

// GoTo displays page index, see Handle.GoTo
func (s *Session) GoTo(index int) bool {
	if !s.handle.GoTo(index) {
		return false
	}
	s.pageChanged()
	return true
}

// NextPage displays the following page
func (s *Session) NextPage() bool {
	return s.GoTo(s.handle.CurrentPage() + 1)
}

// PrevPage displays the preceding page
func (s *Session) PrevPage() bool {
	return s.GoTo(s.handle.CurrentPage() - 1)
}

// SetZoom changes the render zoom
func (s *Session) SetZoom(zoom float64) error {
	if err := s.handle.SetZoom(zoom); err != nil {
		return err
	}
	s.pageChanged()
	return nil
}

// pageChanged drops the mapping of a raster that is no longer displayed and
// any stroke started on it
func (s *Session) pageChanged() {
	s.tools.Leave()
	s.mapper = coords.Mapper{}
}

// PageLabel returns the "Page: n/N" status text, empty with no document
func (s *Session) PageLabel() string {
	if !s.handle.HasDocument() {
		return ""
	}
	return fmt.Sprintf("Page: %d/%d", s.handle.CurrentPage()+1, s.handle.PageCount())
}

// SetTool switches the active tool
func (s *Session) SetTool(t tool.Tool) {
	s.tools.SetTool(t)
}

// SetColor sets the colour of the next annotations
func (s *Session) SetColor(c pdf.Color) {
	s.tools.SetColor(c)
}

// ChooseColor asks for a new tool colour
func (s *Session) ChooseColor() {
	c, ok := s.dialogs.Color(s.tools.Color())
	if ok {
		s.tools.SetColor(c)
	}
}

// SetViewport sets the size of the widget the raster is shown in. A zero
// size means the raster is shown unscaled at the origin. The mapping stays
// invalid until the displayed page has been rendered at the current zoom.
func (s *Session) SetViewport(size coords.Size) {
	s.viewport = size
	if r := s.cache.Peek(); r != nil && s.isCurrent(r) {
		s.updateMapper(r)
	}
}

// isCurrent reports whether r shows the current page, zoom and revision
func (s *Session) isCurrent(r *render.Raster) bool {
	doc := s.handle.Document()
	if doc == nil {
		return false
	}
	page := s.handle.CurrentPage()
	return r.Page == page && r.Zoom == s.handle.Zoom() && r.Revision == doc.Revision(page)
}

// Raster renders the current page, or returns the cached raster, and
// updates the pointer mapping to match it
func (s *Session) Raster() (*render.Raster, error) {
	r, err := s.handle.Raster()
	if err != nil {
		return nil, err
	}
	s.updateMapper(r)
	return r, nil
}

// Mapper returns the current pointer mapping. It is invalid until a raster
// of the current page has been produced.
func (s *Session) Mapper() coords.Mapper {
	return s.mapper
}

func (s *Session) updateMapper(r *render.Raster) {
	page, err := s.handle.Page()
	if err != nil {
		s.mapper = coords.Mapper{}
		return
	}

	raster := coords.Size{Width: float64(r.Width), Height: float64(r.Height)}
	displayed := fitInside(raster, s.viewport)

	m := coords.New(displayed, coords.Size{Width: page.Width, Height: page.Height})
	if s.letterbox && s.viewport.Width > 0 && s.viewport.Height > 0 {
		m = m.WithOffset(coords.Letterbox(s.viewport, displayed))
	}
	s.mapper = m
}

// fitInside scales raster to fit viewport keeping its aspect ratio
func fitInside(raster, viewport coords.Size) coords.Size {
	if viewport.Width <= 0 || viewport.Height <= 0 || raster.Width <= 0 || raster.Height <= 0 {
		return raster
	}
	scale := min(viewport.Width/raster.Width, viewport.Height/raster.Height)
	return coords.Size{Width: raster.Width * scale, Height: raster.Height * scale}
}

func (s *Session) ready() bool {
	return s.handle.HasDocument() && s.mapper.Valid()
}

// PointerDown handles a press at screen point p. Stroke tools start a
// stroke; the text and image tools prompt and insert at p.
func (s *Session) PointerDown(p pdf.Point) {
	if !s.ready() {
		return
	}
	placement := s.tools.Down(s.mapper.ToDocument(p))
	if placement == nil {
		return
	}
	switch placement.Tool {
	case tool.Text:
		s.promptText(placement.Anchor)
	case tool.Image:
		s.promptImage(placement.Anchor)
	}
}

// PointerMove handles motion to screen point p
func (s *Session) PointerMove(p pdf.Point) {
	if !s.ready() {
		return
	}
	if stroke, ok := s.tools.Move(s.mapper.ToDocument(p)); ok {
		s.commit(stroke)
	}
}

// PointerUp handles a release at screen point p
func (s *Session) PointerUp(p pdf.Point) {
	if !s.ready() {
		s.tools.Leave()
		return
	}
	if stroke, ok := s.tools.Up(s.mapper.ToDocument(p)); ok {
		s.commit(stroke)
	}
}

// PointerLeave abandons the stroke in progress
func (s *Session) PointerLeave() {
	s.tools.Leave()
}

func (s *Session) commit(st tool.Stroke) {
	err := s.handle.AddStrokeAnnotation(s.handle.CurrentPage(), st.Kind, st.Rect, st.Color)
	if err != nil {
		s.report("Could not add annotation", err)
	}
}

// pageCenter returns the middle of the current page in document units
func (s *Session) pageCenter() (pdf.Point, bool) {
	page, err := s.handle.Page()
	if err != nil {
		return pdf.Point{}, false
	}
	return pdf.Point{X: page.Width / 2, Y: page.Height / 2}, true
}

// AddText asks for text and inserts it at the centre of the current page
func (s *Session) AddText() {
	if center, ok := s.pageCenter(); ok {
		s.promptText(center)
	}
}

// AddSignature asks for an image and stamps it at the centre of the
// current page
func (s *Session) AddSignature() {
	if center, ok := s.pageCenter(); ok {
		s.promptImage(center)
	}
}

func (s *Session) promptText(anchor pdf.Point) {
	text, ok := s.dialogs.Text(textPrompt)
	if !ok || text == "" {
		return
	}
	err := s.handle.InsertText(s.handle.CurrentPage(), anchor, text, s.fontSize, s.textColor)
	if err != nil {
		s.report("Could not add text", err)
	}
}

func (s *Session) promptImage(anchor pdf.Point) {
	path, ok := s.dialogs.ImagePath()
	if !ok || path == "" {
		return
	}
	if err := s.InsertImageFile(anchor, path); err != nil {
		s.report("Could not add signature", err)
	}
}

// InsertImageFile stamps the image at path on the current page
func (s *Session) InsertImageFile(anchor pdf.Point, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	return s.handle.InsertImage(s.handle.CurrentPage(), anchor, data)
}

// report surfaces err to the user. A missing document is not an error.
func (s *Session) report(prefix string, err error) {
	if errors.Is(err, pdf.ErrNoDocument) {
		return
	}
	logger.Logger().Warn(prefix, "error", err)
	s.dialogs.Notify(MessageError, fmt.Sprintf("%s: %v", prefix, err))
}

// Close closes the open document
func (s *Session) Close() error {
	s.tools.Leave()
	s.mapper = coords.Mapper{}
	return s.handle.Close()
}
