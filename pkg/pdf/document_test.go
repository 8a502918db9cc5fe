package pdf

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfannotator-golang/internal/pdftest"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/stamp"
)

func openTestDoc(t *testing.T, pages int) *PDFDocument {
	t.Helper()
	doc, err := Open(pdftest.File(t, pages))
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc
}

func saveAndReopen(t *testing.T, doc *PDFDocument) *PDFDocument {
	t.Helper()
	out := filepath.Join(t.TempDir(), "saved.pdf")
	require.NoError(t, doc.Save(out))
	reopened, err := Open(out)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	return reopened
}

func TestOpenPDF(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "meta.pdf", pdftest.Doc{
		Pages:  3,
		Title:  "Quarterly Report",
		Author: "Finance",
	})

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 3 {
		t.Errorf("Expected 3 pages, got %d", doc.PageCount())
	}
	if doc.ID() == "" {
		t.Error("Expected a document id")
	}

	meta := doc.GetMetadata()
	if meta.Title != "Quarterly Report" {
		t.Errorf("Expected title %q, got %q", "Quarterly Report", meta.Title)
	}
	if meta.Author != "Finance" {
		t.Errorf("Expected author %q, got %q", "Finance", meta.Author)
	}
	if meta.CreationDate.Year() != 2024 {
		t.Errorf("Expected creation year 2024, got %v", meta.CreationDate)
	}

	page, err := doc.GetPage(1)
	if err != nil {
		t.Fatalf("Failed to get page: %v", err)
	}
	if page.Width != pdftest.LetterWidth || page.Height != pdftest.LetterHeight {
		t.Errorf("Unexpected page size: %.2f x %.2f", page.Width, page.Height)
	}
	if len(page.Annotations) != 0 {
		t.Errorf("Expected no annotations, got %d", len(page.Annotations))
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a pdf"), 0o644))

	plain := pdftest.Write(t, dir, "plain.pdf", pdftest.Doc{Pages: 1})
	encrypted := filepath.Join(dir, "encrypted.pdf")
	conf := model.NewAESConfiguration("user", "owner", 256)
	require.NoError(t, api.EncryptFile(plain, encrypted, conf))

	tests := []struct {
		name   string
		path   string
		reason OpenReason
	}{
		{"missing file", filepath.Join(dir, "nope.pdf"), ReasonNotFound},
		{"not a pdf", garbage, ReasonCorrupt},
		{"encrypted", encrypted, ReasonEncrypted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(tt.path)
			assert.Nil(t, doc)

			var openErr *OpenError
			require.True(t, errors.As(err, &openErr), "got %v", err)
			assert.Equal(t, tt.reason, openErr.Reason)
			assert.Equal(t, tt.path, openErr.Path)
		})
	}
}

func TestTextInsertionSurvivesSave(t *testing.T) {
	doc := openTestDoc(t, 3)

	require.NoError(t, doc.InsertText(1, Point{X: 100, Y: 100}, "Draft", 12, Black))

	reopened := saveAndReopen(t, doc)
	require.Equal(t, 3, reopened.PageCount())

	page, err := reopened.GetPage(1)
	require.NoError(t, err)
	require.Len(t, page.Annotations, 1)

	a := page.Annotations[0]
	assert.Equal(t, KindTextInsertion, a.Kind)
	assert.Equal(t, "Draft", a.Text)
	assert.InDelta(t, 100, a.Anchor.X, 0.01)
	assert.InDelta(t, 100, a.Anchor.Y, 0.01)
	assert.InDelta(t, 12, a.FontSize, 0.01)
	assert.Equal(t, Black, a.Color)

	for _, index := range []int{0, 2} {
		other, err := reopened.GetPage(index)
		require.NoError(t, err)
		assert.Empty(t, other.Annotations, "page %d", index)
	}
}

func TestNonASCIITextSurvivesSave(t *testing.T) {
	doc := openTestDoc(t, 1)
	require.NoError(t, doc.InsertText(0, Point{X: 50, Y: 60}, "Café (draft) 初稿", 14, Color{R: 200, A: 255}))

	page, err := saveAndReopen(t, doc).GetPage(0)
	require.NoError(t, err)
	require.Len(t, page.Annotations, 1)
	assert.Equal(t, "Café (draft) 初稿", page.Annotations[0].Text)
	assert.Equal(t, Color{R: 200, A: 255}, page.Annotations[0].Color)
}

func TestStrokeAnnotationsRoundTrip(t *testing.T) {
	doc := openTestDoc(t, 2)

	highlight := Rect{X0: 300, Y0: 220, X1: 100, Y1: 200} // inverted on purpose
	underline := Rect{X0: 72, Y0: 400, X1: 200, Y1: 400}  // zero height

	require.NoError(t, doc.AddStrokeAnnotation(0, KindHighlight, highlight, HighlightYellow))
	require.NoError(t, doc.AddStrokeAnnotation(0, KindUnderline, underline, Color{B: 255, A: 255}))

	page, err := doc.GetPage(0)
	require.NoError(t, err)
	require.Len(t, page.Annotations, 2)
	assert.Equal(t, Rect{X0: 100, Y0: 200, X1: 300, Y1: 220}, page.Annotations[0].Rect)

	reopened, err := saveAndReopen(t, doc).GetPage(0)
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.EquateApprox(0, 0.01),
		cmpopts.IgnoreFields(Annotation{}, "Image"),
	}
	if diff := cmp.Diff(page.Annotations, reopened.Annotations, opts); diff != "" {
		t.Errorf("annotations changed across save (-want +got):\n%s", diff)
	}
}

func TestImageStampRoundTrip(t *testing.T) {
	doc := openTestDoc(t, 1)

	data := pdftest.PNG(t, 400, 300, color.NRGBA{R: 10, G: 20, B: 200, A: 255})
	require.NoError(t, doc.InsertImage(0, Point{X: 50, Y: 500}, data))

	page, err := doc.GetPage(0)
	require.NoError(t, err)
	require.Len(t, page.Annotations, 1)

	a := page.Annotations[0]
	assert.Equal(t, KindImageStamp, a.Kind)
	assert.LessOrEqual(t, a.ImageWidth, stamp.MaxWidth)
	assert.LessOrEqual(t, a.ImageHeight, stamp.MaxHeight)
	assert.InDelta(t, float64(a.ImageHeight)*4/3, float64(a.ImageWidth), 1)
	assert.Equal(t, Rect{X0: 50, Y0: 500, X1: 50 + float64(a.ImageWidth), Y1: 500 + float64(a.ImageHeight)}, a.Rect)

	reopened, err := saveAndReopen(t, doc).GetPage(0)
	require.NoError(t, err)
	require.Len(t, reopened.Annotations, 1)

	got := reopened.Annotations[0]
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.ImageWidth, got.ImageWidth)
	assert.Equal(t, a.ImageHeight, got.ImageHeight)

	img, err := png.Decode(bytes.NewReader(got.Image))
	require.NoError(t, err)
	r, g, b, _ := img.At(a.ImageWidth/2, a.ImageHeight/2).RGBA()
	assert.Equal(t, []uint32{10, 20, 200}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestInsertImageRejectsGarbage(t *testing.T) {
	doc := openTestDoc(t, 1)

	err := doc.InsertImage(0, Point{}, []byte("GIF89a nope"))
	var formatErr *stamp.ImageFormatError
	assert.True(t, errors.As(err, &formatErr), "got %v", err)
	assert.Zero(t, doc.Revision(0))
}

func TestRevisionCounter(t *testing.T) {
	doc := openTestDoc(t, 2)

	assert.Zero(t, doc.Revision(0))

	require.NoError(t, doc.InsertText(0, Point{X: 10, Y: 10}, "", 12, Black))
	assert.Zero(t, doc.Revision(0), "empty text is a no-op")

	require.NoError(t, doc.InsertText(0, Point{X: 10, Y: 10}, "a", 12, Black))
	require.NoError(t, doc.AddStrokeAnnotation(0, KindHighlight, Rect{X1: 5, Y1: 5}, HighlightYellow))
	assert.Equal(t, uint64(2), doc.Revision(0))
	assert.Zero(t, doc.Revision(1), "other pages keep their revision")

	require.NoError(t, doc.Save(filepath.Join(t.TempDir(), "out.pdf")))
	assert.Equal(t, uint64(2), doc.Revision(0), "save is not a mutation")
}

func TestMutationErrors(t *testing.T) {
	doc := openTestDoc(t, 1)

	assert.ErrorIs(t, doc.InsertText(1, Point{}, "x", 12, Black), ErrPageOutOfRange)
	assert.ErrorIs(t, doc.InsertImage(-1, Point{}, nil), ErrPageOutOfRange)
	assert.ErrorIs(t, doc.AddStrokeAnnotation(3, KindHighlight, Rect{}, Black), ErrPageOutOfRange)
	assert.ErrorIs(t, doc.AddStrokeAnnotation(0, KindTextInsertion, Rect{}, Black), ErrUnsupportedKind)

	_, err := doc.GetPage(1)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestSaveFailureLeavesDocumentUntouched(t *testing.T) {
	doc := openTestDoc(t, 1)
	require.NoError(t, doc.InsertText(0, Point{X: 20, Y: 30}, "keep me", 12, Black))
	before, err := doc.GetPage(0)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "missing", "out.pdf")
	err = doc.Save(dest)

	var saveErr *SaveError
	require.True(t, errors.As(err, &saveErr), "got %v", err)
	assert.Equal(t, ReasonIO, saveErr.Reason)
	assert.Equal(t, dest, saveErr.Path)

	after, err := doc.GetPage(0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoFileExists(t, dest)
}

func TestSaveDoesNotDuplicateAnnotations(t *testing.T) {
	doc := openTestDoc(t, 1)
	require.NoError(t, doc.AddStrokeAnnotation(0, KindUnderline, Rect{X0: 10, Y0: 10, X1: 90, Y1: 12}, Black))

	// saving twice from the same session writes the annotation once each time
	first := filepath.Join(t.TempDir(), "first.pdf")
	require.NoError(t, doc.Save(first))
	require.NoError(t, doc.Save(first))

	reopened, err := Open(first)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.InsertText(0, Point{X: 40, Y: 40}, "second", 10, Black))

	page, err := saveAndReopen(t, reopened).GetPage(0)
	require.NoError(t, err)

	var kinds []AnnotationKind
	for _, a := range page.Annotations {
		kinds = append(kinds, a.Kind)
	}
	assert.ElementsMatch(t, []AnnotationKind{KindUnderline, KindTextInsertion}, kinds)
}

func TestPageText(t *testing.T) {
	doc := openTestDoc(t, 2)

	runs, err := doc.PageText(1)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	var text strings.Builder
	for _, r := range runs {
		text.WriteString(r.Text)
	}
	if !strings.Contains(text.String(), "Page 2") {
		t.Errorf("Expected text to contain 'Page 2', got: %s", text.String())
	}

	// Td 72 720 on a 792pt page puts the baseline 72 units from the top
	assert.InDelta(t, 72, runs[0].X, 0.5)
	assert.InDelta(t, 72, runs[0].Y, 0.5)
}

type failingExtractor struct{ name string }

func (f failingExtractor) Name() string { return f.name }

func (f failingExtractor) ExtractText(string, int) ([]TextRun, error) {
	return nil, errors.New("boom")
}

type fixedExtractor struct{}

func (fixedExtractor) Name() string { return "fixed" }

func (fixedExtractor) ExtractText(_ string, pageNumber int) ([]TextRun, error) {
	return []TextRun{{Text: "x", X: 10, Y: 792 - 10, FontSize: 9}}, nil
}

func TestPageTextFallback(t *testing.T) {
	doc, err := Open(pdftest.File(t, 1), WithTextExtractors(failingExtractor{"first"}, fixedExtractor{}))
	require.NoError(t, err)
	defer doc.Close()

	runs, err := doc.PageText(0)
	require.NoError(t, err)
	assert.Equal(t, []TextRun{{Text: "x", X: 10, Y: 10, FontSize: 9}}, runs)

	doc, err = Open(pdftest.File(t, 1), WithTextExtractors(failingExtractor{"a"}, failingExtractor{"b"}))
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.PageText(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Contains(t, err.Error(), "b: boom")
}

func TestMergeGlyphs(t *testing.T) {
	glyphs := []glyph{
		{s: "P", x: 72, y: 720, w: 6, font: "F1", size: 12},
		{s: "age", x: 78, y: 720, w: 18, font: "F1", size: 12},
		{s: "next", x: 72, y: 700, w: 20, font: "F1", size: 12},
		{s: "bold", x: 92, y: 700, w: 20, font: "F2", size: 12},
	}

	runs := mergeGlyphs(glyphs)
	require.Len(t, runs, 3)
	assert.Equal(t, TextRun{Text: "Page", X: 72, Y: 720, Width: 24, FontSize: 12, Font: "F1"}, runs[0])
	assert.Equal(t, "next", runs[1].Text)
	assert.Equal(t, "bold", runs[2].Text)
}
