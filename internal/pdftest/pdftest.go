// Package pdftest assembles small PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Letter page size in points
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Doc describes a generated document
type Doc struct {
	Pages  int
	Width  float64
	Height float64
	Title  string
	Author string
}

// Build returns the bytes of a PDF with doc.Pages pages. Page n shows the
// text "Page n" in Helvetica 12pt at (72, 720).
func Build(doc Doc) []byte {
	if doc.Pages < 1 {
		doc.Pages = 1
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		doc.Width, doc.Height = LetterWidth, LetterHeight
	}

	// Objects: 1 catalog, 2 pages, 3 font, then page/content pairs, then info
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < doc.Pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, doc.Pages))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i := 0; i < doc.Pages; i++ {
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			doc.Width, doc.Height, 5+2*i)
		content := fmt.Sprintf("BT /F1 12 Tf 72 %g Td (Page %d) Tj ET", doc.Height-72, i+1)
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
		objects = append(objects, page, stream)
	}

	infoNum := 0
	if doc.Title != "" || doc.Author != "" {
		info := "<< "
		if doc.Title != "" {
			info += fmt.Sprintf("/Title (%s) ", doc.Title)
		}
		if doc.Author != "" {
			info += fmt.Sprintf("/Author (%s) ", doc.Author)
		}
		info += "/CreationDate (D:20240102030405Z) >>"
		objects = append(objects, info)
		infoNum = len(objects)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root 1 0 R", len(objects)+1)
	if infoNum > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoNum)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// Write builds a document into dir/name and returns its path
func Write(t testing.TB, dir, name string, doc Doc) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// File writes an n page letter document to a fresh temp dir
func File(t testing.TB, n int) string {
	t.Helper()
	return Write(t, t.TempDir(), "doc.pdf", Doc{Pages: n})
}

// PNG returns a w x h image filled with c
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
