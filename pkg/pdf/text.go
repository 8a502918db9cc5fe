package pdf

import (
	"fmt"
	"math"

	gopdf "github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
)

// DefaultTextExtractors returns the extraction backends in fallback order.
// ledongthuc/pdf handles more font encodings, dslipak/pdf tolerates some
// files the former rejects.
func DefaultTextExtractors() []TextExtractor {
	return []TextExtractor{LedongthucExtractor{}, DslipakExtractor{}}
}

// LedongthucExtractor extracts text using the ledongthuc/pdf library
type LedongthucExtractor struct{}

func (LedongthucExtractor) Name() string { return "ledongthuc" }

func (LedongthucExtractor) ExtractText(path string, pageNumber int) (runs []TextRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("ledongthuc panic: %v", r)
		}
	}()

	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}
	defer f.Close()

	if pageNumber < 1 || pageNumber > r.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	page := r.Page(pageNumber)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", pageNumber)
	}

	var glyphs []glyph
	for _, t := range page.Content().Text {
		glyphs = append(glyphs, glyph{s: t.S, x: t.X, y: t.Y, w: t.W, font: t.Font, size: t.FontSize})
	}
	return mergeGlyphs(glyphs), nil
}

// DslipakExtractor extracts text using the dslipak/pdf library
type DslipakExtractor struct{}

func (DslipakExtractor) Name() string { return "dslipak" }

func (DslipakExtractor) ExtractText(path string, pageNumber int) (runs []TextRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("dslipak panic: %v", r)
		}
	}()

	r, err := gopdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	if pageNumber < 1 || pageNumber > r.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	page := r.Page(pageNumber)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", pageNumber)
	}

	var glyphs []glyph
	for _, t := range page.Content().Text {
		glyphs = append(glyphs, glyph{s: t.S, x: t.X, y: t.Y, w: t.W, font: t.Font, size: t.FontSize})
	}
	return mergeGlyphs(glyphs), nil
}

// glyph is a backend-neutral text show item
type glyph struct {
	s    string
	x, y float64
	w    float64
	font string
	size float64
}

// mergeGlyphs joins glyphs that continue each other on the same baseline
// with the same font into runs
func mergeGlyphs(glyphs []glyph) []TextRun {
	var runs []TextRun
	for _, g := range glyphs {
		if g.s == "" {
			continue
		}
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			tolerance := math.Max(g.size, 1) * 0.5
			if last.Font == g.font && last.FontSize == g.size &&
				math.Abs(last.Y-g.y) < 0.01 &&
				math.Abs(last.X+last.Width-g.x) <= tolerance {
				last.Text += g.s
				last.Width = g.x + g.w - last.X
				continue
			}
		}
		runs = append(runs, TextRun{
			Text:     g.s,
			X:        g.x,
			Y:        g.y,
			Width:    g.w,
			FontSize: g.size,
			Font:     g.font,
		})
	}
	return runs
}
