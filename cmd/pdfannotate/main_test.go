package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfannotator-golang/internal/config"
	"github.com/pyhub-apps/pdfannotator-golang/internal/pdftest"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

func annotationsOf(t *testing.T, path string, index int) []pdf.Annotation {
	t.Helper()
	doc, err := pdf.Open(path)
	require.NoError(t, err)
	defer doc.Close()
	page, err := doc.GetPage(index)
	require.NoError(t, err)
	return page.Annotations
}

func TestRunAnnotatesFirstPage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	sc := &script{
		page:       1,
		highlights: listFlag{"72,60,200,80"},
		outPath:    out,
	}

	require.NoError(t, run(config.Load(), pdftest.File(t, 3), sc))

	annots := annotationsOf(t, out, 0)
	require.Len(t, annots, 1)
	assert.Equal(t, pdf.KindHighlight, annots[0].Kind)
	assert.InDelta(t, 72, annots[0].Rect.X0, 0.01)
	assert.InDelta(t, 80, annots[0].Rect.Y1, 0.01)
	assert.Empty(t, annotationsOf(t, out, 1))
}

func TestRunAnnotatesLaterPage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	sc := &script{
		page:    2,
		texts:   listFlag{"100,120,Checked, twice"},
		outPath: out,
	}

	require.NoError(t, run(config.Load(), pdftest.File(t, 3), sc))

	assert.Empty(t, annotationsOf(t, out, 0))
	annots := annotationsOf(t, out, 1)
	require.Len(t, annots, 1)
	assert.Equal(t, "Checked, twice", annots[0].Text)
}

func TestRunRejectsPageOutOfRange(t *testing.T) {
	path := pdftest.File(t, 3)
	for _, page := range []int{0, 4} {
		err := run(config.Load(), path, &script{page: page})
		assert.ErrorContains(t, err, "out of range", "page %d", page)
	}
}
