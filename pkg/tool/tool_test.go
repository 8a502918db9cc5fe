package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

func TestEveryMoveCommitsFromStart(t *testing.T) {
	m := New(CommitEveryMove)
	start := pdf.Point{X: 10, Y: 20}

	assert.Nil(t, m.Down(start))
	assert.Equal(t, Stroking, m.State())

	moves := []pdf.Point{{X: 15, Y: 22}, {X: 30, Y: 25}, {X: 5, Y: 10}}
	var strokes []Stroke
	for _, p := range moves {
		s, ok := m.Move(p)
		require.True(t, ok)
		strokes = append(strokes, s)
	}

	require.Len(t, strokes, len(moves))
	assert.Equal(t, pdf.Rect{X0: 10, Y0: 20, X1: 15, Y1: 22}, strokes[0].Rect)
	assert.Equal(t, pdf.Rect{X0: 10, Y0: 20, X1: 30, Y1: 25}, strokes[1].Rect)
	// moving back past the start gives a normalized rect
	assert.Equal(t, pdf.Rect{X0: 5, Y0: 10, X1: 10, Y1: 20}, strokes[2].Rect)
	for _, s := range strokes {
		assert.Equal(t, pdf.KindHighlight, s.Kind)
		assert.Equal(t, pdf.HighlightYellow, s.Color)
	}

	_, ok := m.Up(pdf.Point{X: 40, Y: 40})
	assert.False(t, ok, "release commits nothing beyond the moves")
	assert.Equal(t, Idle, m.State())

	_, started := m.Start()
	assert.False(t, started)
}

func TestCommitOnRelease(t *testing.T) {
	m := New(CommitOnRelease)
	m.SetTool(Underline)
	m.SetColor(pdf.Color{R: 255, A: 255})

	m.Down(pdf.Point{X: 100, Y: 50})
	for i := 0; i < 5; i++ {
		_, ok := m.Move(pdf.Point{X: 100 + float64(i), Y: 52})
		assert.False(t, ok)
	}

	s, ok := m.Up(pdf.Point{X: 180, Y: 55})
	require.True(t, ok)
	assert.Equal(t, Stroke{
		Kind:  pdf.KindUnderline,
		Rect:  pdf.Rect{X0: 100, Y0: 50, X1: 180, Y1: 55},
		Color: pdf.Color{R: 255, A: 255},
	}, s)
	assert.Equal(t, Idle, m.State())
}

func TestOneShotTools(t *testing.T) {
	for _, tl := range []Tool{Text, Image} {
		t.Run(tl.String(), func(t *testing.T) {
			m := New(CommitEveryMove)
			m.SetTool(tl)

			p := m.Down(pdf.Point{X: 7, Y: 8})
			require.NotNil(t, p)
			assert.Equal(t, tl, p.Tool)
			assert.Equal(t, pdf.Point{X: 7, Y: 8}, p.Anchor)
			assert.Equal(t, Idle, m.State())

			_, ok := m.Move(pdf.Point{X: 9, Y: 9})
			assert.False(t, ok)
			_, ok = m.Up(pdf.Point{X: 9, Y: 9})
			assert.False(t, ok)
		})
	}
}

func TestEventsWithoutStroke(t *testing.T) {
	m := New(CommitEveryMove)

	_, ok := m.Move(pdf.Point{X: 1, Y: 1})
	assert.False(t, ok)
	_, ok = m.Up(pdf.Point{X: 1, Y: 1})
	assert.False(t, ok)
	assert.Equal(t, Idle, m.State())
}

func TestLeaveResetsStroke(t *testing.T) {
	m := New(CommitOnRelease)
	m.Down(pdf.Point{X: 1, Y: 1})
	m.Leave()

	assert.Equal(t, Idle, m.State())
	_, ok := m.Up(pdf.Point{X: 50, Y: 50})
	assert.False(t, ok)
}

func TestToolSwitchMidStroke(t *testing.T) {
	m := New(CommitEveryMove)
	m.Down(pdf.Point{X: 0, Y: 0})

	first, _ := m.Move(pdf.Point{X: 10, Y: 10})
	m.SetTool(Underline)
	second, _ := m.Move(pdf.Point{X: 20, Y: 10})

	assert.Equal(t, pdf.KindHighlight, first.Kind)
	assert.Equal(t, pdf.KindUnderline, second.Kind)
	assert.Equal(t, pdf.Rect{X1: 20, Y1: 10}, second.Rect)

	m.SetTool(Text)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, Text, m.Tool())
}

func TestParse(t *testing.T) {
	for _, tl := range []Tool{Highlight, Underline, Text, Image} {
		got, err := ParseTool(tl.String())
		require.NoError(t, err)
		assert.Equal(t, tl, got)
	}
	_, err := ParseTool("eraser")
	assert.Error(t, err)

	p, err := ParseCommitPolicy("release")
	require.NoError(t, err)
	assert.Equal(t, CommitOnRelease, p)

	p, err = ParseCommitPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CommitEveryMove, p)

	_, err = ParseCommitPolicy("never")
	assert.Error(t, err)
}
