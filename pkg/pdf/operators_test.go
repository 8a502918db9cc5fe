package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOperations(t *testing.T) {
	content := []byte(`q 1 0 0 1 72 -3.5 cm % move
BT /F#31 12 Tf (a\(b\)\101) Tj <48 69> Tj [(A) -120 (B)] TJ ET
/Span <</ActualText (x)>> BDC EMC true null d0 Q`)

	ops, err := scanOperations(content)
	require.NoError(t, err)

	var names []string
	for _, op := range ops {
		names = append(names, op.op)
	}
	assert.Equal(t, []string{"q", "cm", "BT", "Tf", "Tj", "Tj", "TJ", "ET", "BDC", "EMC", "d0", "Q"}, names)

	cm, ok := ops[1].numbers()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0, 0, 1, 72, -3.5}, cm)

	assert.Equal(t, "F1", ops[3].operands[0].str)
	assert.Equal(t, "a(b)A", ops[4].operands[0].str)
	assert.Equal(t, "Hi", ops[5].operands[0].str)

	tj := ops[6].operands[0]
	require.Equal(t, operandArray, tj.kind)
	require.Len(t, tj.elems, 3)
	assert.Equal(t, -120.0, tj.elems[1].num)

	assert.Equal(t, "<</ActualText (x)>>", ops[8].operands[1].str)
	assert.Len(t, ops[10].operands, 2)
}

func TestScanOperationsInlineImage(t *testing.T) {
	ops, err := scanOperations([]byte("BI /W 1 /H 1 ID \x00EI\xff EI Q"))
	require.NoError(t, err)

	var names []string
	for _, op := range ops {
		names = append(names, op.op)
	}
	assert.Equal(t, []string{"BI", "ID", "Q"}, names)
}

func TestScanOperationsMalformed(t *testing.T) {
	ops, err := scanOperations([]byte("1 0 0 rg ) 12 Tf"))
	assert.Error(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "rg", ops[0].op)
}

func TestParseDefaultAppearance(t *testing.T) {
	tests := []struct {
		da    string
		size  float64
		color Color
	}{
		{"/Helv 14 Tf 1 0 0 rg", 14, Color{R: 255, A: 255}},
		{"0.5 g /Helv 9 Tf", 9, Color{R: 128, G: 128, B: 128, A: 255}},
		{"/Helv 0 Tf", 12, Black},
		{"", 12, Black},
		{"/Helv 10 Tf 1 0 rg", 10, Black},
	}

	for _, tt := range tests {
		size, c := parseDefaultAppearance(tt.da)
		assert.Equal(t, tt.size, size, tt.da)
		assert.Equal(t, tt.color, c, tt.da)
	}
}

func TestAppearanceImageName(t *testing.T) {
	name, ok := appearanceImageName([]byte("q 120 0 0 60 0 0 cm /Im0 Do Q"))
	assert.True(t, ok)
	assert.Equal(t, "Im0", name)

	_, ok = appearanceImageName([]byte("0 0 1 rg 0 0 10 10 re f"))
	assert.False(t, ok)
}

func TestUnescapeLiteral(t *testing.T) {
	assert.Equal(t, "plain", unescapeLiteral("plain"))
	assert.Equal(t, "a(b)\n\tA", unescapeLiteral(`a\(b\)\n\t\101`))
	assert.Equal(t, "joined", unescapeLiteral("join\\\ned"))
}
