package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/tool"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 2.0, cfg.Zoom)
	assert.False(t, cfg.Letterbox)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 12.0, cfg.Annotation.FontSize)
	assert.Equal(t, 200, cfg.Annotation.StampMaxWidth)
	assert.Equal(t, 100, cfg.Annotation.StampMaxHeight)
	assert.Equal(t, 30, cfg.License.TrialDays)
	require.NoError(t, cfg.Validate())

	hl, err := cfg.HighlightColor()
	require.NoError(t, err)
	assert.Equal(t, pdf.HighlightYellow, hl)

	text, err := cfg.TextColor()
	require.NoError(t, err)
	assert.Equal(t, pdf.Black, text)

	policy, err := cfg.CommitPolicy()
	require.NoError(t, err)
	assert.Equal(t, tool.CommitEveryMove, policy)
}

func TestLoad(t *testing.T) {
	t.Setenv("PDFANNOTATOR_ZOOM", "1.5")
	t.Setenv("PDFANNOTATOR_LETTERBOX", "true")
	t.Setenv("PDFANNOTATOR_COMMIT_POLICY", "release")
	t.Setenv("PDFANNOTATOR_STAMP_MAX_WIDTH", "300")
	t.Setenv("PDFANNOTATOR_LICENSE_FILE", "/tmp/lic.yaml")
	t.Setenv("PDFANNOTATOR_TRIAL_DAYS", "invalid")

	cfg := Load()

	assert.Equal(t, 1.5, cfg.Zoom)
	assert.True(t, cfg.Letterbox)
	assert.Equal(t, 300, cfg.Annotation.StampMaxWidth)
	assert.Equal(t, 30, cfg.License.TrialDays, "invalid numbers fall back to the default")

	policy, err := cfg.CommitPolicy()
	require.NoError(t, err)
	assert.Equal(t, tool.CommitOnRelease, policy)

	path, err := cfg.LicenseFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lic.yaml", path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero zoom", "PDFANNOTATOR_ZOOM", "0"},
		{"negative font", "PDFANNOTATOR_FONT_SIZE", "-3"},
		{"bad colour", "PDFANNOTATOR_HIGHLIGHT_COLOR", "#GG0000"},
		{"bad policy", "PDFANNOTATOR_COMMIT_POLICY", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			assert.Error(t, Load().Validate())
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want pdf.Color
	}{
		{"#FF0000", pdf.Color{R: 255, A: 255}},
		{"00ff0080", pdf.Color{G: 255, A: 128}},
		{"#00F", pdf.Color{B: 255, A: 255}},
		{"#fff8", pdf.Color{R: 255, G: 255, B: 255, A: 136}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "#12345", "red", "#12345Z"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}
