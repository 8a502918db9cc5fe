package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/gg"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/license"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/stamp"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/tool"
)

const envPrefix = "PDFANNOTATOR_"

// AnnotationConfig holds the defaults of new annotations.
type AnnotationConfig struct {
	HighlightColor string
	TextColor      string
	FontSize       float64
	StampMaxWidth  int
	StampMaxHeight int
	CommitPolicy   string
}

// LicenseConfig holds trial and license file settings.
type LicenseConfig struct {
	File      string
	TrialDays int
}

// AppConfig is the centralized configuration struct for the tools.
// It is populated from environment variables.
type AppConfig struct {
	Zoom       float64
	Letterbox  bool
	LogLevel   string
	Annotation AnnotationConfig
	License    LicenseConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		Zoom:      getEnvFloat("ZOOM", 2.0),
		Letterbox: getEnvBool("LETTERBOX", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Annotation: AnnotationConfig{
			HighlightColor: getEnv("HIGHLIGHT_COLOR", "#FFFF0080"),
			TextColor:      getEnv("TEXT_COLOR", "#000000"),
			FontSize:       getEnvFloat("FONT_SIZE", pdf.DefaultFontSize),
			StampMaxWidth:  getEnvInt("STAMP_MAX_WIDTH", stamp.MaxWidth),
			StampMaxHeight: getEnvInt("STAMP_MAX_HEIGHT", stamp.MaxHeight),
			CommitPolicy:   getEnv("COMMIT_POLICY", "move"),
		},
		License: LicenseConfig{
			File:      getEnv("LICENSE_FILE", ""),
			TrialDays: getEnvInt("TRIAL_DAYS", license.DefaultTrialDays),
		},
	}
}

// Validate checks values that cannot be checked field by field at load
func (c *AppConfig) Validate() error {
	if c.Zoom <= 0 {
		return fmt.Errorf("%sZOOM must be positive, got %g", envPrefix, c.Zoom)
	}
	if c.Annotation.FontSize <= 0 {
		return fmt.Errorf("%sFONT_SIZE must be positive, got %g", envPrefix, c.Annotation.FontSize)
	}
	if c.Annotation.StampMaxWidth <= 0 || c.Annotation.StampMaxHeight <= 0 {
		return fmt.Errorf("%sSTAMP_MAX_WIDTH and %sSTAMP_MAX_HEIGHT must be positive", envPrefix, envPrefix)
	}
	if _, err := c.HighlightColor(); err != nil {
		return err
	}
	if _, err := c.TextColor(); err != nil {
		return err
	}
	if _, err := c.CommitPolicy(); err != nil {
		return err
	}
	return nil
}

// HighlightColor parses the highlight colour
func (c *AppConfig) HighlightColor() (pdf.Color, error) {
	return ParseColor(c.Annotation.HighlightColor)
}

// TextColor parses the text colour
func (c *AppConfig) TextColor() (pdf.Color, error) {
	return ParseColor(c.Annotation.TextColor)
}

// CommitPolicy parses the stroke commit policy
func (c *AppConfig) CommitPolicy() (tool.CommitPolicy, error) {
	return tool.ParseCommitPolicy(c.Annotation.CommitPolicy)
}

// LicenseFile returns the configured license state path or the default one
func (c *AppConfig) LicenseFile() (string, error) {
	if c.License.File != "" {
		return c.License.File, nil
	}
	return license.DefaultPath()
}

// ParseColor accepts #RGB, #RGBA, #RRGGBB and #RRGGBBAA
func ParseColor(s string) (pdf.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return pdf.Color{}, fmt.Errorf("invalid colour %q", s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return pdf.Color{}, fmt.Errorf("invalid colour %q", s)
	}

	// gg.Hex silently maps malformed input to black, hence the checks above
	c := gg.Hex(hex)
	return pdf.Color{R: unit(c.R), G: unit(c.G), B: unit(c.B), A: unit(c.A)}, nil
}

func unit(f float64) uint8 {
	return uint8(math.Round(f * 255))
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
