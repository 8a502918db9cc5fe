package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Helper functions for pdfcpu objects

// derefDict resolves o to a dictionary, following indirect references
func derefDict(ctx *model.Context, o types.Object) (types.Dict, error) {
	switch v := o.(type) {
	case types.Dict:
		return v, nil
	case *types.IndirectRef:
		return ctx.DereferenceDict(*v)
	case types.IndirectRef:
		return ctx.DereferenceDict(v)
	}
	return nil, fmt.Errorf("expected dictionary, got %T", o)
}

// derefArray resolves o to an array, following indirect references
func derefArray(ctx *model.Context, o types.Object) (types.Array, error) {
	switch v := o.(type) {
	case nil:
		return nil, nil
	case types.Array:
		return v, nil
	case *types.IndirectRef:
		return ctx.DereferenceArray(*v)
	case types.IndirectRef:
		return ctx.DereferenceArray(v)
	}
	return nil, fmt.Errorf("expected array, got %T", o)
}

// derefStream resolves o to a stream dictionary with decoded content
func derefStream(ctx *model.Context, o types.Object) (*types.StreamDict, error) {
	var ref types.IndirectRef
	switch v := o.(type) {
	case *types.IndirectRef:
		ref = *v
	case types.IndirectRef:
		ref = v
	default:
		return nil, fmt.Errorf("expected stream reference, got %T", o)
	}
	sd, _, err := ctx.DereferenceStreamDict(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference stream: %w", err)
	}
	if sd == nil {
		return nil, fmt.Errorf("stream %s not found", ref)
	}
	if len(sd.Content) == 0 {
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("failed to decode stream: %w", err)
		}
	}
	return sd, nil
}

// numberValue converts a numeric PDF object to float64
func numberValue(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Float:
		return float64(v), true
	case types.Integer:
		return float64(v), true
	}
	return 0, false
}

// numberArray converts an array of numbers, failing on any non-number
func numberArray(a types.Array) ([]float64, bool) {
	out := make([]float64, 0, len(a))
	for _, o := range a {
		f, ok := numberValue(o)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func floatArray(vals ...float64) types.Array {
	a := make(types.Array, len(vals))
	for i, v := range vals {
		a[i] = types.Float(v)
	}
	return a
}

func nameFromDict(dict types.Dict, key string) string {
	if n, ok := dict[key].(types.Name); ok {
		return string(n)
	}
	return ""
}

// getStringFromDict decodes a PDF text string entry
func getStringFromDict(dict types.Dict, key string) string {
	if dict == nil {
		return ""
	}

	switch v := dict[key].(type) {
	case types.StringLiteral:
		return decodeTextString([]byte(unescapeLiteral(string(v))))
	case types.HexLiteral:
		b, err := hex.DecodeString(string(v))
		if err != nil {
			return ""
		}
		return decodeTextString(b)
	default:
		return ""
	}
}

var utf16BOM = []byte{0xFE, 0xFF}

// encodeTextString encodes s as a UTF-16BE PDF text string with byte order
// mark, stored as a hex literal so no escaping is needed
func encodeTextString(s string) types.HexLiteral {
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		b = append([]byte{}, utf16BOM...)
	}
	return types.HexLiteral(strings.ToUpper(hex.EncodeToString(b)))
}

// decodeTextString decodes UTF-16BE (with BOM) or PDFDocEncoding bytes.
// PDFDocEncoding is read as Windows-1252, which agrees on printable text.
func decodeTextString(b []byte) string {
	if bytes.HasPrefix(b, utf16BOM) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(b)
		if err == nil {
			return string(out)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// winAnsiEncoder maps text to the encoding of the standard Helvetica font
// used in appearance streams; runes outside WinAnsi become '?'
func winAnsiEncoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
}

// contentString encodes s as a literal string operand for a content stream
func contentString(s string) string {
	b, err := winAnsiEncoder().Bytes([]byte(s))
	if err != nil {
		b = []byte(s)
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\r':
			sb.WriteString(`\r`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// unescapeLiteral resolves backslash escapes of a PDF literal string
func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	sc := &opScanner{data: []byte(s)}
	return string(sc.readLiteral(false))
}

// formatNumber writes a number for a content stream
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parsePDFDate(dateStr string) time.Time {
	// PDF date format: D:YYYYMMDDHHmmSSOHH'mm
	dateStr = strings.TrimPrefix(dateStr, "D:")
	if len(dateStr) < 14 {
		return time.Time{}
	}

	t, err := time.Parse("20060102150405", dateStr[:14])
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatPDFDate is the inverse of parsePDFDate, in UTC
func formatPDFDate(t time.Time) string {
	return "D:" + t.UTC().Format("20060102150405") + "Z"
}
