package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/stamp"
)

const (
	// annotFlagPrint is the F entry bit that keeps annotations on printouts
	annotFlagPrint = 4

	// textDescent is the part of a text insertion box below the baseline,
	// as a fraction of the font size
	textDescent = 0.2

	// textAdvance approximates the mean Helvetica glyph width in em
	textAdvance = 0.55
)

// textRect returns the box of a text insertion whose baseline starts at anchor
func textRect(anchor Point, text string, fontSize float64) Rect {
	w := float64(utf8.RuneCountInString(text)) * fontSize * textAdvance
	return Rect{
		X0: anchor.X,
		Y0: anchor.Y - fontSize,
		X1: anchor.X + max(w, 1),
		Y1: anchor.Y + fontSize*textDescent,
	}
}

// pageGeometry maps document units (origin top-left) to PDF user space
// (origin bottom-left of the MediaBox) and back
type pageGeometry struct {
	llx, ury float64
}

func (g pageGeometry) toPDF(p Point) (float64, float64) {
	return g.llx + p.X, g.ury - p.Y
}

func (g pageGeometry) fromPDF(x, y float64) Point {
	return Point{X: x - g.llx, Y: g.ury - y}
}

// rectToPDF returns [llx lly urx ury] of r
func (g pageGeometry) rectToPDF(r Rect) [4]float64 {
	x0, yTop := g.toPDF(Point{X: r.X0, Y: r.Y0})
	x1, yBottom := g.toPDF(Point{X: r.X1, Y: r.Y1})
	return [4]float64{x0, yBottom, x1, yTop}
}

func (g pageGeometry) rectFromPDF(a []float64) Rect {
	p0 := g.fromPDF(a[0], a[1])
	p1 := g.fromPDF(a[2], a[3])
	return RectFromPoints(p0, p1)
}

// annotationWriter appends annotation dictionaries to the pages of a pdfcpu
// context
type annotationWriter struct {
	ctx     *model.Context
	modDate string
}

func newAnnotationWriter(ctx *model.Context) *annotationWriter {
	return &annotationWriter{ctx: ctx, modDate: formatPDFDate(time.Now())}
}

// add appends a to the page with the given 1-based number
func (w *annotationWriter) add(pageNumber int, geom pageGeometry, a Annotation) error {
	pageDict, _, _, err := w.ctx.PageDict(pageNumber, false)
	if err != nil {
		return fmt.Errorf("failed to get page dict %d: %w", pageNumber, err)
	}
	if pageDict == nil {
		return fmt.Errorf("page %d not found", pageNumber)
	}

	var dict types.Dict
	switch a.Kind {
	case KindHighlight, KindUnderline:
		dict, err = w.markupDict(geom, a)
	case KindTextInsertion:
		dict, err = w.freeTextDict(geom, a)
	case KindImageStamp:
		dict, err = w.stampDict(geom, a)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedKind, a.Kind)
	}
	if err != nil {
		return err
	}

	ref, err := w.ctx.IndRefForNewObject(dict)
	if err != nil {
		return fmt.Errorf("failed to add annotation object: %w", err)
	}

	annots, err := derefArray(w.ctx, pageDict["Annots"])
	if err != nil {
		return fmt.Errorf("failed to read Annots of page %d: %w", pageNumber, err)
	}
	pageDict["Annots"] = append(annots, *ref)
	return nil
}

func (w *annotationWriter) baseDict(subtype string, geom pageGeometry, a Annotation) types.Dict {
	r := geom.rectToPDF(a.Rect)
	return types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name(subtype),
		"Rect":    floatArray(r[:]...),
		"F":       types.Integer(annotFlagPrint),
		"NM":      encodeTextString(a.ID),
		"M":       types.StringLiteral(w.modDate),
	}
}

// formXObject registers an appearance stream drawing content into a
// w x h box
func (w *annotationWriter) formXObject(width, height float64, resources types.Dict, content string) (*types.IndirectRef, error) {
	sd, err := w.ctx.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create appearance stream: %w", err)
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["BBox"] = floatArray(0, 0, width, height)
	if resources != nil {
		sd.Dict["Resources"] = resources
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode appearance stream: %w", err)
	}
	return w.ctx.IndRefForNewObject(*sd)
}

func (w *annotationWriter) markupDict(geom pageGeometry, a Annotation) (types.Dict, error) {
	subtype := "Highlight"
	if a.Kind == KindUnderline {
		subtype = "Underline"
	}
	dict := w.baseDict(subtype, geom, a)

	r := geom.rectToPDF(a.Rect)
	llx, lly, urx, ury := r[0], r[1], r[2], r[3]
	// Upper left, upper right, lower left, lower right
	dict["QuadPoints"] = floatArray(llx, ury, urx, ury, llx, lly, urx, lly)

	red, green, blue := a.Color.RGB()
	dict["C"] = floatArray(red, green, blue)
	dict["CA"] = types.Float(a.Color.Opacity())

	width, height := a.Rect.Width(), a.Rect.Height()
	gs := types.Dict{
		"Type": types.Name("ExtGState"),
		"CA":   types.Float(a.Color.Opacity()),
		"ca":   types.Float(a.Color.Opacity()),
	}
	var content string
	if a.Kind == KindHighlight {
		gs["BM"] = types.Name("Multiply")
		content = fmt.Sprintf("/GS0 gs %s %s %s rg 0 0 %s %s re f",
			formatNumber(red), formatNumber(green), formatNumber(blue),
			formatNumber(width), formatNumber(height))
	} else {
		content = fmt.Sprintf("/GS0 gs %s %s %s RG 1 w 0 0.5 m %s 0.5 l S",
			formatNumber(red), formatNumber(green), formatNumber(blue),
			formatNumber(width))
	}
	resources := types.Dict{"ExtGState": types.Dict{"GS0": gs}}

	ap, err := w.formXObject(width, height, resources, content)
	if err != nil {
		return nil, err
	}
	dict["AP"] = types.Dict{"N": *ap}
	return dict, nil
}

func defaultAppearance(fontSize float64, c Color) string {
	r, g, b := c.RGB()
	return fmt.Sprintf("/Helv %s Tf %s %s %s rg",
		formatNumber(fontSize), formatNumber(r), formatNumber(g), formatNumber(b))
}

func (w *annotationWriter) freeTextDict(geom pageGeometry, a Annotation) (types.Dict, error) {
	dict := w.baseDict("FreeText", geom, a)
	dict["Contents"] = encodeTextString(a.Text)
	dict["DA"] = types.StringLiteral(defaultAppearance(a.FontSize, a.Color))
	dict["BS"] = types.Dict{"W": types.Integer(0)}

	resources := types.Dict{
		"Font": types.Dict{
			"Helv": types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name("Helvetica"),
				"Encoding": types.Name("WinAnsiEncoding"),
			},
		},
	}
	content := fmt.Sprintf("BT %s 0 %s Td %s Tj ET",
		defaultAppearance(a.FontSize, a.Color),
		formatNumber(a.FontSize*textDescent),
		contentString(a.Text))

	ap, err := w.formXObject(a.Rect.Width(), a.Rect.Height(), resources, content)
	if err != nil {
		return nil, err
	}
	dict["AP"] = types.Dict{"N": *ap}
	return dict, nil
}

func (w *annotationWriter) stampDict(geom pageGeometry, a Annotation) (types.Dict, error) {
	img, err := stamp.DecodeNRGBA(a.Image)
	if err != nil {
		return nil, err
	}
	imgRef, err := w.imageXObject(img)
	if err != nil {
		return nil, err
	}

	dict := w.baseDict("Stamp", geom, a)
	width, height := a.Rect.Width(), a.Rect.Height()
	content := fmt.Sprintf("q %s 0 0 %s 0 0 cm /Im0 Do Q", formatNumber(width), formatNumber(height))
	resources := types.Dict{"XObject": types.Dict{"Im0": *imgRef}}

	ap, err := w.formXObject(width, height, resources, content)
	if err != nil {
		return nil, err
	}
	dict["AP"] = types.Dict{"N": *ap}
	return dict, nil
}

// imageXObject embeds img as a Flate-compressed DeviceRGB image with a soft
// mask carrying its alpha channel
func (w *annotationWriter) imageXObject(img *image.NRGBA) (*types.IndirectRef, error) {
	b := img.Bounds()
	rgb := make([]byte, 0, b.Dx()*b.Dy()*3)
	alpha := make([]byte, 0, b.Dx()*b.Dy())
	opaque := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			rgb = append(rgb, row[i], row[i+1], row[i+2])
			alpha = append(alpha, row[i+3])
			opaque = opaque && row[i+3] == 0xFF
		}
	}

	sd, err := w.imageStream(rgb, b.Dx(), b.Dy(), "DeviceRGB")
	if err != nil {
		return nil, err
	}
	if !opaque {
		mask, err := w.imageStream(alpha, b.Dx(), b.Dy(), "DeviceGray")
		if err != nil {
			return nil, err
		}
		maskRef, err := w.ctx.IndRefForNewObject(*mask)
		if err != nil {
			return nil, fmt.Errorf("failed to add soft mask: %w", err)
		}
		sd.Dict["SMask"] = *maskRef
	}
	return w.ctx.IndRefForNewObject(*sd)
}

func (w *annotationWriter) imageStream(samples []byte, width, height int, colorSpace string) (*types.StreamDict, error) {
	sd, err := w.ctx.NewStreamDictForBuf(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to create image stream: %w", err)
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Image")
	sd.Dict["Width"] = types.Integer(width)
	sd.Dict["Height"] = types.Integer(height)
	sd.Dict["ColorSpace"] = types.Name(colorSpace)
	sd.Dict["BitsPerComponent"] = types.Integer(8)
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode image stream: %w", err)
	}
	return sd, nil
}

// readAnnotations returns the highlight, underline, free text and stamp
// annotations of a page. Other subtypes are left alone.
func readAnnotations(ctx *model.Context, pageDict types.Dict, geom pageGeometry) ([]Annotation, error) {
	annots, err := derefArray(ctx, pageDict["Annots"])
	if err != nil {
		return nil, err
	}

	var out []Annotation
	for _, o := range annots {
		dict, err := derefDict(ctx, o)
		if err != nil || dict == nil {
			continue
		}
		a, ok := decodeAnnotation(ctx, dict, geom)
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func decodeAnnotation(ctx *model.Context, dict types.Dict, geom pageGeometry) (Annotation, bool) {
	arr, err := derefArray(ctx, dict["Rect"])
	if err != nil {
		return Annotation{}, false
	}
	nums, ok := numberArray(arr)
	if !ok || len(nums) != 4 {
		return Annotation{}, false
	}

	a := Annotation{
		ID:   getStringFromDict(dict, "NM"),
		Rect: geom.rectFromPDF(nums),
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	switch nameFromDict(dict, "Subtype") {
	case "Highlight":
		a.Kind = KindHighlight
		a.Color = markupColor(dict)
	case "Underline":
		a.Kind = KindUnderline
		a.Color = markupColor(dict)
	case "FreeText":
		a.Kind = KindTextInsertion
		a.Text = getStringFromDict(dict, "Contents")
		a.FontSize, a.Color = parseDefaultAppearance(getStringFromDict(dict, "DA"))
		a.Anchor = Point{X: a.Rect.X0, Y: a.Rect.Y1 - a.FontSize*textDescent}
	case "Stamp":
		a.Kind = KindImageStamp
		a.Anchor = Point{X: a.Rect.X0, Y: a.Rect.Y0}
		if data, w, h, err := stampImage(ctx, dict); err == nil {
			a.Image, a.ImageWidth, a.ImageHeight = data, w, h
		}
	default:
		return Annotation{}, false
	}
	return a, true
}

func markupColor(dict types.Dict) Color {
	c := Color{R: 255, G: 255, A: 255}
	if arr, ok := dict["C"].(types.Array); ok {
		if nums, ok := numberArray(arr); ok && len(nums) == 3 {
			c.R, c.G, c.B = unitToByte(nums[0]), unitToByte(nums[1]), unitToByte(nums[2])
		}
	}
	if ca, ok := numberValue(dict["CA"]); ok {
		c.A = unitToByte(ca)
	}
	return c
}

func unitToByte(f float64) uint8 {
	f = min(max(f, 0), 1)
	return uint8(f*255 + 0.5)
}

// parseDefaultAppearance extracts font size and fill color from a DA string
// such as "/Helv 12 Tf 0 0 0 rg"
func parseDefaultAppearance(da string) (float64, Color) {
	size := float64(DefaultFontSize)
	c := Black
	// a malformed tail still leaves the operations before it usable
	ops, _ := scanOperations([]byte(da))
	for _, op := range ops {
		switch op.op {
		case "Tf":
			if len(op.operands) == 2 && op.operands[1].kind == operandNumber && op.operands[1].num > 0 {
				size = op.operands[1].num
			}
		case "rg":
			if v, ok := op.numbers(); ok && len(v) == 3 {
				c = Color{R: unitToByte(v[0]), G: unitToByte(v[1]), B: unitToByte(v[2]), A: 255}
			}
		case "g":
			if v, ok := op.numbers(); ok && len(v) == 1 {
				gray := unitToByte(v[0])
				c = Color{R: gray, G: gray, B: gray, A: 255}
			}
		}
	}
	return size, c
}

// appearanceImageName returns the XObject painted by the first Do operator
// of an appearance stream
func appearanceImageName(content []byte) (string, bool) {
	ops, _ := scanOperations(content)
	for _, op := range ops {
		if op.op == "Do" && len(op.operands) == 1 && op.operands[0].kind == operandName {
			return op.operands[0].str, true
		}
	}
	return "", false
}

// stampImage recovers the PNG of a stamp written by annotationWriter from
// its normal appearance stream
func stampImage(ctx *model.Context, dict types.Dict) ([]byte, int, int, error) {
	ap, err := derefDict(ctx, dict["AP"])
	if err != nil {
		return nil, 0, 0, err
	}
	form, err := derefStream(ctx, ap["N"])
	if err != nil {
		return nil, 0, 0, err
	}
	res, err := derefDict(ctx, form.Dict["Resources"])
	if err != nil {
		return nil, 0, 0, err
	}
	xobjects, err := derefDict(ctx, res["XObject"])
	if err != nil {
		return nil, 0, 0, err
	}
	name, ok := appearanceImageName(form.Content)
	if !ok {
		return nil, 0, 0, fmt.Errorf("stamp appearance paints no image")
	}
	imgStream, err := derefStream(ctx, xobjects[name])
	if err != nil {
		return nil, 0, 0, err
	}

	w, _ := numberValue(imgStream.Dict["Width"])
	h, _ := numberValue(imgStream.Dict["Height"])
	width, height := int(w), int(h)
	if nameFromDict(imgStream.Dict, "ColorSpace") != "DeviceRGB" || len(imgStream.Content) != width*height*3 {
		return nil, 0, 0, fmt.Errorf("unsupported stamp image encoding")
	}

	var alpha []byte
	if maskObj, ok := imgStream.Dict["SMask"]; ok {
		if mask, err := derefStream(ctx, maskObj); err == nil && len(mask.Content) == width*height {
			alpha = mask.Content
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4] = imgStream.Content[i*3]
		img.Pix[i*4+1] = imgStream.Content[i*3+1]
		img.Pix[i*4+2] = imgStream.Content[i*3+2]
		img.Pix[i*4+3] = 0xFF
		if alpha != nil {
			img.Pix[i*4+3] = alpha[i]
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), width, height, nil
}
