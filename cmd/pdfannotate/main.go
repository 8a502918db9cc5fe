// Command pdfannotate runs a scripted annotation session on a PDF: it opens
// the file, applies highlights, underlines, text and stamps through the same
// pointer and dialog paths an interactive front end uses, and optionally
// renders the page and saves the result. The rendered PNG shows the
// annotations on blank paper; the page content itself is not rasterized.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/pyhub-apps/pdfannotator-golang/internal/config"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/license"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/session"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/tool"
)

type script struct {
	page       int
	color      string
	highlights listFlag
	underlines listFlag
	texts      listFlag
	stamps     listFlag
	addText    string
	signature  string
	printText  bool
	renderPath string
	outPath    string
}

func main() {
	var sc script
	activate := flag.String("activate", "", "activate a license key and exit")
	flag.IntVar(&sc.page, "page", 1, "page to annotate (1-based)")
	flag.StringVar(&sc.color, "color", "", "highlight colour as #RRGGBB or #RRGGBBAA")
	flag.Var(&sc.highlights, "highlight", "highlight x0,y0,x1,y1 (repeatable)")
	flag.Var(&sc.underlines, "underline", "underline x0,y0,x1,y1 (repeatable)")
	flag.Var(&sc.texts, "text", "insert text x,y,text (repeatable)")
	flag.Var(&sc.stamps, "stamp", "stamp image x,y,path (repeatable)")
	flag.StringVar(&sc.addText, "add-text", "", "insert text at the page centre")
	flag.StringVar(&sc.signature, "signature", "", "stamp an image at the page centre")
	flag.BoolVar(&sc.printText, "print-text", false, "print the text runs of the page")
	flag.StringVar(&sc.renderPath, "render", "", "write the annotations of the page as PNG on blank paper (page content is not drawn)")
	flag.StringVar(&sc.outPath, "o", "", "save the annotated PDF to this path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <pdf_file>\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Coordinates are PDF points from the top-left corner of the page.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.LogLevel),
	})))

	if err := checkLicense(cfg, *activate); err != nil {
		log.Fatal(err)
	}
	if *activate != "" {
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, flag.Arg(0), &sc); err != nil {
		log.Fatal(err)
	}
}

func checkLicense(cfg *config.AppConfig, key string) error {
	path, err := cfg.LicenseFile()
	if err != nil {
		return err
	}
	m, err := license.Load(path, license.WithTrialDays(cfg.License.TrialDays))
	if err != nil {
		return err
	}
	if key != "" {
		if err := m.Activate(key); err != nil {
			return fmt.Errorf("failed to activate license: %w", err)
		}
	}

	fmt.Fprintln(os.Stderr, m.Status())
	if !m.IsValid() {
		return errors.New("license expired: activate a key with -activate")
	}
	return nil
}

func newSession(cfg *config.AppConfig, d session.Dialogs) (*session.Session, error) {
	highlight, err := cfg.HighlightColor()
	if err != nil {
		return nil, err
	}
	textColor, err := cfg.TextColor()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.CommitPolicy()
	if err != nil {
		return nil, err
	}

	return session.New(d,
		session.WithZoom(cfg.Zoom),
		session.WithCommitPolicy(policy),
		session.WithHighlightColor(highlight),
		session.WithTextStyle(cfg.Annotation.FontSize, textColor),
		session.WithLetterbox(cfg.Letterbox),
		session.WithOpenOptions(pdf.WithStampBounds(cfg.Annotation.StampMaxWidth, cfg.Annotation.StampMaxHeight)),
	)
}

func run(cfg *config.AppConfig, path string, sc *script) error {
	d := &scriptDialogs{openPath: path, out: os.Stdout}
	s, err := newSession(cfg, d)
	if err != nil {
		return err
	}
	defer s.Close()

	s.OpenWithDialog()
	if d.failed {
		return errors.New("aborted")
	}
	if n := s.Handle().PageCount(); sc.page < 1 || sc.page > n {
		return fmt.Errorf("page %d is out of range (document has %d pages)", sc.page, n)
	}
	s.GoTo(sc.page - 1)

	if sc.color != "" {
		c, err := config.ParseColor(sc.color)
		if err != nil {
			return err
		}
		d.color = &c
		s.ChooseColor()
	}

	for _, arg := range sc.highlights {
		if err := drag(s, tool.Highlight, arg); err != nil {
			return err
		}
	}
	for _, arg := range sc.underlines {
		if err := drag(s, tool.Underline, arg); err != nil {
			return err
		}
	}
	for _, arg := range sc.texts {
		p, err := parsePlacement(arg)
		if err != nil {
			return err
		}
		d.texts = append(d.texts, p.Payload)
		if err := click(s, tool.Text, p.At); err != nil {
			return err
		}
	}
	for _, arg := range sc.stamps {
		p, err := parsePlacement(arg)
		if err != nil {
			return err
		}
		d.images = append(d.images, p.Payload)
		if err := click(s, tool.Image, p.At); err != nil {
			return err
		}
	}
	if sc.addText != "" {
		d.texts = append(d.texts, sc.addText)
		s.AddText()
	}
	if sc.signature != "" {
		d.images = append(d.images, sc.signature)
		s.AddSignature()
	}

	if sc.printText {
		if err := printText(s); err != nil {
			return err
		}
	}

	if sc.renderPath != "" {
		r, err := s.Raster()
		if err != nil {
			return err
		}
		if err := r.SavePNG(sc.renderPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", sc.renderPath, err)
		}
		fmt.Printf("Rendered annotations of %s to %s (%dx%d)\n", s.PageLabel(), sc.renderPath, r.Width, r.Height)
	}

	if sc.outPath != "" {
		d.savePath = sc.outPath
		s.SaveWithDialog()
	}

	stats := s.CacheStats()
	logger.Logger().Debug("session finished", "page", s.PageLabel(), "cache_hits", stats.Hits, "cache_misses", stats.Misses)
	if d.failed {
		return errors.New("one or more operations failed")
	}
	return nil
}

// drag performs a press, move and release from one corner of rect to the
// other in screen space
func drag(s *session.Session, t tool.Tool, arg string) error {
	rect, err := parseRect(arg)
	if err != nil {
		return err
	}
	if _, err := s.Raster(); err != nil {
		return err
	}
	m := s.Mapper()
	from := m.ToScreen(pdf.Point{X: rect.X0, Y: rect.Y0})
	to := m.ToScreen(pdf.Point{X: rect.X1, Y: rect.Y1})

	s.SetTool(t)
	s.PointerDown(from)
	s.PointerMove(to)
	s.PointerUp(to)
	return nil
}

func click(s *session.Session, t tool.Tool, at pdf.Point) error {
	if _, err := s.Raster(); err != nil {
		return err
	}
	s.SetTool(t)
	s.PointerDown(s.Mapper().ToScreen(at))
	return nil
}

func printText(s *session.Session) error {
	h := s.Handle()
	runs, err := h.PageText(h.CurrentPage())
	if err != nil {
		return err
	}
	fmt.Printf("=== %s ===\n", s.PageLabel())
	for _, r := range runs {
		fmt.Printf("(%.2f, %.2f) size=%.1f %s\n", r.X, r.Y, r.FontSize, r.Text)
	}
	return nil
}
