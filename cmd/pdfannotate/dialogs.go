package main

import (
	"fmt"
	"io"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/session"
)

// scriptDialogs answers session prompts from command line arguments instead
// of asking a user. Each queued answer is consumed once.
type scriptDialogs struct {
	openPath string
	savePath string
	texts    []string
	images   []string
	color    *pdf.Color
	out      io.Writer
	failed   bool
}

func (d *scriptDialogs) OpenPath() (string, bool) { return d.openPath, d.openPath != "" }
func (d *scriptDialogs) SavePath() (string, bool) { return d.savePath, d.savePath != "" }

func (d *scriptDialogs) ImagePath() (string, bool) {
	if len(d.images) == 0 {
		return "", false
	}
	p := d.images[0]
	d.images = d.images[1:]
	return p, true
}

func (d *scriptDialogs) Text(string) (string, bool) {
	if len(d.texts) == 0 {
		return "", false
	}
	t := d.texts[0]
	d.texts = d.texts[1:]
	return t, true
}

func (d *scriptDialogs) Color(current pdf.Color) (pdf.Color, bool) {
	if d.color == nil {
		return current, false
	}
	return *d.color, true
}

func (d *scriptDialogs) Notify(kind session.MessageKind, message string) {
	if kind == session.MessageError {
		d.failed = true
		fmt.Fprintf(d.out, "error: %s\n", message)
		return
	}
	fmt.Fprintln(d.out, message)
}
