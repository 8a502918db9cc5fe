package session

import "github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"

// MessageKind classifies a user-facing message
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageError
)

// Dialogs is what the host UI provides for modal interactions. Every prompt
// returns ok=false when the user cancels.
type Dialogs interface {
	// OpenPath asks for a PDF to open
	OpenPath() (string, bool)

	// SavePath asks for the destination of a save
	SavePath() (string, bool)

	// ImagePath asks for a PNG, JPEG or BMP signature image
	ImagePath() (string, bool)

	// Text asks for a line of text
	Text(prompt string) (string, bool)

	// Color asks for a colour, starting from current
	Color(current pdf.Color) (pdf.Color, bool)

	// Notify shows a message
	Notify(kind MessageKind, message string)
}
