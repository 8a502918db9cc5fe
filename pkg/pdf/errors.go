package pdf

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument is returned when an operation needs an open document.
	// Interactive callers treat it as a silent no-op.
	ErrNoDocument = errors.New("no document open")

	// ErrPageOutOfRange is returned for page indexes outside [0, PageCount)
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrUnsupportedKind is returned when a stroke annotation is requested
	// for a kind that is not placed by dragging
	ErrUnsupportedKind = errors.New("unsupported annotation kind")
)

// OpenReason classifies why a document could not be opened
type OpenReason string

const (
	ReasonNotFound   OpenReason = "file not found"
	ReasonEncrypted  OpenReason = "document is encrypted"
	ReasonCorrupt    OpenReason = "document is corrupt"
	ReasonUnreadable OpenReason = "file cannot be read"
)

// OpenError is returned by Open when a file cannot be loaded
type OpenError struct {
	Path   string
	Reason OpenReason
	Err    error
}

func (e *OpenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not open %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("could not open %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// SaveReason classifies why a document could not be written
type SaveReason string

const (
	ReasonPermission SaveReason = "permission denied"
	ReasonIO         SaveReason = "i/o failure"
	ReasonEncode     SaveReason = "document could not be encoded"
)

// SaveError is returned by Save. The in-memory document is unchanged when
// it is returned.
type SaveError struct {
	Path   string
	Reason SaveReason
	Err    error
}

func (e *SaveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not save %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("could not save %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
