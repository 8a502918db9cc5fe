// Package tool implements the pointer state machine of the annotation tools.
//
// The machine works in document units only and never touches a document.
// It returns what should be committed; the caller applies it.
package tool

import (
	"fmt"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

// Tool is the active annotation tool
type Tool int

const (
	Highlight Tool = iota
	Underline
	Text
	Image
)

func (t Tool) String() string {
	switch t {
	case Highlight:
		return "highlight"
	case Underline:
		return "underline"
	case Text:
		return "text"
	case Image:
		return "image"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool returns the tool named s
func ParseTool(s string) (Tool, error) {
	for _, t := range []Tool{Highlight, Underline, Text, Image} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// Kind returns the annotation kind the tool produces
func (t Tool) Kind() pdf.AnnotationKind {
	switch t {
	case Underline:
		return pdf.KindUnderline
	case Text:
		return pdf.KindTextInsertion
	case Image:
		return pdf.KindImageStamp
	}
	return pdf.KindHighlight
}

// IsStroke reports whether the tool is placed by dragging
func (t Tool) IsStroke() bool {
	return t == Highlight || t == Underline
}

// State of the machine
type State int

const (
	Idle State = iota
	Stroking
)

func (s State) String() string {
	if s == Stroking {
		return "stroking"
	}
	return "idle"
}

// CommitPolicy decides when a stroke becomes an annotation
type CommitPolicy int

const (
	// CommitEveryMove commits one annotation per move event, each spanning
	// the stroke start to the current point. A drag of N moves leaves N
	// overlapping annotations.
	CommitEveryMove CommitPolicy = iota

	// CommitOnRelease commits a single annotation from the stroke start to
	// the release point
	CommitOnRelease
)

func (p CommitPolicy) String() string {
	if p == CommitOnRelease {
		return "release"
	}
	return "move"
}

// ParseCommitPolicy accepts "move" and "release"
func ParseCommitPolicy(s string) (CommitPolicy, error) {
	switch s {
	case "move", "":
		return CommitEveryMove, nil
	case "release":
		return CommitOnRelease, nil
	}
	return 0, fmt.Errorf("unknown commit policy %q", s)
}

// Stroke is a highlight or underline to commit
type Stroke struct {
	Kind  pdf.AnnotationKind
	Rect  pdf.Rect
	Color pdf.Color
}

// Placement is a one-shot text or image insertion point
type Placement struct {
	Tool   Tool
	Anchor pdf.Point
	Color  pdf.Color
}

// Machine tracks the active tool, colour and stroke in progress.
// The zero value is not usable; call New.
type Machine struct {
	tool   Tool
	color  pdf.Color
	policy CommitPolicy
	state  State
	start  pdf.Point
}

// New returns an idle machine with the highlight tool and semi-transparent
// yellow
func New(policy CommitPolicy) *Machine {
	return &Machine{
		tool:   Highlight,
		color:  pdf.HighlightYellow,
		policy: policy,
	}
}

func (m *Machine) Tool() Tool { return m.tool }

func (m *Machine) Color() pdf.Color { return m.color }

func (m *Machine) Policy() CommitPolicy { return m.policy }

func (m *Machine) State() State { return m.state }

// SetColor changes the colour of future annotations
func (m *Machine) SetColor(c pdf.Color) { m.color = c }

// SetPolicy changes the commit policy, effective from the next event
func (m *Machine) SetPolicy(p CommitPolicy) { m.policy = p }

// SetTool switches the tool. A stroke in progress keeps its start point and
// continues with the new tool; annotations already committed are unchanged.
func (m *Machine) SetTool(t Tool) {
	m.tool = t
	if !t.IsStroke() {
		m.reset()
	}
}

// Start returns the recorded start point of the stroke in progress
func (m *Machine) Start() (pdf.Point, bool) {
	return m.start, m.state == Stroking
}

// Down handles a pointer press at p (document units). Stroke tools start a
// stroke and return nil; text and image tools return a placement and stay
// idle.
func (m *Machine) Down(p pdf.Point) *Placement {
	if !m.tool.IsStroke() {
		m.reset()
		return &Placement{Tool: m.tool, Anchor: p, Color: m.color}
	}
	m.state = Stroking
	m.start = p
	return nil
}

// Move handles pointer motion to p. Under CommitEveryMove a stroke in
// progress yields a stroke from its start to p.
func (m *Machine) Move(p pdf.Point) (Stroke, bool) {
	if m.state != Stroking {
		return Stroke{}, false
	}
	if m.policy != CommitEveryMove {
		return Stroke{}, false
	}
	return m.stroke(p), true
}

// Up ends the stroke. Under CommitOnRelease it yields the single stroke
// from the start to p.
func (m *Machine) Up(p pdf.Point) (Stroke, bool) {
	if m.state != Stroking {
		return Stroke{}, false
	}
	defer m.reset()
	if m.policy != CommitOnRelease {
		return Stroke{}, false
	}
	return m.stroke(p), true
}

// Leave abandons the stroke in progress without committing anything
func (m *Machine) Leave() {
	m.reset()
}

func (m *Machine) stroke(p pdf.Point) Stroke {
	return Stroke{
		Kind:  m.tool.Kind(),
		Rect:  pdf.RectFromPoints(m.start, p),
		Color: m.color,
	}
}

func (m *Machine) reset() {
	m.state = Idle
	m.start = pdf.Point{}
}
