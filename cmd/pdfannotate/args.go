package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

// listFlag collects every occurrence of a repeatable flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, " ") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// placement is a document position with a text or path payload
type placement struct {
	At      pdf.Point
	Payload string
}

func parseNumbers(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseRect parses "x0,y0,x1,y1" in document units
func parseRect(s string) (pdf.Rect, error) {
	v, err := parseNumbers(s, 4)
	if err != nil {
		return pdf.Rect{}, err
	}
	return pdf.RectFromPoints(pdf.Point{X: v[0], Y: v[1]}, pdf.Point{X: v[2], Y: v[3]}), nil
}

// parsePlacement parses "x,y,payload". The payload may contain commas.
func parsePlacement(s string) (placement, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) != 3 || parts[2] == "" {
		return placement{}, fmt.Errorf("expected x,y,value, got %q", s)
	}
	v, err := parseNumbers(parts[0]+","+parts[1], 2)
	if err != nil {
		return placement{}, err
	}
	return placement{At: pdf.Point{X: v[0], Y: v[1]}, Payload: parts[2]}, nil
}
