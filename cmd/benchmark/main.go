package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/render"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: benchmark <pdf-file> [zoom]")
		os.Exit(1)
	}

	pdfPath := os.Args[1]
	zoom := 2.0
	if len(os.Args) > 2 {
		if _, err := fmt.Sscanf(os.Args[2], "%g", &zoom); err != nil || zoom <= 0 {
			log.Fatalf("Invalid zoom %q", os.Args[2])
		}
	}

	// Warm-up run
	doc, err := pdf.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	doc.Close()

	// Benchmark PDF opening
	start := time.Now()
	doc, err = pdf.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()
	openTime := time.Since(start)

	fmt.Printf("=== PDF Annotator Benchmark ===\n")
	fmt.Printf("File: %s\n", pdfPath)
	fmt.Printf("Pages: %d\n", doc.PageCount())
	fmt.Printf("Open time: %v\n", openTime)

	// Benchmark text extraction
	var totalRuns int
	start = time.Now()
	for i := 0; i < doc.PageCount(); i++ {
		runs, err := doc.PageText(i)
		if err != nil {
			continue
		}
		totalRuns += len(runs)
	}
	textTime := time.Since(start)

	fmt.Printf("Text extraction time: %v\n", textTime)
	fmt.Printf("Total text runs: %d\n", totalRuns)

	// Annotate every page so rendering and saving have work to do
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			continue
		}
		rect := pdf.Rect{X0: 36, Y0: 36, X1: page.Width - 36, Y1: 72}
		if err := doc.AddStrokeAnnotation(i, pdf.KindHighlight, rect, pdf.HighlightYellow); err != nil {
			log.Fatalf("Failed to annotate page %d: %v", i+1, err)
		}
		if err := doc.InsertText(i, pdf.Point{X: 36, Y: 100}, "Benchmark", pdf.DefaultFontSize, pdf.Black); err != nil {
			log.Fatalf("Failed to annotate page %d: %v", i+1, err)
		}
	}

	renderer, err := render.NewGGRenderer()
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	cache := render.NewCache(renderer)

	// Benchmark rendering, first uncached then served from the cache
	start = time.Now()
	for i := 0; i < doc.PageCount(); i++ {
		if _, err := cache.GetOrRender(doc, i, zoom); err != nil {
			log.Fatalf("Failed to render page %d: %v", i+1, err)
		}
	}
	renderTime := time.Since(start)

	start = time.Now()
	for i := 0; i < 100; i++ {
		if _, err := cache.GetOrRender(doc, doc.PageCount()-1, zoom); err != nil {
			log.Fatalf("Failed to render page: %v", err)
		}
	}
	cachedTime := time.Since(start)

	stats := cache.Stats()
	fmt.Printf("Render time (zoom %g): %v\n", zoom, renderTime)
	fmt.Printf("Pages/sec: %.1f\n", float64(doc.PageCount())/renderTime.Seconds())
	fmt.Printf("Cached lookups (100): %v\n", cachedTime)
	fmt.Printf("Cache hits/misses: %d/%d\n", stats.Hits, stats.Misses)

	// Benchmark save
	dir, err := os.MkdirTemp("", "pdfannotator-bench")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	start = time.Now()
	if err := doc.Save(filepath.Join(dir, "annotated.pdf")); err != nil {
		log.Fatalf("Failed to save PDF: %v", err)
	}
	fmt.Printf("Save time: %v\n", time.Since(start))
}
