package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pyhub-apps/pdfannotator-golang"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: extract_text <pdf_file>")
		os.Exit(1)
	}

	pdfPath := os.Args[1]

	// Open the PDF file
	fmt.Printf("Opening PDF: %s\n", pdfPath)
	doc, err := pdfannotator.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	meta := doc.GetMetadata()
	if meta.Title != "" {
		fmt.Printf("Title: %s\n", meta.Title)
	}
	fmt.Printf("Document has %d pages\n\n", doc.PageCount())

	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			log.Printf("Failed to get page %d: %v", i+1, err)
			continue
		}

		fmt.Printf("=== Page %d ===\n", i+1)
		fmt.Printf("Size: %.2f x %.2f\n", page.Width, page.Height)
		fmt.Printf("Annotations: %d\n", len(page.Annotations))

		runs, err := doc.PageText(i)
		if err != nil {
			log.Printf("Failed to extract text from page %d: %v", i+1, err)
			continue
		}
		if len(runs) == 0 {
			fmt.Println("No text found on this page")
			fmt.Println()
			continue
		}

		fmt.Println("\nExtracted Text:")
		for _, run := range runs {
			fmt.Println(run.Text)
		}

		// Show first few runs with positions
		fmt.Println("\nFirst few runs:")
		maxRuns := min(len(runs), 5)
		for _, run := range runs[:maxRuns] {
			fmt.Printf("  '%s' at (%.2f, %.2f) size=%.2f\n",
				run.Text, run.X, run.Y, run.FontSize)
		}

		fmt.Println()
	}
}
