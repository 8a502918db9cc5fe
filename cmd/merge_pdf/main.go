package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: merge_pdf <output.pdf> <input1.pdf> <input2.pdf> [input...]")
		os.Exit(1)
	}

	out := os.Args[1]
	inputs := os.Args[2:]

	if err := pdf.Merge(inputs, out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Merged %d files into %s\n", len(inputs), out)
}
