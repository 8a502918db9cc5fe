package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: split_pdf <input.pdf> <output_dir> [pages_per_file]")
		os.Exit(1)
	}

	span := 1
	if len(os.Args) > 3 {
		n, err := strconv.Atoi(os.Args[3])
		if err != nil || n < 1 {
			log.Fatalf("Invalid pages_per_file %q", os.Args[3])
		}
		span = n
	}

	files, err := pdf.Split(os.Args[1], os.Args[2], span)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range files {
		fmt.Println(f)
	}
	fmt.Printf("Wrote %d files\n", len(files))
}
