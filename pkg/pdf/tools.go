package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
)

// Merge concatenates the input files, in order, into outputPath
func Merge(inputPaths []string, outputPath string) error {
	if len(inputPaths) < 2 {
		return errors.New("merge needs at least two input files")
	}

	logger.Logger().Info("merging PDFs", "count", len(inputPaths), "output", filepath.Base(outputPath))

	if err := api.MergeCreateFile(inputPaths, outputPath, false, newConfiguration()); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return nil
}

// Split writes every span pages of inputPath into its own file in outputDir
// and returns the created files in page order
func Split(inputPath, outputDir string, span int) ([]string, error) {
	if span < 1 {
		span = 1
	}

	logger.Logger().Info("splitting PDF", "input", filepath.Base(inputPath), "outputDir", outputDir, "span", span)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	before, err := filepath.Glob(filepath.Join(outputDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}
	existing := make(map[string]bool, len(before))
	for _, f := range before {
		existing[f] = true
	}

	if err := api.SplitFile(inputPath, outputDir, span, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	after, err := filepath.Glob(filepath.Join(outputDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list split files: %w", err)
	}

	var files []string
	for _, f := range after {
		if !existing[f] {
			files = append(files, f)
		}
	}
	sortSplitFiles(files)
	return files, nil
}

// sortSplitFiles orders split output by first page. pdfcpu names files
// <base>_<from>[-<to>].pdf, which does not sort lexically past page 9.
func sortSplitFiles(files []string) {
	type entry struct {
		path string
		page int
	}
	entries := make([]entry, len(files))
	for i, f := range files {
		entries[i] = entry{path: f, page: splitPageNumber(f)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].page != entries[j].page {
			return entries[i].page < entries[j].page
		}
		return entries[i].path < entries[j].path
	})
	for i, e := range entries {
		files[i] = e.path
	}
}

// splitPageNumber parses the first page number from a pdfcpu split file name
func splitPageNumber(path string) int {
	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	end := len(name)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			n := 0
			for _, c := range name[i+1 : end] {
				if c < '0' || c > '9' {
					break
				}
				n = n*10 + int(c-'0')
			}
			return n
		}
		if name[i] == '-' {
			end = i
		}
	}
	return 0
}
