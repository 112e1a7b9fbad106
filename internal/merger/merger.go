package merger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Merge combines the given PDF documents, in order, into one document.
func Merge(pdfs [][]byte) ([]byte, error) {
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDFs to merge")
	}

	tempDir, err := os.MkdirTemp("", "pdf-merge-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inFiles := make([]string, 0, len(pdfs))
	for i, b := range pdfs {
		path := filepath.Join(tempDir, fmt.Sprintf("%05d.pdf", i+1))
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return nil, fmt.Errorf("failed to stage PDF %d: %w", i+1, err)
		}
		inFiles = append(inFiles, path)
	}

	outFile := filepath.Join(tempDir, "merged.pdf")
	if err := api.MergeCreateFile(inFiles, outFile, false, relaxedConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}
	merged, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged PDF: %w", err)
	}
	return merged, nil
}

// ValidatePDF runs a relaxed structural validation over in-memory PDF
// bytes, catching empty or truncated exports before they are stored.
func ValidatePDF(pdf []byte) error {
	if len(pdf) == 0 {
		return fmt.Errorf("empty PDF")
	}
	if err := api.Validate(bytes.NewReader(pdf), relaxedConfig()); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}
	return nil
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}
