// Package render converts PDF attachments into page images suitable for
// vision model input.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DPI is the fixed rasterization resolution. Rendering must be
// deterministic across runs so extraction scores stay comparable.
const DPI = 150

// DocumentError reports an unreadable, corrupt, or empty PDF.
type DocumentError struct {
	Path  string
	Cause error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// PageImage is one rendered PDF page, base64-encoded PNG, ready to embed in
// a data URL.
type PageImage struct {
	PageNum int    // 1-indexed page number
	Base64  string // base64-encoded PNG bytes
}

// DataURL returns the image as a data URL for vision message parts.
func (p PageImage) DataURL() string {
	return "data:image/png;base64," + p.Base64
}

// PDF renders every page of the PDF at path to a PNG at the fixed DPI,
// in page order. On any failure it returns a DocumentError and no pages:
// callers never see a truncated page list.
func PDF(ctx context.Context, path string) ([]PageImage, error) {
	pageCount, err := countPages(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Cause: err}
	}
	if pageCount == 0 {
		return nil, &DocumentError{Path: path, Cause: fmt.Errorf("PDF has no pages")}
	}

	pages := make([]PageImage, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &DocumentError{Path: path, Cause: err}
		}
		img, err := renderPage(ctx, path, page)
		if err != nil {
			return nil, &DocumentError{Path: path, Cause: fmt.Errorf("page %d: %w", page, err)}
		}
		pages = append(pages, PageImage{PageNum: page, Base64: img})
	}

	return pages, nil
}

// countPages opens the PDF just long enough to read the page count, which
// doubles as an integrity check on the cross-reference table.
func countPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// renderPage rasterizes a single page using pdftoppm (poppler-utils) and
// returns it base64-encoded.
func renderPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "orderlens-page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	pageStr := fmt.Sprintf("%d", page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", DPI),
		"-singlefile",
		path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return "", fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
