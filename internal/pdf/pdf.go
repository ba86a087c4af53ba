// Package pdf adapts pdfcpu and poppler to the export pipeline.
//
// Types:
//   - Poppler: opens PDFs after validating them with pdfcpu and renders
//     single pages with pdftoppm.
//   - ImageRasterizer: treats a PNG or JPEG upload as a one page document.
//   - Writer: collects flattened page rasters and assembles them into a PDF
//     with pdfcpu, one page per raster.
//
// Functions:
//   - RemovePages: writes a copy of a PDF without the selected pages.
//
// These are used by the session and handlers packages for the editor's
// open, preview, export and delete-pages actions.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrCorruptOrEncrypted is returned when a source file cannot be opened.
var ErrCorruptOrEncrypted = errors.New("file is corrupt or encrypted")

var ErrNoPages = errors.New("no pages selected")

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// validate checks that path is a readable PDF and returns its page count.
func validate(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := pdfapi.ValidateFile(path, newConfig()); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptOrEncrypted, err)
	}
	n, err := pdfapi.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptOrEncrypted, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: document has no pages", ErrCorruptOrEncrypted)
	}
	return n, nil
}

// RemovePages writes inPath to outPath without the given 1-based pages.
// Removing every page is refused.
func RemovePages(ctx context.Context, inPath, outPath string, pages []int) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	total, err := validate(ctx, inPath)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(pages))
	selected := make([]string, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > total {
			return fmt.Errorf("page %d out of range 1-%d", p, total)
		}
		if !seen[p] {
			seen[p] = true
			selected = append(selected, strconv.Itoa(p))
		}
	}
	if len(seen) == total {
		return fmt.Errorf("cannot remove all %d pages", total)
	}
	if err := pdfapi.RemovePagesFile(inPath, outPath, selected, newConfig()); err != nil {
		return fmt.Errorf("failed to remove pages: %w", err)
	}
	return nil
}
