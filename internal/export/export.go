// Package export flattens annotated pages into a new document.
//
// Pages are rasterised one at a time in page order. Each raster gets the
// edits recorded for its page composited on top and is handed to a Writer
// before the next page is rendered, so at most one page raster is alive.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"path/filepath"

	"go-editpdf/internal/edit"

	xdraw "golang.org/x/image/draw"
)

var ErrInvalidScale = errors.New("invalid scale")

// Document is an opened source file whose pages can be rasterised.
// Page numbers start at 1. PageSize is the size of a page at scale 1.
type Document interface {
	PageCount() int
	PageSize(page int) (width, height float64, err error)
	Render(ctx context.Context, page int, scale float64) (image.Image, error)
	Close() error
}

// Rasterizer opens source files. Corrupt or encrypted files fail here.
type Rasterizer interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Writer collects flattened pages.
type Writer interface {
	AddPage(img image.Image) error
}

// Compositor draws edits onto a page raster.
type Compositor interface {
	DrawEdits(dst xdraw.Image, edits []edit.Edit, scale float64) error
}

// Exporter renders pages at ExportScale. Edits were recorded on rasters
// rendered at CaptureScale and are scaled by ExportScale/CaptureScale.
type Exporter struct {
	Compositor   Compositor
	CaptureScale float64
	ExportScale  float64
}

// Flatten writes every page of doc to w in order, with the edits of pages
// composited on top. Pages without edits are written as rendered.
func (x *Exporter) Flatten(ctx context.Context, doc Document, pages edit.Pages, w Writer) error {
	if x.CaptureScale <= 0 || x.ExportScale <= 0 {
		return fmt.Errorf("%w: capture %v, export %v", ErrInvalidScale, x.CaptureScale, x.ExportScale)
	}
	ratio := x.ExportScale / x.CaptureScale

	for n := 1; n <= doc.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.Render(ctx, n, x.ExportScale)
		if err != nil {
			return fmt.Errorf("render page %d: %w", n, err)
		}
		if pages.Has(n) {
			dst := toDrawable(img)
			if err := x.Compositor.DrawEdits(dst, pages.Get(n), ratio); err != nil {
				return fmt.Errorf("composite page %d: %w", n, err)
			}
			img = dst
		}
		if err := w.AddPage(img); err != nil {
			return fmt.Errorf("write page %d: %w", n, err)
		}
	}
	return nil
}

// toDrawable returns img as a mutable RGBA surface with its origin at 0,0.
func toDrawable(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// OutputName is the download name of an edited file.
func OutputName(original string) string {
	return "edited-" + filepath.Base(original)
}
