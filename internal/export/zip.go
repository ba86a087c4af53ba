package export

import (
	"archive/zip"
	"context"
	"fmt"
	"image/png"
	"io"
)

// PagesToZip renders every page of doc at scale and stores it as
// page-N.png in a zip archive written to w.
func PagesToZip(ctx context.Context, doc Document, scale float64, w io.Writer) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	zw := zip.NewWriter(w)
	for n := 1; n <= doc.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.Render(ctx, n, scale)
		if err != nil {
			return fmt.Errorf("render page %d: %w", n, err)
		}
		f, err := zw.Create(fmt.Sprintf("page-%d.png", n))
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("encode page %d: %w", n, err)
		}
	}
	return zw.Close()
}
