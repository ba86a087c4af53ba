package pdf

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"go-editpdf/internal/export"

	xdraw "golang.org/x/image/draw"
)

// ImageRasterizer opens PNG and JPEG files as one page documents. At scale 1
// the page has the pixel size of the image.
type ImageRasterizer struct{}

func (ImageRasterizer) Open(ctx context.Context, path string) (export.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptOrEncrypted, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrCorruptOrEncrypted)
	}
	return &imageDoc{img: img}, nil
}

type imageDoc struct {
	img image.Image
}

func (d *imageDoc) PageCount() int { return 1 }
func (d *imageDoc) Close() error   { return nil }

func (d *imageDoc) PageSize(page int) (float64, float64, error) {
	if page != 1 {
		return 0, 0, fmt.Errorf("page %d out of range 1-1", page)
	}
	b := d.img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (d *imageDoc) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	if page != 1 {
		return nil, fmt.Errorf("page %d out of range 1-1", page)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: %v", export.ErrInvalidScale, scale)
	}
	b := d.img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Rect, image.White, image.Point{}, xdraw.Src)
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Rect, d.img, b.Min, xdraw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Rect, d.img, b, xdraw.Over, nil)
	}
	return dst, nil
}
