package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go-editpdf/internal/export"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PointsPerInch is the PDF user space unit. A page rendered at scale 1 has
// one pixel per point.
const PointsPerInch = 72

// Poppler rasterises PDF pages with pdftoppm.
type Poppler struct {
	// Bin is the pdftoppm executable. Empty means "pdftoppm" on PATH.
	Bin string
}

func (p Poppler) Open(ctx context.Context, path string) (export.Document, error) {
	n, err := validate(ctx, path)
	if err != nil {
		return nil, err
	}
	dims, err := pdfapi.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptOrEncrypted, err)
	}
	bin := p.Bin
	if bin == "" {
		bin = "pdftoppm"
	}
	return &popplerDoc{bin: bin, path: path, pages: n, dims: dims}, nil
}

type popplerDoc struct {
	bin   string
	path  string
	pages int
	dims  []types.Dim
}

func (d *popplerDoc) PageCount() int { return d.pages }
func (d *popplerDoc) Close() error   { return nil }

func (d *popplerDoc) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range 1-%d", page, d.pages)
	}
	return nil
}

func (d *popplerDoc) PageSize(page int) (float64, float64, error) {
	if err := d.checkPage(page); err != nil {
		return 0, 0, err
	}
	if page > len(d.dims) {
		return 0, 0, fmt.Errorf("no dimensions for page %d", page)
	}
	return d.dims[page-1].Width, d.dims[page-1].Height, nil
}

func (d *popplerDoc) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: %v", export.ErrInvalidScale, scale)
	}

	dir, err := os.MkdirTemp("", "editpdf-page-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, d.bin,
		"-f", n,
		"-l", n,
		"-png",
		"-r", strconv.FormatFloat(PointsPerInch*scale, 'f', -1, 64),
		"-singlefile",
		d.path,
		prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, bytes.TrimSpace(stderr.Bytes()))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return img, nil
}
