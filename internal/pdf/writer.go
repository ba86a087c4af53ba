package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var ErrEmptyDocument = errors.New("document has no pages")

// Writer assembles page rasters into a PDF. Each raster becomes one page
// sized so that Scale pixels cover one point, which restores the page size
// of the source when Scale is the render scale.
type Writer struct {
	Scale float64
	pages []raster
}

type raster struct {
	png  []byte
	w, h int
}

func NewWriter(scale float64) *Writer {
	return &Writer{Scale: scale}
}

// AddPage encodes img and queues it as the next page.
func (w *Writer) AddPage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	b := img.Bounds()
	w.pages = append(w.pages, raster{png: buf.Bytes(), w: b.Dx(), h: b.Dy()})
	return nil
}

func (w *Writer) scale() float64 {
	if w.Scale <= 0 {
		return 1
	}
	return w.Scale
}

// writePage writes r as a single page PDF of r's size divided by scale.
func writePage(out io.Writer, r raster, scale float64) error {
	imp, err := pdfapi.Import("pos:c", types.POINTS)
	if err != nil {
		return fmt.Errorf("import settings: %w", err)
	}
	imp.PageDim = &types.Dim{Width: float64(r.w) / scale, Height: float64(r.h) / scale}
	imp.UserDim = true
	imp.Scale = 1 / scale
	imp.ScaleAbs = true
	return pdfapi.ImportImages(nil, out, []io.Reader{bytes.NewReader(r.png)}, imp, newConfig())
}

// Save writes the assembled PDF to path. Pages are written one by one and
// then merged, since every page carries its own size.
func (w *Writer) Save(path string) error {
	if len(w.pages) == 0 {
		return ErrEmptyDocument
	}
	if len(w.pages) == 1 {
		return writeFile(path, func(f io.Writer) error { return writePage(f, w.pages[0], w.scale()) })
	}

	dir, err := os.MkdirTemp("", "editpdf-pages-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	files := make([]string, len(w.pages))
	for i, r := range w.pages {
		files[i] = filepath.Join(dir, fmt.Sprintf("page-%d.pdf", i+1))
		if err := writeFile(files[i], func(f io.Writer) error { return writePage(f, r, w.scale()) }); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	if err := mergePDFs(files, path); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// WriteTo writes the assembled PDF to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	f, err := os.CreateTemp("", "editpdf-*.pdf")
	if err != nil {
		return 0, err
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := w.Save(path); err != nil {
		return 0, err
	}
	data, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer data.Close()
	return io.Copy(out, data)
}

func mergePDFs(files []string, outputPath string) error {
	if err := pdfapi.MergeCreateFile(files, outputPath, false, newConfig()); err != nil {
		return fmt.Errorf("failed to merge pages: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to assemble pdf: %w", err)
	}
	return f.Close()
}
