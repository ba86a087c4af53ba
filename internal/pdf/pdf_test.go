package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writePDF builds an n page PDF with pages of 200x100 points.
func writePDF(t *testing.T, n int) string {
	t.Helper()
	w := NewWriter(1)
	for i := 0; i < n; i++ {
		if err := w.AddPage(solid(200, 100, color.RGBA{uint8(40 * i), 0x80, 0xff, 0xff})); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := w.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestWriterAssemblesPages(t *testing.T) {
	w := NewWriter(1.5)
	for i := 0; i < 3; i++ {
		if err := w.AddPage(solid(30, 45, color.White)); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("Expected a PDF header, got %q", buf.Bytes()[:min(8, buf.Len())])
	}
	n, err := pdfapi.PageCount(bytes.NewReader(buf.Bytes()), newConfig())
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pages, got %d", n)
	}

	if _, err := NewWriter(1).WriteTo(&buf); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
}

func TestWriterPageSizeFollowsScale(t *testing.T) {
	w := NewWriter(2)
	if err := w.AddPage(solid(60, 90, color.White)); err != nil {
		t.Fatal(err)
	}
	if err := w.AddPage(solid(40, 40, color.Black)); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scaled.pdf")
	if err := w.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dims, err := pdfapi.PageDimsFile(path)
	if err != nil {
		t.Fatalf("PageDimsFile: %v", err)
	}
	want := [][2]float64{{30, 45}, {20, 20}}
	if len(dims) != len(want) {
		t.Fatalf("Expected %d pages, got %d", len(want), len(dims))
	}
	for i, d := range dims {
		if math.Abs(d.Width-want[i][0]) > 0.5 || math.Abs(d.Height-want[i][1]) > 0.5 {
			t.Errorf("Page %d: expected %vx%v, got %vx%v", i+1, want[i][0], want[i][1], d.Width, d.Height)
		}
	}

	one := NewWriter(1.5)
	if err := one.AddPage(solid(30, 45, color.White)); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(t.TempDir(), "single.pdf")
	if err := one.Save(single); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if dims, err := pdfapi.PageDimsFile(single); err != nil || len(dims) != 1 || math.Abs(dims[0].Width-20) > 0.5 || math.Abs(dims[0].Height-30) > 0.5 {
		t.Errorf("Expected one 20x30 page, got %v (%v)", dims, err)
	}
}

func TestOpenRejectsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "notpdf.pdf")
	if err := os.WriteFile(bogus, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := (Poppler{}).Open(ctx, bogus); !errors.Is(err, ErrCorruptOrEncrypted) {
		t.Errorf("Poppler: expected ErrCorruptOrEncrypted, got %v", err)
	}
	if _, err := (ImageRasterizer{}).Open(ctx, bogus); !errors.Is(err, ErrCorruptOrEncrypted) {
		t.Errorf("ImageRasterizer: expected ErrCorruptOrEncrypted, got %v", err)
	}
}

func TestPopplerOpenCountsPages(t *testing.T) {
	path := writePDF(t, 2)
	doc, err := (Poppler{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer doc.Close()
	if doc.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", doc.PageCount())
	}
	w, h, err := doc.PageSize(2)
	if err != nil {
		t.Fatalf("PageSize: %v", err)
	}
	if w < 199 || w > 201 || h < 99 || h > 101 {
		t.Errorf("Expected a 200x100 page, got %vx%v", w, h)
	}
	if _, err := doc.Render(context.Background(), 3, 1); err == nil {
		t.Error("Expected error for page 3")
	}
}

func TestPopplerRender(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	path := writePDF(t, 2)
	doc, err := (Poppler{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img, err := doc.Render(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// 200x100 points at 144 dpi.
	if b := img.Bounds(); b.Dx() < 398 || b.Dx() > 402 || b.Dy() < 198 || b.Dy() > 202 {
		t.Errorf("Expected about 400x200, got %v", b)
	}
}

func TestImageRasterizer(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(40, 20, color.RGBA{0xff, 0, 0, 0xff})); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := (ImageRasterizer{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", doc.PageCount())
	}
	if w, h, err := doc.PageSize(1); err != nil || w != 40 || h != 20 {
		t.Errorf("Expected 40x20, got %vx%v (%v)", w, h, err)
	}
	img, err := doc.Render(context.Background(), 1, 1.5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Errorf("Expected 60x30, got %v", b)
	}
	if _, err := doc.Render(context.Background(), 2, 1); err == nil {
		t.Error("Expected error for page 2")
	}
	full, err := doc.Render(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, _, _ := full.At(10, 10).RGBA(); r>>8 != 0xff || g != 0 {
		t.Errorf("Expected red pixel, got %v", full.At(10, 10))
	}
}

func TestRemovePages(t *testing.T) {
	in := writePDF(t, 3)
	out := filepath.Join(t.TempDir(), "out.pdf")
	ctx := context.Background()

	if err := RemovePages(ctx, in, out, []int{1, 3, 3}); err != nil {
		t.Fatalf("RemovePages: %v", err)
	}
	n, err := pdfapi.PageCountFile(out)
	if err != nil {
		t.Fatalf("PageCountFile: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 page left, got %d", n)
	}

	if err := RemovePages(ctx, in, out, nil); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
	if err := RemovePages(ctx, in, out, []int{4}); err == nil {
		t.Error("Expected out of range error")
	}
	if err := RemovePages(ctx, in, out, []int{1, 2, 3}); err == nil {
		t.Error("Expected error when removing every page")
	}
}
