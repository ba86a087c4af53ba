package compress

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"
)

// linear produces round(quality*100000) bytes.
var linear = EncoderFunc(func(_ image.Image, q float64) ([]byte, error) {
	return make([]byte, int(math.Round(q*100000))), nil
})

func TestSearchConvergesIntoWindow(t *testing.T) {
	res, err := Search(context.Background(), nil, 40000, 60000, linear)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome != OutcomeOK {
		t.Fatalf("Expected ok, got %v", res.Outcome)
	}
	if res.Size() < 40000 || res.Size() > 60000 {
		t.Errorf("Expected size in [40000, 60000], got %d", res.Size())
	}
	if !res.Offerable() {
		t.Error("Expected result to be offerable")
	}
	// The search narrows towards the upper bound.
	if res.Size() < 55000 {
		t.Errorf("Expected the search to prefer larger sizes, got %d", res.Size())
	}
}

func TestSearchBelowMinimum(t *testing.T) {
	res, err := Search(context.Background(), nil, 99999999, 100000000, linear)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome != OutcomeBelowMinimum {
		t.Fatalf("Expected below-minimum, got %v", res.Outcome)
	}
	if res.Size() != 100000 || res.Quality != MaxQuality {
		t.Errorf("Expected the quality 1.0 encoding, got %d bytes at %v", res.Size(), res.Quality)
	}
	if !res.Offerable() {
		t.Error("Expected below-minimum result to still be offerable")
	}
	if !strings.HasPrefix(res.Message(), "Warning:") {
		t.Errorf("Expected a warning, got %q", res.Message())
	}
}

func TestSearchAboveMaximum(t *testing.T) {
	res, err := Search(context.Background(), nil, 0, 5000, linear)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome != OutcomeAboveMaximum {
		t.Fatalf("Expected above-maximum, got %v", res.Outcome)
	}
	if res.Offerable() {
		t.Error("Expected above-maximum result not to be offerable")
	}
	if res.Size() != 10000 {
		t.Errorf("Expected the quality 0.1 encoding, got %d bytes", res.Size())
	}
}

func TestSearchInfeasible(t *testing.T) {
	// Jumps straight from 1000 to 100000 bytes at quality 0.5.
	step := EncoderFunc(func(_ image.Image, q float64) ([]byte, error) {
		if q < 0.5 {
			return make([]byte, 1000), nil
		}
		return make([]byte, 100000), nil
	})
	res, err := Search(context.Background(), nil, 2000, 50000, step)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome != OutcomeInfeasible {
		t.Fatalf("Expected infeasible, got %v", res.Outcome)
	}
	if res.Offerable() || res.Data != nil {
		t.Error("Expected no data for an infeasible search")
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	a, err := Search(context.Background(), nil, 12345, 67890, linear)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	b, err := Search(context.Background(), nil, 12345, 67890, linear)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if a.Quality != b.Quality || a.Size() != b.Size() {
		t.Errorf("Expected identical results, got %v/%d and %v/%d", a.Quality, a.Size(), b.Quality, b.Size())
	}
}

func TestSearchErrors(t *testing.T) {
	if _, err := Search(context.Background(), nil, 10, 5, linear); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Expected ErrInvalidWindow, got %v", err)
	}
	if _, err := Search(context.Background(), nil, -1, 5, linear); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Expected ErrInvalidWindow, got %v", err)
	}

	boom := errors.New("boom")
	failing := EncoderFunc(func(image.Image, float64) ([]byte, error) { return nil, boom })
	if _, err := Search(context.Background(), nil, 0, 10, failing); !errors.Is(err, boom) {
		t.Errorf("Expected encoder error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Search(ctx, nil, 40000, 60000, linear); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSearchWithJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x ^ y) * 4), 0xff})
		}
	}
	lo, _ := JPEGEncoder{}.Encode(img, MinQuality)
	hi, _ := JPEGEncoder{}.Encode(img, MaxQuality)
	if len(lo) >= len(hi) {
		t.Fatalf("Expected quality to grow the encoding, got %d >= %d", len(lo), len(hi))
	}

	res, err := Search(context.Background(), img, len(lo), len(hi), JPEGEncoder{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome != OutcomeOK {
		t.Fatalf("Expected ok, got %v", res.Outcome)
	}
	if _, err := jpeg.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Errorf("Expected a decodable JPEG: %v", err)
	}
}
