package compress

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"
)

// JPEGEncoder encodes with the standard library JPEG codec.
type JPEGEncoder struct{}

// Encode maps quality in [0, 1] onto JPEG quality 1..100.
func (JPEGEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	q := int(math.Round(quality * 100))
	q = max(1, min(q, 100))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
