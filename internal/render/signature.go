package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	signatureSize    = 48
	signaturePadding = 8
)

var (
	ErrUnknownFont    = errors.New("unknown signature font")
	ErrEmptySignature = errors.New("signature text is empty")
)

// SignatureFonts maps the names accepted by TypedSignature to their faces.
// The empty name selects italic.
var SignatureFonts = map[string][]byte{
	"italic":      goitalic.TTF,
	"bold-italic": gobolditalic.TTF,
	"regular":     goregular.TTF,
	"mono":        gomono.TTF,
}

// TypedSignature sets text in the named font on a transparent background
// and returns it as PNG, cropped to the line plus a small margin.
func TypedSignature(text, fontName string, c color.Color) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySignature
	}
	if fontName == "" {
		fontName = "italic"
	}
	ttf, ok := SignatureFonts[fontName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFont, fontName)
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", fontName, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: signatureSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %s: %w", fontName, err)
	}
	defer face.Close()

	m := face.Metrics()
	width := font.MeasureString(face, text).Ceil() + 2*signaturePadding
	height := (m.Ascent + m.Descent).Ceil() + 2*signaturePadding
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(signaturePadding, signaturePadding+m.Ascent.Ceil()),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
