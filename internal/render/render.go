// Package render composites page edits onto raster surfaces.
//
// The Renderer owns a side table of decoded images keyed by edit id. It is
// filled the first time an ImageEdit is drawn and entries are dropped with
// Forget when the edit is deleted. Nothing else is cached, so drawing the same
// edits onto equal surfaces always produces equal pixels.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sync"

	"go-editpdf/internal/edit"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type Renderer struct {
	mu     sync.Mutex
	font   *opentype.Font
	faces  map[float64]font.Face
	images map[string]image.Image
}

func New() (*Renderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{
		font:   f,
		faces:  make(map[float64]font.Face),
		images: make(map[string]image.Image),
	}, nil
}

// Forget drops the cached image of an edit.
func (r *Renderer) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, id)
}

// DrawEdits paints edits onto dst in order, so later edits cover earlier
// ones. Edit coordinates are multiplied by scale.
func (r *Renderer) DrawEdits(dst xdraw.Image, edits []edit.Edit, scale float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range edits {
		if err := r.draw(dst, e, scale); err != nil {
			return fmt.Errorf("edit %s: %w", e.EditID(), err)
		}
	}
	return nil
}

func (r *Renderer) draw(dst xdraw.Image, e edit.Edit, scale float64) error {
	switch v := e.(type) {
	case edit.TextEdit:
		c, err := edit.ParseColor(v.Color)
		if err != nil {
			return err
		}
		face, err := r.face(v.FontSize * scale)
		if err != nil {
			return err
		}
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(v.X * scale * 64)), Y: fixed.Int26_6(math.Round(v.Y * scale * 64))},
		}
		d.DrawString(v.Text)

	case edit.RectEdit:
		c, err := edit.ParseColor(v.Color)
		if err != nil {
			return err
		}
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(edit.RectOpacity * 0xff))})
		xdraw.DrawMask(dst, box(v.X, v.Y, v.Width, v.Height, scale), image.NewUniform(c), image.Point{}, mask, image.Point{}, xdraw.Over)

	case edit.DrawEdit:
		c, err := edit.ParseColor(v.Color)
		if err != nil {
			return err
		}
		pts := make([][2]float64, len(v.Points))
		for i, p := range v.Points {
			pts[i] = [2]float64{p.X * scale, p.Y * scale}
		}
		strokePolyline(dst, pts, edit.StrokeWidth*scale, c)

	case edit.ImageEdit:
		src, err := r.image(v)
		if err != nil {
			return err
		}
		xdraw.BiLinear.Scale(dst, box(v.X, v.Y, v.Width, v.Height, scale), src, src.Bounds(), xdraw.Over, nil)

	default:
		return fmt.Errorf("unknown edit type %T", e)
	}
	return nil
}

func (r *Renderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %.1f: %w", size, err)
	}
	r.faces[size] = f
	return f, nil
}

func (r *Renderer) image(e edit.ImageEdit) (image.Image, error) {
	if img, ok := r.images[e.ID]; ok {
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(e.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	r.images[e.ID] = img
	return img, nil
}

func box(x, y, w, h, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x*scale)),
		int(math.Round(y*scale)),
		int(math.Round((x+w)*scale)),
		int(math.Round((y+h)*scale)),
	)
}
