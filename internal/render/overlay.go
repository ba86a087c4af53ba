package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"go-editpdf/internal/edit"

	xdraw "golang.org/x/image/draw"
)

const (
	selectionWidth = 2
	dashOn         = 6
	dashOff        = 3
	handleSize     = 8
)

var selectionColor = color.RGBA{R: 0x0a, G: 0x60, B: 0xff, A: 0xff}

// Frame is everything the interactive overlay shows for one page.
type Frame struct {
	Edits    []edit.Edit
	Pending  edit.Edit
	Selected edit.Edit
}

// Overlay draws f onto a transparent w×h surface at capture scale.
func (r *Renderer) Overlay(w, h int, f Frame) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := r.DrawEdits(dst, f.Edits, 1); err != nil {
		return nil, err
	}
	if f.Pending != nil {
		if err := r.DrawEdits(dst, []edit.Edit{f.Pending}, 1); err != nil {
			return nil, err
		}
	}
	if f.Selected != nil {
		DrawSelection(dst, f.Selected)
	}
	return dst, nil
}

// DrawSelection outlines an extent with a dashed box and its four resize
// handles. Edits without extent are ignored.
func DrawSelection(dst xdraw.Image, e edit.Edit) {
	handles, ok := edit.CornerHandles(e)
	if !ok {
		return
	}
	nw, se := handles[edit.NW], handles[edit.SE]
	x0, y0 := int(nw.X+0.5), int(nw.Y+0.5)
	x1, y1 := int(se.X+0.5), int(se.Y+0.5)

	src := image.NewUniform(selectionColor)
	half := selectionWidth / 2
	for x := x0; x < x1; x += dashOn + dashOff {
		end := min(x+dashOn, x1)
		xdraw.Draw(dst, image.Rect(x, y0-half, end, y0+half), src, image.Point{}, xdraw.Over)
		xdraw.Draw(dst, image.Rect(x, y1-half, end, y1+half), src, image.Point{}, xdraw.Over)
	}
	for y := y0; y < y1; y += dashOn + dashOff {
		end := min(y+dashOn, y1)
		xdraw.Draw(dst, image.Rect(x0-half, y, x0+half, end), src, image.Point{}, xdraw.Over)
		xdraw.Draw(dst, image.Rect(x1-half, y, x1+half, end), src, image.Point{}, xdraw.Over)
	}

	for _, c := range edit.Corners {
		p := handles[c]
		hx, hy := int(p.X+0.5)-handleSize/2, int(p.Y+0.5)-handleSize/2
		outer := image.Rect(hx, hy, hx+handleSize, hy+handleSize)
		xdraw.Draw(dst, outer, src, image.Point{}, xdraw.Src)
		xdraw.Draw(dst, outer.Inset(1), image.White, image.Point{}, xdraw.Src)
	}
}

// Checkmark returns a PNG of the checkmark stamp stroked in c.
func Checkmark(c color.Color) ([]byte, error) {
	const size = 48
	const unit = size / 24.0
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	pts := [][2]float64{{20 * unit, 6 * unit}, {9 * unit, 17 * unit}, {4 * unit, 12 * unit}}
	strokePolyline(img, pts, 3*unit, c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
