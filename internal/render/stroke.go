package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// strokePolyline paints pts (device coordinates) with the given width onto
// dst. Every segment becomes a quad and every vertex an octagon cap. All
// shapes wind the same way so overlaps add up instead of cancelling.
func strokePolyline(dst xdraw.Image, pts [][2]float64, width float64, c color.Color) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	w := width / 2
	if w < 0.5 {
		w = 0.5
	}

	moveTo := func(x, y float64) { ras.MoveTo(float32(x-ox), float32(y-oy)) }
	lineTo := func(x, y float64) { ras.LineTo(float32(x-ox), float32(y-oy)) }

	for i, p := range pts {
		sides := 8
		for k := 0; k <= sides; k++ {
			a := -float64(k) * 2 * math.Pi / float64(sides)
			x, y := p[0]+w*math.Cos(a), p[1]+w*math.Sin(a)
			if k == 0 {
				moveTo(x, y)
			} else {
				lineTo(x, y)
			}
		}
		ras.ClosePath()

		if i == 0 {
			continue
		}
		cur := pts[i-1]
		vx, vy := p[0]-cur[0], p[1]-cur[1]
		vl := math.Hypot(vx, vy)
		if vl == 0 {
			continue
		}
		nx, ny := -vy/vl, vx/vl
		moveTo(cur[0]+nx*w, cur[1]+ny*w)
		lineTo(p[0]+nx*w, p[1]+ny*w)
		lineTo(p[0]-nx*w, p[1]-ny*w)
		lineTo(cur[0]-nx*w, cur[1]-ny*w)
		ras.ClosePath()
	}

	ras.Draw(dst, b, image.NewUniform(c), image.Point{})
}
