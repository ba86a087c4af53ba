package edit

import "math"

const (
	// HandleTolerance is the radius around a corner that grabs its resize handle.
	HandleTolerance = 8.0
	// MinSize is the smallest width or height a resize may produce.
	MinSize = 10.0
)

// Corner identifies one of the four resize handles of an extent.
type Corner int

const (
	NW Corner = iota
	NE
	SW
	SE
)

var cornerNames = [...]string{"nw", "ne", "sw", "se"}

func (c Corner) String() string {
	if c < NW || c > SE {
		return "unknown"
	}
	return cornerNames[c]
}

// Corners lists the handles in hit-test order.
var Corners = [4]Corner{NW, NE, SW, SE}

// ContainsPoint reports whether p falls inside the bounding box of e. Edits
// without extent never contain a point.
func ContainsPoint(e Edit, p Point) bool {
	x, ok := e.(Extent)
	if !ok {
		return false
	}
	o := x.Origin()
	w, h := x.Size()
	return p.X >= o.X && p.X <= o.X+w && p.Y >= o.Y && p.Y <= o.Y+h
}

// CornerHandles returns the corner positions of e indexed by Corner. ok is
// false for edits without extent.
func CornerHandles(e Edit) (handles [4]Point, ok bool) {
	x, ok := e.(Extent)
	if !ok {
		return handles, false
	}
	o := x.Origin()
	w, h := x.Size()
	handles[NW] = Point{o.X, o.Y}
	handles[NE] = Point{o.X + w, o.Y}
	handles[SW] = Point{o.X, o.Y + h}
	handles[SE] = Point{o.X + w, o.Y + h}
	return handles, true
}

// HandleAt returns the first corner of e within tol of p.
func HandleAt(e Edit, p Point, tol float64) (Corner, bool) {
	handles, ok := CornerHandles(e)
	if !ok {
		return 0, false
	}
	for _, c := range Corners {
		h := handles[c]
		if math.Hypot(p.X-h.X, p.Y-h.Y) < tol {
			return c, true
		}
	}
	return 0, false
}

// Move places the origin of e at o. Text and drawings are not movable and
// are returned unchanged.
func Move(e Edit, o Point) Edit {
	switch v := e.(type) {
	case RectEdit:
		v.X, v.Y = o.X, o.Y
		return v
	case ImageEdit:
		v.X, v.Y = o.X, o.Y
		return v
	}
	return e
}

// Resize drags corner c of e to p. The opposite corner stays fixed. Images
// keep their aspect ratio, so only the horizontal component of p matters for
// them. If the new width or height would be below minSize, e is returned
// unchanged and ok is false.
func Resize(e Edit, c Corner, p Point, minSize float64) (Edit, bool) {
	switch v := e.(type) {
	case RectEdit:
		x, y, w, h, ok := resizeBox(v.X, v.Y, v.Width, v.Height, c, p, minSize, 0)
		if !ok {
			return e, false
		}
		v.X, v.Y, v.Width, v.Height = x, y, w, h
		return v, true
	case ImageEdit:
		x, y, w, h, ok := resizeBox(v.X, v.Y, v.Width, v.Height, c, p, minSize, v.AspectRatio)
		if !ok {
			return e, false
		}
		v.X, v.Y, v.Width, v.Height = x, y, w, h
		return v, true
	}
	return e, false
}

// resizeBox computes the new box for a corner drag. aspect > 0 locks the
// height to width/aspect.
func resizeBox(x, y, w, h float64, c Corner, p Point, minSize, aspect float64) (float64, float64, float64, float64, bool) {
	right, bottom := x+w, y+h

	var nw float64
	switch c {
	case NE, SE:
		nw = p.X - x
	default:
		nw = right - p.X
	}
	if nw < minSize {
		return x, y, w, h, false
	}

	var nh float64
	switch {
	case aspect > 0:
		nh = nw / aspect
	case c == SE || c == SW:
		nh = p.Y - y
	default:
		nh = bottom - p.Y
	}
	if nh < minSize {
		return x, y, w, h, false
	}

	if c == SW || c == NW {
		x = right - nw
	}
	if c == NW || c == NE {
		y = bottom - nh
	}
	return x, y, nw, nh, true
}
