// Package edit defines the annotation objects placed on document pages.
//
// Types:
//   - Edit: closed set of annotation variants (TextEdit, RectEdit, DrawEdit, ImageEdit).
//   - Pages: per-page edit lists with copy-on-write updates.
//
// Coordinates are in capture-time raster space: the resolution the page was
// rendered at while the user was editing it.
//
// Expected outputs:
// - Only RectEdit and ImageEdit have extent and can be hit-tested, moved or resized
// - ImageEdit resizes keep width/height equal to the aspect ratio
// - Pages never hands out a list that a later mutation can change
package edit

import "math"

// Stroke width of freehand drawings, in capture-time units.
const StrokeWidth = 2.0

// RectOpacity is the fill alpha applied to rectangles.
const RectOpacity = 0.5

// Point is a position in page-raster coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edit is one annotation placed on a page. The set of implementations is
// closed; switch on the concrete type to handle each variant.
type Edit interface {
	EditID() string
	Origin() Point
	isEdit()
}

// Extent is implemented by the edits that have a bounding box.
type Extent interface {
	Edit
	Size() (width, height float64)
}

type TextEdit struct {
	ID       string
	X, Y     float64
	Text     string
	Color    string
	FontSize float64
}

type RectEdit struct {
	ID            string
	X, Y          float64
	Width, Height float64
	Color         string
}

// DrawEdit is a freehand stroke. Points are never modified after the stroke
// is committed.
type DrawEdit struct {
	ID     string
	X, Y   float64
	Points []Point
	Color  string
}

// ImageEdit embeds an encoded PNG or JPEG image. AspectRatio is width/height
// at insertion time.
type ImageEdit struct {
	ID            string
	X, Y          float64
	Width, Height float64
	Data          []byte
	AspectRatio   float64
}

func (e TextEdit) EditID() string  { return e.ID }
func (e RectEdit) EditID() string  { return e.ID }
func (e DrawEdit) EditID() string  { return e.ID }
func (e ImageEdit) EditID() string { return e.ID }

func (e TextEdit) Origin() Point  { return Point{e.X, e.Y} }
func (e RectEdit) Origin() Point  { return Point{e.X, e.Y} }
func (e DrawEdit) Origin() Point  { return Point{e.X, e.Y} }
func (e ImageEdit) Origin() Point { return Point{e.X, e.Y} }

func (TextEdit) isEdit()  {}
func (RectEdit) isEdit()  {}
func (DrawEdit) isEdit()  {}
func (ImageEdit) isEdit() {}

func (e RectEdit) Size() (float64, float64)  { return e.Width, e.Height }
func (e ImageEdit) Size() (float64, float64) { return e.Width, e.Height }

// NewImage builds an ImageEdit of the given width centred on c, with the
// height derived from the aspect ratio.
func NewImage(id string, c Point, width, aspectRatio float64, data []byte) ImageEdit {
	height := width / aspectRatio
	return ImageEdit{
		ID:          id,
		X:           c.X - width/2,
		Y:           c.Y - height/2,
		Width:       width,
		Height:      height,
		Data:        data,
		AspectRatio: aspectRatio,
	}
}

// NormalizeRect turns a rectangle dragged towards the top or left into one
// with a positive size by flipping its origin.
func NormalizeRect(r RectEdit) RectEdit {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// HasArea reports whether a committed extent is drawable.
func HasArea(e Extent) bool {
	w, h := e.Size()
	return w > 0 && h > 0 && !math.IsNaN(w) && !math.IsNaN(h)
}
