// Package canvas implements the annotation state machine that turns pointer
// events on the displayed page into edits.
//
// A Controller owns the per-page edit map of one loaded document. All
// mutations happen under its mutex, so concurrent callers observe a single
// writer. Readers take a Snapshot, whose Pages value is immutable and can be
// handed to the exporter while editing continues.
package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"go-editpdf/internal/edit"

	"github.com/google/uuid"
)

const (
	SignatureWidth  = 150.0
	ImageWidth      = 200.0
	CheckmarkSize   = 20.0
	DefaultColor    = "#000000"
	DefaultFontSize = 16.0
)

var (
	ErrPageRange    = errors.New("page out of range")
	ErrNotPlaceable = errors.New("mode does not place objects")
	ErrEmptyImage   = errors.New("placement image is empty")
	ErrInvalidStyle = errors.New("invalid style")
	ErrNoStamp      = errors.New("no checkmark stamp configured")
)

// Prompter asks the user for the content of a text annotation. ok is false
// when the user dismissed the prompt.
type Prompter interface {
	PromptText(ctx context.Context) (text string, ok bool, err error)
}

// StaticText is a Prompter that always answers with the same text. An empty
// string behaves like a dismissed prompt.
type StaticText string

func (s StaticText) PromptText(context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

type prompterKey struct{}

// WithPrompter returns a context whose text-mode clicks are answered by p.
// Without one a text-mode click adds nothing.
func WithPrompter(ctx context.Context, p Prompter) context.Context {
	return context.WithValue(ctx, prompterKey{}, p)
}

// Config holds the collaborators and defaults of a Controller.
type Config struct {
	Color    string
	FontSize float64
	// Stamp renders the checkmark glyph in the current color.
	Stamp func(c color.Color) ([]byte, error)
	// IDs generates edit identifiers.
	IDs func() string
	// OnDelete runs for every edit removed from the map.
	OnDelete func(id string)
	// OnChange runs after each visible change, outside the controller lock.
	OnChange func(Snapshot)
}

type placement struct {
	data   []byte
	aspect float64
	width  float64
}

type Controller struct {
	mu  sync.Mutex
	cfg Config

	mode      Mode
	state     State
	page      int
	pageCount int
	pages     edit.Pages
	selected  string

	pending edit.Edit
	offset  edit.Point
	corner  edit.Corner
	placing *placement

	revision uint64
}

// New returns a controller for a document with pageCount pages, showing page
// 1 in select mode.
func New(pageCount int, cfg Config) *Controller {
	if cfg.Color == "" {
		cfg.Color = DefaultColor
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = DefaultFontSize
	}
	if cfg.IDs == nil {
		cfg.IDs = uuid.NewString
	}
	if pageCount < 1 {
		pageCount = 1
	}
	return &Controller{cfg: cfg, page: 1, pageCount: pageCount}
}

// update runs fn under the lock. When fn reports a change the revision is
// bumped and OnChange is called once the lock is released.
func (c *Controller) update(fn func() (bool, error)) error {
	c.mu.Lock()
	changed, err := fn()
	var snap Snapshot
	if changed {
		c.revision++
		snap = c.snapshot()
	}
	hook := c.cfg.OnChange
	c.mu.Unlock()

	if changed && hook != nil {
		hook(snap)
	}
	return err
}

// PointerDown handles a press at p on the current page. In text mode the
// prompter from ctx is asked without holding the lock; the answer is dropped
// if the tool, page or state changed in the meantime.
func (c *Controller) PointerDown(ctx context.Context, p edit.Point) error {
	prompt := false
	var page int
	err := c.update(func() (bool, error) {
		if c.state == Placing {
			return c.commitPlacement(p), nil
		}
		if c.state != Idle {
			return false, nil
		}

		if sel, ok := c.selectedEdit(); ok {
			if corner, ok := edit.HandleAt(sel, p, edit.HandleTolerance); ok {
				c.state = Resizing
				c.corner = corner
				return false, nil
			}
		}

		switch c.mode {
		case Select:
			return c.pick(p), nil
		case Draw:
			c.pending = edit.DrawEdit{ID: c.cfg.IDs(), X: p.X, Y: p.Y, Points: []edit.Point{p}, Color: c.cfg.Color}
			c.state = Drawing
			return true, nil
		case Rect:
			c.pending = edit.RectEdit{ID: c.cfg.IDs(), X: p.X, Y: p.Y, Color: c.cfg.Color}
			c.state = Drawing
			return true, nil
		case Text:
			prompt, page = true, c.page
			return false, nil
		case Checkmark:
			return c.stamp(p)
		}
		return false, nil
	})
	if err != nil || !prompt {
		return err
	}
	return c.promptText(ctx, page, p)
}

// pick selects the topmost extent under p and starts moving it, or clears
// the selection when there is none.
func (c *Controller) pick(p edit.Point) bool {
	edits := c.pages.Get(c.page)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if !edit.ContainsPoint(e, p) {
			continue
		}
		o := e.Origin()
		c.selected = e.EditID()
		c.offset = edit.Point{X: p.X - o.X, Y: p.Y - o.Y}
		c.state = Moving
		return true
	}
	if c.selected == "" {
		return false
	}
	c.selected = ""
	return true
}

func (c *Controller) promptText(ctx context.Context, page int, p edit.Point) error {
	pr, _ := ctx.Value(prompterKey{}).(Prompter)
	if pr == nil {
		return nil
	}
	text, ok, err := pr.PromptText(ctx)
	if err != nil {
		return fmt.Errorf("prompt text: %w", err)
	}
	if !ok || text == "" {
		return nil
	}
	return c.update(func() (bool, error) {
		if c.mode != Text || c.state != Idle || c.page != page {
			return false, nil
		}
		c.pages = c.pages.Append(c.page, edit.TextEdit{
			ID:       c.cfg.IDs(),
			X:        p.X,
			Y:        p.Y,
			Text:     text,
			Color:    c.cfg.Color,
			FontSize: c.cfg.FontSize,
		})
		return true, nil
	})
}

func (c *Controller) stamp(p edit.Point) (bool, error) {
	if c.cfg.Stamp == nil {
		return false, ErrNoStamp
	}
	col, err := edit.ParseColor(c.cfg.Color)
	if err != nil {
		return false, err
	}
	data, err := c.cfg.Stamp(col)
	if err != nil {
		return false, fmt.Errorf("checkmark: %w", err)
	}
	c.pages = c.pages.Append(c.page, edit.NewImage(c.cfg.IDs(), p, CheckmarkSize, 1, data))
	return true, nil
}

func (c *Controller) commitPlacement(p edit.Point) bool {
	pl := c.placing
	e := edit.NewImage(c.cfg.IDs(), p, pl.width, pl.aspect, pl.data)
	c.pages = c.pages.Append(c.page, e)
	c.selected = e.ID
	c.placing = nil
	c.state = Idle
	c.mode = Select
	return true
}

// PointerMove continues the current drag, if any.
func (c *Controller) PointerMove(p edit.Point) {
	c.update(func() (bool, error) {
		switch c.state {
		case Drawing:
			switch e := c.pending.(type) {
			case edit.DrawEdit:
				pts := make([]edit.Point, len(e.Points), len(e.Points)+1)
				copy(pts, e.Points)
				e.Points = append(pts, p)
				c.pending = e
			case edit.RectEdit:
				e.Width = p.X - e.X
				e.Height = p.Y - e.Y
				c.pending = e
			}
			return true, nil

		case Moving:
			sel, ok := c.selectedEdit()
			if !ok {
				return false, nil
			}
			moved := edit.Move(sel, edit.Point{X: p.X - c.offset.X, Y: p.Y - c.offset.Y})
			c.pages = c.pages.Replace(c.page, moved)
			return true, nil

		case Resizing:
			sel, ok := c.selectedEdit()
			if !ok {
				return false, nil
			}
			resized, ok := edit.Resize(sel, c.corner, p, edit.MinSize)
			if !ok {
				return false, nil
			}
			c.pages = c.pages.Replace(c.page, resized)
			return true, nil
		}
		return false, nil
	})
}

// PointerUp ends the current drag. A finished stroke or rectangle is
// committed; a rectangle without area is dropped.
func (c *Controller) PointerUp(edit.Point) {
	c.update(func() (bool, error) {
		switch c.state {
		case Drawing:
			e := c.pending
			c.pending = nil
			c.state = Idle
			if r, ok := e.(edit.RectEdit); ok {
				r = edit.NormalizeRect(r)
				if !edit.HasArea(r) {
					return true, nil
				}
				e = r
			}
			if e != nil {
				c.pages = c.pages.Append(c.page, e)
			}
			return true, nil
		case Moving, Resizing:
			c.state = Idle
		}
		return false, nil
	})
}

// Cancel abandons any drag or pending placement without committing it.
func (c *Controller) Cancel() {
	c.update(func() (bool, error) {
		changed := c.pending != nil || c.placing != nil
		c.reset()
		return changed, nil
	})
}

func (c *Controller) reset() {
	c.state = Idle
	c.pending = nil
	c.placing = nil
}

// SetMode switches tools. The selection, any drag and any pending placement
// are dropped.
func (c *Controller) SetMode(m Mode) error {
	if m < Select || m > Image {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return c.update(func() (bool, error) {
		changed := c.mode != m || c.pending != nil || c.placing != nil || c.selected != ""
		c.reset()
		c.selected = ""
		c.mode = m
		return changed, nil
	})
}

// SetStyle sets the color and font size used by new edits.
func (c *Controller) SetStyle(col string, fontSize float64) error {
	if _, err := edit.ParseColor(col); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStyle, err)
	}
	if fontSize <= 0 {
		return fmt.Errorf("%w: font size %v", ErrInvalidStyle, fontSize)
	}
	return c.update(func() (bool, error) {
		c.cfg.Color = col
		c.cfg.FontSize = fontSize
		return true, nil
	})
}

// BeginPlacing fetches an image from source and waits for the click that
// places it. kind is Signature or Image. source runs without the lock held;
// if it fails, or its bytes are not a decodable image, the controller goes
// back to idle and the error is returned.
func (c *Controller) BeginPlacing(ctx context.Context, kind Mode, source func(context.Context) ([]byte, error)) error {
	width, ok := kind.placementWidth()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPlaceable, kind)
	}

	pl, err := loadPlacement(ctx, source)
	if err != nil {
		c.update(func() (bool, error) {
			changed := c.placing != nil || c.selected != ""
			c.reset()
			c.selected = ""
			return changed, nil
		})
		return err
	}
	pl.width = width

	return c.update(func() (bool, error) {
		c.reset()
		c.selected = ""
		c.mode = kind
		c.state = Placing
		c.placing = pl
		return true, nil
	})
}

func loadPlacement(ctx context.Context, source func(context.Context) ([]byte, error)) (*placement, error) {
	data, err := source(ctx)
	if err != nil {
		return nil, fmt.Errorf("placement source: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("placement image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, ErrEmptyImage
	}
	return &placement{data: data, aspect: float64(cfg.Width) / float64(cfg.Height)}, nil
}

// DeleteSelected removes the selected edit from the current page and returns
// its id. ok is false when nothing was selected.
func (c *Controller) DeleteSelected() (id string, ok bool) {
	c.update(func() (bool, error) {
		if c.selected == "" {
			return false, nil
		}
		id, ok = c.selected, true
		c.pages = c.pages.Remove(c.page, id)
		c.selected = ""
		if c.state == Moving || c.state == Resizing {
			c.state = Idle
		}
		if c.cfg.OnDelete != nil {
			c.cfg.OnDelete(id)
		}
		return true, nil
	})
	return id, ok
}

// SetPage shows page n. The selection and any drag in progress are dropped;
// a pending placement carries over to the new page.
func (c *Controller) SetPage(n int) error {
	return c.update(func() (bool, error) {
		if n < 1 || n > c.pageCount {
			return false, fmt.Errorf("%w: %d of %d", ErrPageRange, n, c.pageCount)
		}
		c.page = n
		c.selected = ""
		c.pending = nil
		if c.state != Placing {
			c.state = Idle
		}
		return true, nil
	})
}

func (c *Controller) selectedEdit() (edit.Edit, bool) {
	if c.selected == "" {
		return nil, false
	}
	return c.pages.Find(c.page, c.selected)
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	Mode      Mode
	State     State
	Page      int
	PageCount int
	Pages     edit.Pages
	Selected  edit.Edit
	Pending   edit.Edit
	Color     string
	FontSize  float64
	Revision  uint64
}

// Edits returns the committed edits of the displayed page.
func (s Snapshot) Edits() []edit.Edit {
	return s.Pages.Get(s.Page)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	sel, _ := c.selectedEdit()
	return Snapshot{
		Mode:      c.mode,
		State:     c.state,
		Page:      c.page,
		PageCount: c.pageCount,
		Pages:     c.pages,
		Selected:  sel,
		Pending:   c.pending,
		Color:     c.cfg.Color,
		FontSize:  c.cfg.FontSize,
		Revision:  c.revision,
	}
}
