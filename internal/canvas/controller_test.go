package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"go-editpdf/internal/edit"

	"github.com/google/go-cmp/cmp"
)

func pt(x, y float64) edit.Point { return edit.Point{X: x, Y: y} }

func newController(t *testing.T, pages int, cfg Config) *Controller {
	t.Helper()
	n := 0
	if cfg.IDs == nil {
		cfg.IDs = func() string {
			n++
			return fmt.Sprintf("e%d", n)
		}
	}
	return New(pages, cfg)
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func drag(t *testing.T, c *Controller, from, to edit.Point) {
	t.Helper()
	if err := c.PointerDown(context.Background(), from); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(to)
	c.PointerUp(to)
}

func mustMode(t *testing.T, c *Controller, m Mode) {
	t.Helper()
	if err := c.SetMode(m); err != nil {
		t.Fatalf("SetMode(%s): %v", m, err)
	}
}

func TestRectDragIsNormalized(t *testing.T) {
	c := newController(t, 1, Config{Color: "#FF0000"})
	mustMode(t, c, Rect)
	drag(t, c, pt(50, 50), pt(20, 30))

	want := []edit.Edit{edit.RectEdit{ID: "e1", X: 20, Y: 30, Width: 30, Height: 20, Color: "#FF0000"}}
	s := c.Snapshot()
	if diff := cmp.Diff(want, s.Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
	if s.State != Idle || s.Pending != nil {
		t.Errorf("Expected idle with nothing pending, got %s / %v", s.State, s.Pending)
	}
}

func TestZeroAreaRectIsDiscarded(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(10, 10), pt(10, 40))
	drag(t, c, pt(10, 10), pt(10, 10))

	s := c.Snapshot()
	if n := s.Pages.Count(); n != 0 {
		t.Errorf("Expected no edits, got %d", n)
	}
	if s.Pages.Has(1) {
		t.Error("Expected page 1 to have no entry")
	}
}

func TestFreehandStroke(t *testing.T) {
	c := newController(t, 1, Config{Color: "#0000FF"})
	mustMode(t, c, Draw)
	ctx := context.Background()
	if err := c.PointerDown(ctx, pt(1, 1)); err != nil {
		t.Fatal(err)
	}
	c.PointerMove(pt(2, 3))
	c.PointerMove(pt(4, 5))
	if got := c.Snapshot().Pending; got == nil {
		t.Fatal("Expected a pending stroke while drawing")
	}
	c.PointerUp(pt(4, 5))

	want := []edit.Edit{edit.DrawEdit{ID: "e1", X: 1, Y: 1, Points: []edit.Point{{X: 1, Y: 1}, {X: 2, Y: 3}, {X: 4, Y: 5}}, Color: "#0000FF"}}
	if diff := cmp.Diff(want, c.Snapshot().Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectPicksTopmostAndMoves(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(0, 0), pt(50, 50))
	drag(t, c, pt(20, 20), pt(80, 80))
	mustMode(t, c, Select)

	drag(t, c, pt(30, 30), pt(40, 35))

	s := c.Snapshot()
	if s.Selected == nil || s.Selected.EditID() != "e2" {
		t.Fatalf("Expected e2 selected, got %v", s.Selected)
	}
	want := []edit.Edit{
		edit.RectEdit{ID: "e1", X: 0, Y: 0, Width: 50, Height: 50, Color: DefaultColor},
		edit.RectEdit{ID: "e2", X: 30, Y: 25, Width: 60, Height: 60, Color: DefaultColor},
	}
	if diff := cmp.Diff(want, s.Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectEmptyClearsSelection(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(0, 0), pt(50, 50))
	mustMode(t, c, Select)
	drag(t, c, pt(25, 25), pt(25, 25))
	if c.Snapshot().Selected == nil {
		t.Fatal("Expected a selection")
	}

	drag(t, c, pt(200, 200), pt(200, 200))
	if sel := c.Snapshot().Selected; sel != nil {
		t.Errorf("Expected selection cleared, got %v", sel)
	}
}

func TestTextAndDrawAreNotSelectable(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Text)
	ctx := WithPrompter(context.Background(), StaticText("hello"))
	if err := c.PointerDown(ctx, pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	mustMode(t, c, Select)
	drag(t, c, pt(10, 10), pt(10, 10))
	if sel := c.Snapshot().Selected; sel != nil {
		t.Errorf("Expected text to be unselectable, got %v", sel)
	}
}

func TestToolSwitchClearsSelection(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(10, 10), pt(110, 110))
	mustMode(t, c, Select)
	drag(t, c, pt(50, 50), pt(50, 50))
	if c.Snapshot().Selected == nil {
		t.Fatal("Expected the rect to be selected")
	}

	mustMode(t, c, Rect)
	if sel := c.Snapshot().Selected; sel != nil {
		t.Fatalf("Expected tool switch to clear the selection, got %v", sel)
	}

	// A press on the old corner starts a new rectangle.
	drag(t, c, pt(110, 110), pt(200, 200))
	want := []edit.Edit{
		edit.RectEdit{ID: "e1", X: 10, Y: 10, Width: 100, Height: 100, Color: DefaultColor},
		edit.RectEdit{ID: "e2", X: 110, Y: 110, Width: 90, Height: 90, Color: DefaultColor},
	}
	if diff := cmp.Diff(want, c.Snapshot().Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}

	mustMode(t, c, Select)
	drag(t, c, pt(50, 50), pt(50, 50))
	data := pngOf(t, 10, 10)
	if err := c.BeginPlacing(context.Background(), Image, func(context.Context) ([]byte, error) { return data, nil }); err != nil {
		t.Fatal(err)
	}
	if sel := c.Snapshot().Selected; sel != nil {
		t.Errorf("Expected placing to clear the selection, got %v", sel)
	}
}

func TestResizeBelowMinimumIsRejected(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(100, 100), pt(200, 150))
	mustMode(t, c, Select)
	drag(t, c, pt(150, 120), pt(150, 120))

	ctx := context.Background()
	if err := c.PointerDown(ctx, pt(200, 150)); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().State; got != Resizing {
		t.Fatalf("Expected resizing, got %s", got)
	}
	c.PointerMove(pt(105, 150))
	c.PointerMove(pt(130, 140))
	c.PointerUp(pt(130, 140))

	want := []edit.Edit{edit.RectEdit{ID: "e1", X: 100, Y: 100, Width: 30, Height: 40, Color: DefaultColor}}
	if diff := cmp.Diff(want, c.Snapshot().Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestPlacingCommitsCenteredImage(t *testing.T) {
	c := newController(t, 1, Config{})
	data := pngOf(t, 300, 100)
	err := c.BeginPlacing(context.Background(), Signature, func(context.Context) ([]byte, error) { return data, nil })
	if err != nil {
		t.Fatalf("BeginPlacing: %v", err)
	}
	if s := c.Snapshot(); s.State != Placing || s.Mode != Signature {
		t.Fatalf("Expected placing in signature mode, got %s/%s", s.State, s.Mode)
	}

	if err := c.PointerDown(context.Background(), pt(200, 200)); err != nil {
		t.Fatal(err)
	}
	c.PointerUp(pt(200, 200))

	s := c.Snapshot()
	want := []edit.Edit{edit.ImageEdit{ID: "e1", X: 125, Y: 175, Width: 150, Height: 50, Data: data, AspectRatio: 3}}
	if diff := cmp.Diff(want, s.Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
	if s.Selected == nil || s.Selected.EditID() != "e1" {
		t.Errorf("Expected placed image selected, got %v", s.Selected)
	}
	if s.Mode != Select || s.State != Idle {
		t.Errorf("Expected select/idle, got %s/%s", s.Mode, s.State)
	}
}

func TestImageResizeKeepsAspect(t *testing.T) {
	c := newController(t, 1, Config{})
	data := pngOf(t, 200, 100)
	if err := c.BeginPlacing(context.Background(), Image, func(context.Context) ([]byte, error) { return data, nil }); err != nil {
		t.Fatal(err)
	}
	// 200x100 centred on (200,150) spans (100,100)-(300,200).
	drag(t, c, pt(200, 150), pt(200, 150))
	drag(t, c, pt(300, 200), pt(400, 400))

	got, ok := c.Snapshot().Selected.(edit.ImageEdit)
	if !ok {
		t.Fatalf("Expected a selected image, got %v", c.Snapshot().Selected)
	}
	if got.X != 100 || got.Y != 100 || got.Width != 300 || got.Height != 150 {
		t.Errorf("Expected 300x150 at (100,100), got %vx%v at (%v,%v)", got.Width, got.Height, got.X, got.Y)
	}
}

func TestPlacingSourceFailure(t *testing.T) {
	c := newController(t, 1, Config{})
	boom := errors.New("background removal failed")
	err := c.BeginPlacing(context.Background(), Image, func(context.Context) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Expected source error, got %v", err)
	}
	if s := c.Snapshot(); s.State != Idle {
		t.Errorf("Expected idle after failure, got %s", s.State)
	}

	err = c.BeginPlacing(context.Background(), Image, func(context.Context) ([]byte, error) { return []byte("not an image"), nil })
	if err == nil {
		t.Error("Expected error for undecodable image")
	}
	if err := c.BeginPlacing(context.Background(), Rect, nil); !errors.Is(err, ErrNotPlaceable) {
		t.Errorf("Expected ErrNotPlaceable, got %v", err)
	}

	if err := c.PointerDown(context.Background(), pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if n := c.Snapshot().Pages.Count(); n != 0 {
		t.Errorf("Expected nothing placed, got %d edits", n)
	}
}

type promptFunc func(ctx context.Context) (string, bool, error)

func (f promptFunc) PromptText(ctx context.Context) (string, bool, error) { return f(ctx) }

func TestTextPrompt(t *testing.T) {
	c := newController(t, 1, Config{Color: "#00FF00", FontSize: 20})
	mustMode(t, c, Text)
	bg := context.Background()

	if err := c.PointerDown(WithPrompter(bg, StaticText("")), pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	dismissed := promptFunc(func(context.Context) (string, bool, error) { return "ignored", false, nil })
	if err := c.PointerDown(WithPrompter(bg, dismissed), pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerDown(bg, pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	if n := c.Snapshot().Pages.Count(); n != 0 {
		t.Fatalf("Expected dismissed prompts to add nothing, got %d", n)
	}

	if err := c.PointerDown(WithPrompter(bg, StaticText("Paid")), pt(40, 60)); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerDown(WithPrompter(bg, StaticText("   ")), pt(1, 2)); err != nil {
		t.Fatal(err)
	}
	want := []edit.Edit{
		edit.TextEdit{ID: "e1", X: 40, Y: 60, Text: "Paid", Color: "#00FF00", FontSize: 20},
		edit.TextEdit{ID: "e2", X: 1, Y: 2, Text: "   ", Color: "#00FF00", FontSize: 20},
	}
	s := c.Snapshot()
	if diff := cmp.Diff(want, s.Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
	if s.State != Idle {
		t.Errorf("Expected idle after text, got %s", s.State)
	}

	failing := promptFunc(func(context.Context) (string, bool, error) { return "", false, errors.New("closed") })
	if err := c.PointerDown(WithPrompter(bg, failing), pt(1, 1)); err == nil {
		t.Error("Expected prompt error to surface")
	}
}

func TestPromptRunsWithoutLock(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Text)

	// The prompter reads the controller, which would deadlock under the lock.
	reading := promptFunc(func(context.Context) (string, bool, error) {
		return fmt.Sprintf("rev %d", c.Snapshot().Revision), true, nil
	})
	if err := c.PointerDown(WithPrompter(context.Background(), reading), pt(3, 4)); err != nil {
		t.Fatal(err)
	}
	if n := len(c.Snapshot().Edits()); n != 1 {
		t.Fatalf("Expected 1 text edit, got %d", n)
	}

	// A tool switch while the prompt is open drops the answer.
	switching := promptFunc(func(context.Context) (string, bool, error) {
		if err := c.SetMode(Rect); err != nil {
			return "", false, err
		}
		return "late", true, nil
	})
	if err := c.PointerDown(WithPrompter(context.Background(), switching), pt(3, 4)); err != nil {
		t.Fatal(err)
	}
	if n := len(c.Snapshot().Edits()); n != 1 {
		t.Errorf("Expected the late answer to be dropped, got %d edits", n)
	}
}

func TestCheckmarkStamp(t *testing.T) {
	var gotColor color.Color
	stamp := func(c color.Color) ([]byte, error) {
		gotColor = c
		return []byte("glyph"), nil
	}
	c := newController(t, 1, Config{Color: "#FF0000", Stamp: stamp})
	mustMode(t, c, Checkmark)
	if err := c.PointerDown(context.Background(), pt(100, 100)); err != nil {
		t.Fatal(err)
	}

	want := []edit.Edit{edit.ImageEdit{ID: "e1", X: 90, Y: 90, Width: 20, Height: 20, Data: []byte("glyph"), AspectRatio: 1}}
	if diff := cmp.Diff(want, c.Snapshot().Edits()); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
	if gotColor != (color.RGBA{0xff, 0, 0, 0xff}) {
		t.Errorf("Expected stamp in current color, got %v", gotColor)
	}

	c = newController(t, 1, Config{})
	mustMode(t, c, Checkmark)
	if err := c.PointerDown(context.Background(), pt(1, 1)); !errors.Is(err, ErrNoStamp) {
		t.Errorf("Expected ErrNoStamp, got %v", err)
	}
}

func TestCancelDiscardsInProgress(t *testing.T) {
	c := newController(t, 1, Config{})
	mustMode(t, c, Rect)
	if err := c.PointerDown(context.Background(), pt(0, 0)); err != nil {
		t.Fatal(err)
	}
	c.PointerMove(pt(50, 50))
	c.Cancel()
	c.PointerUp(pt(50, 50))
	if n := c.Snapshot().Pages.Count(); n != 0 {
		t.Errorf("Expected cancelled rect to be dropped, got %d edits", n)
	}

	data := pngOf(t, 10, 10)
	if err := c.BeginPlacing(context.Background(), Image, func(context.Context) ([]byte, error) { return data, nil }); err != nil {
		t.Fatal(err)
	}
	c.Cancel()
	if s := c.Snapshot(); s.State != Idle {
		t.Errorf("Expected idle after cancel, got %s", s.State)
	}
	if err := c.PointerDown(context.Background(), pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	if n := c.Snapshot().Pages.Count(); n != 0 {
		t.Errorf("Expected nothing placed after cancel, got %d edits", n)
	}
}

func TestDeleteSelected(t *testing.T) {
	var deleted []string
	c := newController(t, 1, Config{OnDelete: func(id string) { deleted = append(deleted, id) }})
	if _, ok := c.DeleteSelected(); ok {
		t.Error("Expected nothing to delete")
	}
	mustMode(t, c, Rect)
	drag(t, c, pt(0, 0), pt(20, 20))
	mustMode(t, c, Select)
	drag(t, c, pt(10, 10), pt(10, 10))

	id, ok := c.DeleteSelected()
	if !ok || id != "e1" {
		t.Fatalf("Expected e1 deleted, got %q %v", id, ok)
	}
	s := c.Snapshot()
	if s.Selected != nil || s.Pages.Has(1) {
		t.Errorf("Expected empty page and no selection, got %v / %v", s.Selected, s.Edits())
	}
	if diff := cmp.Diff([]string{"e1"}, deleted); diff != "" {
		t.Errorf("delete hook mismatch (-want +got):\n%s", diff)
	}
}

func TestSetPage(t *testing.T) {
	c := newController(t, 3, Config{})
	mustMode(t, c, Rect)
	drag(t, c, pt(0, 0), pt(20, 20))
	mustMode(t, c, Select)
	drag(t, c, pt(10, 10), pt(10, 10))

	if err := c.SetPage(2); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.Selected != nil {
		t.Error("Expected page change to clear the selection")
	}
	if len(s.Edits()) != 0 || len(s.Pages.Get(1)) != 1 {
		t.Errorf("Expected edits to stay on page 1, got %v", s.Pages.Numbers())
	}
	for _, n := range []int{0, 4} {
		if err := c.SetPage(n); !errors.Is(err, ErrPageRange) {
			t.Errorf("SetPage(%d): expected ErrPageRange, got %v", n, err)
		}
	}
	if got := c.Snapshot().Page; got != 2 {
		t.Errorf("Expected page 2 after failed changes, got %d", got)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	var revisions []uint64
	c := newController(t, 1, Config{OnChange: func(s Snapshot) { revisions = append(revisions, s.Revision) }})
	mustMode(t, c, Rect)
	drag(t, c, pt(0, 0), pt(20, 20))
	before := c.Snapshot()

	drag(t, c, pt(30, 30), pt(40, 40))
	if n := len(before.Edits()); n != 1 {
		t.Errorf("Expected earlier snapshot to keep 1 edit, got %d", n)
	}
	if n := len(c.Snapshot().Edits()); n != 2 {
		t.Errorf("Expected 2 edits, got %d", n)
	}
	for i := 1; i < len(revisions); i++ {
		if revisions[i] <= revisions[i-1] {
			t.Fatalf("Expected increasing revisions, got %v", revisions)
		}
	}
	if last := revisions[len(revisions)-1]; last != c.Snapshot().Revision {
		t.Errorf("Expected hook to see revision %d, got %d", c.Snapshot().Revision, last)
	}
}

func TestConcurrentCommits(t *testing.T) {
	c := New(1, Config{})
	mustMode(t, c, Text)
	ctx := WithPrompter(context.Background(), StaticText("x"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := c.PointerDown(ctx, pt(float64(i), float64(i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	edits := c.Snapshot().Edits()
	if len(edits) != 50 {
		t.Fatalf("Expected 50 edits, got %d", len(edits))
	}
	seen := make(map[string]bool)
	for _, e := range edits {
		if seen[e.EditID()] {
			t.Errorf("Duplicate id %s", e.EditID())
		}
		seen[e.EditID()] = true
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Select, Text, Rect, Draw, Signature, Checkmark, Image} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("lasso"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
	if err := New(1, Config{}).SetMode(Mode(42)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
}
