package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"

	"go-editpdf/internal/ai"
	"go-editpdf/internal/canvas"
	"go-editpdf/internal/edit"
	"go-editpdf/internal/render"
	"go-editpdf/internal/session"

	"github.com/go-chi/chi/v5"
	xdraw "golang.org/x/image/draw"
)

type stateResponse struct {
	Generation     uint64       `json:"generation"`
	File           string       `json:"file"`
	PageCount      int          `json:"pageCount"`
	Page           int          `json:"page"`
	Mode           canvas.Mode  `json:"mode"`
	State          canvas.State `json:"state"`
	Color          string       `json:"color"`
	FontSize       float64      `json:"fontSize"`
	Revision       uint64       `json:"revision"`
	SelectedID     string       `json:"selectedId,omitempty"`
	Edits          []edit.Edit  `json:"edits"`
	PagesWithEdits []int        `json:"pagesWithEdits"`
	EditCount      int          `json:"editCount"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
}

func (h *APIHandler) state(e *editor) (stateResponse, error) {
	snap := e.controller.Snapshot()
	w, hgt, err := h.canvasSize(e.doc, snap.Page)
	if err != nil {
		return stateResponse{}, err
	}
	edits := snap.Edits()
	if edits == nil {
		edits = []edit.Edit{}
	}
	resp := stateResponse{
		Generation:     e.generation,
		File:           e.doc.Name,
		PageCount:      snap.PageCount,
		Page:           snap.Page,
		Mode:           snap.Mode,
		State:          snap.State,
		Color:          snap.Color,
		FontSize:       snap.FontSize,
		Revision:       snap.Revision,
		Edits:          edits,
		PagesWithEdits: snap.Pages.Numbers(),
		EditCount:      snap.Pages.Count(),
		Width:          w,
		Height:         hgt,
	}
	if snap.Selected != nil {
		resp.SelectedID = snap.Selected.EditID()
	}
	return resp, nil
}

// canvasSize is the pixel size of a page preview at capture scale.
func (h *APIHandler) canvasSize(doc *session.Document, page int) (int, int, error) {
	w, hgt, err := doc.Pages.PageSize(page)
	if err != nil {
		return 0, 0, err
	}
	return max(1, int(math.Round(w*h.CaptureScale))), max(1, int(math.Round(hgt*h.CaptureScale))), nil
}

func (h *APIHandler) writeState(w http.ResponseWriter, s *session.Session) {
	doc, c, rdr, gen, err := s.Editor()
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.state(&editor{session: s, doc: doc, controller: c, renderer: rdr, generation: gen})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetState godoc
// @Summary      Get editor state
// @Description  Returns the current page, tool, selection and the edits of the current page
// @Tags         editor
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  stateResponse
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/state [get]
func (h *APIHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, s)
}

type toolRequest struct {
	Mode     *canvas.Mode `json:"mode"`
	Color    string       `json:"color"`
	FontSize float64      `json:"fontSize"`
}

// SetTool godoc
// @Summary      Select a tool
// @Description  Switches the tool mode and optionally the color and font size of new edits
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string       true  "Session ID"
// @Param        request    body  toolRequest  true  "Tool settings"
// @Success      200  {object}  stateResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/tool [put]
func (h *APIHandler) SetTool(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid tool settings", http.StatusBadRequest)
		return
	}
	if req.Color != "" || req.FontSize != 0 {
		snap := e.controller.Snapshot()
		color, size := snap.Color, snap.FontSize
		if req.Color != "" {
			color = req.Color
		}
		if req.FontSize != 0 {
			size = req.FontSize
		}
		if err := e.controller.SetStyle(color, size); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Mode != nil {
		if err := e.controller.SetMode(*req.Mode); err != nil {
			writeError(w, err)
			return
		}
	}
	h.respondState(w, e)
}

func (h *APIHandler) respondState(w http.ResponseWriter, e *editor) {
	resp, err := h.state(e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetPage godoc
// @Summary      Change page
// @Description  Shows another page. The selection is cleared.
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ page: int }"
// @Success      200  {object}  stateResponse
// @Failure      400  {string}  string  "Page out of range"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/page [put]
func (h *APIHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid page", http.StatusBadRequest)
		return
	}
	if err := e.controller.SetPage(req.Page); err != nil {
		writeError(w, err)
		return
	}
	h.respondState(w, e)
}

type pointerEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	// Text answers the prompt of a text-mode press. Empty dismisses it.
	Text string `json:"text,omitempty"`
}

type eventsRequest struct {
	Generation uint64         `json:"generation"`
	Events     []pointerEvent `json:"events"`
}

// PostEvents godoc
// @Summary      Send pointer events
// @Description  Feeds a batch of pointer events (down, move, up, cancel) to the editor in order. Coordinates are in preview pixels.
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string         true  "Session ID"
// @Param        request    body  eventsRequest  true  "Events"
// @Success      200  {object}  stateResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded or file replaced"
// @Router       /api/sessions/{sessionID}/events [post]
func (h *APIHandler) PostEvents(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid events", http.StatusBadRequest)
		return
	}
	if req.Generation != 0 && req.Generation != e.generation {
		writeError(w, session.ErrStale)
		return
	}

	for i, ev := range req.Events {
		p := edit.Point{X: ev.X, Y: ev.Y}
		switch ev.Type {
		case "down":
			ctx := canvas.WithPrompter(r.Context(), canvas.StaticText(ev.Text))
			if err := e.controller.PointerDown(ctx, p); err != nil {
				writeError(w, fmt.Errorf("event %d: %w", i, err))
				return
			}
		case "move":
			e.controller.PointerMove(p)
		case "up":
			e.controller.PointerUp(p)
		case "cancel":
			e.controller.Cancel()
		default:
			http.Error(w, fmt.Sprintf("Unknown event type %q", ev.Type), http.StatusBadRequest)
			return
		}
	}
	h.respondState(w, e)
}

// BeginPlacement godoc
// @Summary      Place a signature or image
// @Description  Uploads a signature or image and waits for the next pointer press to place it. A signature can instead be typed: without a file, text is set in the chosen font with the current color. With removeBackground=true the background is made transparent first.
// @Tags         editor
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID         path      string  true   "Session ID"
// @Param        kind              formData  string  true   "signature or image"
// @Param        file              formData  file    false  "PNG or JPEG image"
// @Param        text              formData  string  false  "Typed signature"
// @Param        font              formData  string  false  "italic, bold-italic, regular or mono"
// @Param        removeBackground  formData  bool    false  "Remove the background with AI"
// @Success      200  {object}  stateResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded or file replaced"
// @Failure      502  {string}  string  "Background removal failed"
// @Router       /api/sessions/{sessionID}/placements [post]
func (h *APIHandler) BeginPlacement(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}
	kind, err := canvas.ParseMode(r.FormValue("kind"))
	if err == nil && kind != canvas.Signature && kind != canvas.Image {
		err = fmt.Errorf("%w: %s", canvas.ErrNotPlaceable, kind)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var data []byte
	var mime string
	if typed := r.FormValue("text"); typed != "" && kind == canvas.Signature && len(r.MultipartForm.File["file"]) == 0 {
		if data, err = typedSignature(e, typed, r.FormValue("font")); err != nil {
			writeError(w, err)
			return
		}
		mime = "image/png"
	} else if data, mime, ok = readImageUpload(w, r, "file"); !ok {
		return
	}

	source := func(context.Context) ([]byte, error) { return data, nil }
	removeBackground, _ := strconv.ParseBool(r.FormValue("removeBackground"))
	if removeBackground {
		source = func(ctx context.Context) ([]byte, error) {
			return h.AI.RemoveBackground(ctx, data, mime)
		}
	}

	err = e.controller.BeginPlacing(r.Context(), kind, source)
	if _, stale := e.session.Current(e.generation); stale != nil {
		writeError(w, stale)
		return
	}
	switch {
	case err == nil:
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, canvas.ErrEmptyImage):
		writeError(w, err)
		return
	case removeBackground:
		log.Printf("Error removing background: %v", err)
		http.Error(w, ai.MsgBackgroundFailed, http.StatusBadGateway)
		return
	default:
		http.Error(w, "The image could not be read", http.StatusBadRequest)
		return
	}
	h.respondState(w, e)
}

// typedSignature sets text in the named font, inked with the controller's
// current color.
func typedSignature(e *editor, text, fontName string) ([]byte, error) {
	ink, err := edit.ParseColor(e.controller.Snapshot().Color)
	if err != nil {
		return nil, err
	}
	return render.TypedSignature(text, fontName, ink)
}

// readImageUpload reads a PNG or JPEG form file of at most maxImageSize.
func readImageUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return nil, "", false
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return nil, "", false
	}
	contentType := http.DetectContentType(data)
	if !isImage(contentType) {
		http.Error(w, "Invalid image format. Only PNG and JPEG images are allowed", http.StatusBadRequest)
		return nil, "", false
	}
	return data, contentType, true
}

// DeleteSelection godoc
// @Summary      Delete the selected edit
// @Tags         editor
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  stateResponse
// @Failure      404  {string}  string  "Session not found or nothing selected"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/selection [delete]
func (h *APIHandler) DeleteSelection(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	if _, ok := e.controller.DeleteSelected(); !ok {
		http.Error(w, "No edit selected", http.StatusNotFound)
		return
	}
	h.respondState(w, e)
}

// GetOverlay godoc
// @Summary      Render the edit overlay
// @Description  Renders the edits of the current page and the selection on a transparent PNG the size of the page preview
// @Tags         editor
// @Produce      image/png
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {file}  file  "PNG image"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/overlay.png [get]
func (h *APIHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	snap := e.controller.Snapshot()
	width, height, err := h.canvasSize(e.doc, snap.Page)
	if err != nil {
		writeError(w, err)
		return
	}
	img, err := e.renderer.Overlay(width, height, render.Frame{
		Edits:    snap.Edits(),
		Pending:  snap.Pending,
		Selected: snap.Selected,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Revision", strconv.FormatUint(snap.Revision, 10))
	writePNG(w, img)
}

// GetPreview godoc
// @Summary      Render a page
// @Description  Renders a page at the capture scale. With composite=true the page's edits are drawn on it.
// @Tags         editor
// @Produce      image/png
// @Param        sessionID  path   string  true   "Session ID"
// @Param        page       path   int     true   "Page number"
// @Param        composite  query  bool    false  "Draw edits on the page"
// @Success      200  {file}  file  "PNG image"
// @Failure      400  {string}  string  "Invalid page"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded"
// @Router       /api/sessions/{sessionID}/pages/{page}/preview.png [get]
func (h *APIHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 || page > e.doc.PageCount {
		http.Error(w, "Invalid page", http.StatusBadRequest)
		return
	}
	img, err := e.doc.Pages.Render(r.Context(), page, h.CaptureScale)
	if err != nil {
		writeError(w, err)
		return
	}
	if composite, _ := strconv.ParseBool(r.URL.Query().Get("composite")); composite {
		dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		xdraw.Draw(dst, dst.Rect, img, img.Bounds().Min, xdraw.Src)
		if err := e.renderer.DrawEdits(dst, e.controller.Snapshot().Pages.Get(page), 1); err != nil {
			writeError(w, err)
			return
		}
		img = dst
	}
	writePNG(w, img)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Printf("Error encoding png: %v", err)
	}
}
