package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"go-editpdf/internal/ai"
	"go-editpdf/internal/compress"
	"go-editpdf/internal/edit"

	"github.com/go-chi/chi/v5"
)

type compressResponse struct {
	Outcome  string  `json:"outcome"`
	Quality  float64 `json:"quality"`
	Size     int     `json:"size"`
	MinBytes int     `json:"minBytes"`
	MaxBytes int     `json:"maxBytes"`
	Message  string  `json:"message"`
	DataURL  string  `json:"dataUrl,omitempty"`
}

// CompressImage godoc
// @Summary      Compress an image into a size window
// @Description  Re-encodes an image as JPEG at the highest quality whose size lies between the minimum and maximum. A preset also resizes the image to its physical size.
// @Tags         tools
// @Accept       multipart/form-data
// @Produce      json
// @Param        file    formData  file    true   "PNG or JPEG image"
// @Param        preset  formData  string  false  "Preset name"
// @Param        minKb   formData  int     false  "Minimum size in KiB"
// @Param        maxKb   formData  int     false  "Maximum size in KiB"
// @Success      200  {object}  compressResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      422  {object}  compressResponse
// @Router       /api/images/compress [post]
func (h *APIHandler) CompressImage(w http.ResponseWriter, r *http.Request) {
	data, _, ok := readImageUpload(w, r, "file")
	if !ok {
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "The image could not be read", http.StatusBadRequest)
		return
	}

	var minBytes, maxBytes int
	if name := r.FormValue("preset"); name != "" {
		preset, ok := h.Presets[name]
		if !ok {
			http.Error(w, "Unknown preset", http.StatusBadRequest)
			return
		}
		pw, ph := preset.Pixels()
		img = compress.Fit(img, pw, ph)
		minBytes, maxBytes = preset.Window()
	} else {
		minKB, err1 := strconv.Atoi(r.FormValue("minKb"))
		maxKB, err2 := strconv.Atoi(r.FormValue("maxKb"))
		if err1 != nil || err2 != nil {
			http.Error(w, "Either a preset or minKb and maxKb are required", http.StatusBadRequest)
			return
		}
		minBytes, maxBytes = minKB*1024, maxKB*1024
		// JPEG has no alpha, so transparent pixels are laid onto white.
		b := img.Bounds()
		img = compress.Fit(img, b.Dx(), b.Dy())
	}

	res, err := compress.Search(r.Context(), img, minBytes, maxBytes, compress.JPEGEncoder{})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := compressResponse{
		Outcome:  res.Outcome.String(),
		Quality:  res.Quality,
		Size:     res.Size(),
		MinBytes: res.MinBytes,
		MaxBytes: res.MaxBytes,
		Message:  res.Message(),
	}
	if !res.Offerable() {
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	resp.DataURL = edit.DataURL(res.Data)
	writeJSON(w, http.StatusOK, resp)
}

// GetPresets godoc
// @Summary      List compression presets
// @Tags         tools
// @Produce      json
// @Success      200  {array}  compress.Preset
// @Router       /api/images/presets [get]
func (h *APIHandler) GetPresets(w http.ResponseWriter, r *http.Request) {
	list := make([]compress.Preset, 0, len(h.Presets))
	for _, name := range h.Presets.Names() {
		list = append(list, h.Presets[name])
	}
	writeJSON(w, http.StatusOK, list)
}

type textResponse struct {
	Text string `json:"text"`
}

// ExplainCompression godoc
// @Summary      Explain a compression level
// @Description  Asks the AI service what compressing a file type at a level does to size and quality
// @Tags         ai
// @Produce      json
// @Param        fileType  query  string  true  "File type, e.g. PDF or JPEG"
// @Param        level     query  int     true  "Compression level in percent"
// @Success      200  {object}  textResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      502  {string}  string  "AI request failed"
// @Failure      503  {string}  string  "AI not configured"
// @Router       /api/compression/explanation [get]
func (h *APIHandler) ExplainCompression(w http.ResponseWriter, r *http.Request) {
	fileType := r.URL.Query().Get("fileType")
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if fileType == "" || err != nil || level < 0 || level > 100 {
		http.Error(w, "fileType and a level between 0 and 100 are required", http.StatusBadRequest)
		return
	}
	text, err := h.AI.ExplainCompression(r.Context(), fileType, ai.LevelName(level))
	if err != nil {
		aiError(w, err, ai.MsgExplanationFailed)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

func aiError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, ai.ErrUnavailable) {
		writeError(w, err)
		return
	}
	log.Printf("Error calling AI service: %v", err)
	http.Error(w, msg, http.StatusBadGateway)
}

type aiOperation func(ctx context.Context, img []byte, mime string, r *http.Request) (string, error)

func (h *APIHandler) aiOperations() map[string]aiOperation {
	return map[string]aiOperation{
		"ocr": func(ctx context.Context, img []byte, mime string, r *http.Request) (string, error) {
			language := r.FormValue("language")
			if language == "" {
				language = "English"
			}
			return h.AI.ExtractText(ctx, img, mime, language)
		},
		"rename": func(ctx context.Context, img []byte, mime string, _ *http.Request) (string, error) {
			return h.AI.SuggestFilename(ctx, img, mime)
		},
		"table": func(ctx context.Context, img []byte, mime string, _ *http.Request) (string, error) {
			return h.AI.ExtractTableCSV(ctx, img, mime)
		},
		"markdown": func(ctx context.Context, img []byte, mime string, _ *http.Request) (string, error) {
			return h.AI.ExtractMarkdown(ctx, img, mime)
		},
	}
}

// RunAI godoc
// @Summary      Run an AI tool on an image or a page
// @Description  ocr extracts text, rename suggests a filename, table extracts CSV and markdown converts the content. The input is an uploaded image, or a page of a session's document given by sessionId and page.
// @Tags         ai
// @Accept       multipart/form-data
// @Produce      json
// @Param        op         path      string  true   "ocr, rename, table or markdown"
// @Param        file       formData  file    false  "PNG or JPEG image"
// @Param        sessionId  query     string  false  "Session whose document to read"
// @Param        page       query     int     false  "Page of the session's document"
// @Param        language   formData  string  false  "OCR language"
// @Success      200  {object}  textResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Unknown operation or session"
// @Failure      502  {string}  string  "AI request failed"
// @Failure      503  {string}  string  "AI not configured"
// @Router       /api/ai/{op} [post]
func (h *APIHandler) RunAI(w http.ResponseWriter, r *http.Request) {
	op, ok := h.aiOperations()[chi.URLParam(r, "op")]
	if !ok {
		http.Error(w, "Unknown operation", http.StatusNotFound)
		return
	}

	var (
		img      []byte
		mime     string
		failMsg  = ai.MsgImageFailed
		fromPage = r.URL.Query().Get("sessionId") != ""
	)
	if fromPage {
		img, ok = h.pageImage(w, r)
		mime, failMsg = "image/png", ai.MsgPageFailed
	} else {
		img, mime, ok = readImageUpload(w, r, "file")
	}
	if !ok {
		return
	}

	text, err := op(r.Context(), img, mime, r)
	if err != nil {
		if chi.URLParam(r, "op") == "rename" {
			failMsg = ai.MsgRenameFailed
		}
		aiError(w, err, failMsg)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

// pageImage renders the page named by the sessionId and page query
// parameters to PNG.
func (h *APIHandler) pageImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	s, exists := h.SessionManager.GetSession(r.URL.Query().Get("sessionId"))
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	doc, _, _, _, err := s.Editor()
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 || page > doc.PageCount {
		http.Error(w, "Invalid page", http.StatusBadRequest)
		return nil, false
	}
	img, err := doc.Pages.Render(r.Context(), page, h.CaptureScale)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, err)
		return nil, false
	}
	return buf.Bytes(), true
}
