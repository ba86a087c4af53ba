// Package handlers provides HTTP handlers for the PDF editing API.
//
// This package contains the HTTP endpoints for session management, document
// upload, the annotation editor, flattened export, page tools, the image
// compressor, and the AI utilities.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(sessionManager, uploadDir, outputDir)
//	r := chi.NewRouter()
//	r.Post("/api/sessions/", h.CreateSession)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go-editpdf/internal/ai"
	"go-editpdf/internal/canvas"
	"go-editpdf/internal/compress"
	"go-editpdf/internal/export"
	"go-editpdf/internal/pdf"
	"go-editpdf/internal/render"
	"go-editpdf/internal/session"
	"go-editpdf/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultCaptureScale = 1.5
	DefaultExportScale  = 1.0

	maxDocumentSize = 25 * 1024 * 1024
	maxImageSize    = 5 * 1024 * 1024
)

type APIHandler struct {
	SessionManager *session.SessionManager
	UploadDir      string
	OutputDir      string

	// CaptureScale is the scale of the page previews edits are drawn on.
	CaptureScale float64
	// ExportScale is the scale pages are rendered at when flattening.
	ExportScale float64

	PDF     export.Rasterizer
	Images  export.Rasterizer
	AI      ai.Service
	Presets compress.Presets
}

func NewAPIHandler(sm *session.SessionManager, uploadDir, outputDir string) *APIHandler {
	return &APIHandler{
		SessionManager: sm,
		UploadDir:      uploadDir,
		OutputDir:      outputDir,
		CaptureScale:   DefaultCaptureScale,
		ExportScale:    DefaultExportScale,
		PDF:            pdf.Poppler{},
		Images:         pdf.ImageRasterizer{},
		AI:             ai.Unavailable{},
		Presets:        compress.NewPresets(compress.DefaultPresets),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, exists := h.SessionManager.GetSession(chi.URLParam(r, "sessionID"))
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// editor bundles what the editor endpoints work on.
type editor struct {
	session    *session.Session
	doc        *session.Document
	controller *canvas.Controller
	renderer   *render.Renderer
	generation uint64
}

func (h *APIHandler) editor(w http.ResponseWriter, r *http.Request) (*editor, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, false
	}
	doc, c, rdr, gen, err := s.Editor()
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return &editor{session: s, doc: doc, controller: c, renderer: rdr, generation: gen}, true
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoDocument):
		http.Error(w, "No file loaded", http.StatusConflict)
	case errors.Is(err, session.ErrStale):
		http.Error(w, "The file was replaced while the request was running", http.StatusConflict)
	case errors.Is(err, pdf.ErrCorruptOrEncrypted):
		http.Error(w, "The file could not be opened. It may be corrupt or encrypted.", http.StatusUnprocessableEntity)
	case errors.Is(err, canvas.ErrPageRange),
		errors.Is(err, canvas.ErrUnknownMode),
		errors.Is(err, canvas.ErrNotPlaceable),
		errors.Is(err, canvas.ErrInvalidStyle),
		errors.Is(err, canvas.ErrEmptyImage),
		errors.Is(err, render.ErrUnknownFont),
		errors.Is(err, render.ErrEmptySignature),
		errors.Is(err, compress.ErrInvalidWindow),
		errors.Is(err, pdf.ErrNoPages):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ai.ErrUnavailable):
		http.Error(w, "AI features are not configured", http.StatusServiceUnavailable)
	default:
		log.Printf("Error handling request: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// CreateSession godoc
// @Summary      Create a new session
// @Description  Creates a new editing session and returns a session ID
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  map[string]string  "{ sessionId: string }"
// @Router       /api/sessions/ [post]
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.SessionManager.CreateSession()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sessionId": "%s"}`, session.ID)
}

// DeleteSession godoc
// @Summary      Delete a session
// @Description  Drops the session and removes every file written for it
// @Tags         sessions
// @Param        sessionID  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID} [delete]
func (h *APIHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	h.SessionManager.DeleteSession(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// UploadDocument godoc
// @Summary      Upload the document to edit
// @Description  Uploads a PDF, PNG or JPEG file and opens it in the editor. Any previous file and its edits are discarded.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        file       formData  file    true  "PDF, PNG or JPEG file"
// @Success      200  {object}  stateResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      422  {string}  string  "Corrupt or encrypted file"
// @Router       /api/sessions/{sessionID}/document [post]
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}
	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	header = header[:n]

	var rasterizer export.Rasterizer
	switch {
	case strings.HasPrefix(string(header), "%PDF-"):
		rasterizer = h.PDF
	case isImage(http.DetectContentType(header)):
		rasterizer = h.Images
	default:
		http.Error(w, "Only PDF, PNG and JPEG files are allowed", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to process file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-%s", utils.GenerateUUID(), utils.SanitizeFilename(handler.Filename))
	path := filepath.Join(h.UploadDir, filename)
	if err := saveUpload(path, file); err != nil {
		log.Printf("Error saving upload: %v", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	s.AddFile(path)

	if _, err := s.Load(r.Context(), rasterizer, path, handler.Filename, canvas.Config{}); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, s)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func isImage(contentType string) bool {
	return contentType == "image/png" || contentType == "image/jpeg"
}

// DiscardDocument godoc
// @Summary      Discard the document
// @Description  Closes the loaded file. Its edits are lost.
// @Tags         documents
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  map[string]bool  "{ success: true }"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/document [delete]
func (h *APIHandler) DiscardDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Discard()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"success": true}`)
}

var contentTypes = map[string]string{
	".pdf": "application/pdf",
	".zip": "application/zip",
}

// DownloadFile godoc
// @Summary      Download a result
// @Description  Downloads the latest file produced for the session
// @Tags         files
// @Produce      application/pdf
// @Produce      application/zip
// @Param        sessionID  path      string  true  "Session ID"
// @Param        filename   path      string  true  "Result filename"
// @Success      200  {file}  file  "File download"
// @Failure      403  {string}  string  "Unauthorized access to file"
// @Failure      404  {string}  string  "Session or file not found"
// @Router       /api/sessions/{sessionID}/files/{filename} [get]
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	filename := chi.URLParam(r, "filename")
	path := filepath.Join(h.OutputDir, filepath.Base(filename))
	output, name := s.Output()
	if output != path {
		http.Error(w, "Unauthorized access to file", http.StatusForbidden)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", ct)
	http.ServeFile(w, r, path)
}
