package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"go-editpdf/internal/export"
	"go-editpdf/internal/pdf"
	"go-editpdf/internal/utils"
)

type resultResponse struct {
	DownloadURL string `json:"downloadUrl"`
	Filename    string `json:"filename"`
}

// publish records path as the session's result unless the document was
// replaced while it was produced.
func (h *APIHandler) publish(w http.ResponseWriter, e *editor, path, name string) {
	if _, err := e.session.Current(e.generation); err != nil {
		os.Remove(path)
		writeError(w, err)
		return
	}
	e.session.SetOutput(path, name)
	writeJSON(w, http.StatusOK, resultResponse{
		DownloadURL: fmt.Sprintf("/api/sessions/%s/files/%s", e.session.ID, filepath.Base(path)),
		Filename:    name,
	})
}

// ExportDocument godoc
// @Summary      Export the edited document
// @Description  Renders every page, draws the edits on top and assembles the pages into a new PDF
// @Tags         actions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  resultResponse
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded or file replaced"
// @Failure      500  {string}  string  "Export failed"
// @Router       /api/sessions/{sessionID}/actions/export [post]
func (h *APIHandler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	pages := e.controller.Snapshot().Pages

	writer := pdf.NewWriter(h.ExportScale)
	exporter := export.Exporter{
		Compositor:   e.renderer,
		CaptureScale: h.CaptureScale,
		ExportScale:  h.ExportScale,
	}
	if err := exporter.Flatten(r.Context(), e.doc.Pages, pages, writer); err != nil {
		log.Printf("Error exporting %s: %v", e.doc.Name, err)
		http.Error(w, "Failed to export document", http.StatusInternalServerError)
		return
	}

	path := filepath.Join(h.OutputDir, utils.GenerateUUID()+".pdf")
	if err := writer.Save(path); err != nil {
		log.Printf("Error saving export: %v", err)
		http.Error(w, "Failed to export document", http.StatusInternalServerError)
		return
	}
	h.publish(w, e, path, utils.WithExt(export.OutputName(e.doc.Name), ".pdf"))
}

// ExportImages godoc
// @Summary      Export pages as images
// @Description  Renders every page of the original document to PNG and returns them in a zip archive. Edits are not drawn.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true   "Session ID"
// @Param        request    body  object  false  "{ scale: number }"
// @Success      200  {object}  resultResponse
// @Failure      400  {string}  string  "Invalid scale"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded or file replaced"
// @Router       /api/sessions/{sessionID}/actions/images [post]
func (h *APIHandler) ExportImages(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	req := struct {
		Scale float64 `json:"scale"`
	}{Scale: DefaultCaptureScale}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Scale <= 0 {
		http.Error(w, "Scale must be positive", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.OutputDir, utils.GenerateUUID()+".zip")
	f, err := os.Create(path)
	if err != nil {
		log.Printf("Error creating archive: %v", err)
		http.Error(w, "Failed to create archive", http.StatusInternalServerError)
		return
	}
	err = export.PagesToZip(r.Context(), e.doc.Pages, req.Scale, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		log.Printf("Error converting %s to images: %v", e.doc.Name, err)
		http.Error(w, "Failed to convert pages to images", http.StatusInternalServerError)
		return
	}
	h.publish(w, e, path, utils.StripExt(e.doc.Name)+"-pages.zip")
}

// DeletePages godoc
// @Summary      Delete pages
// @Description  Writes a copy of the loaded PDF without the given 1-based pages. The loaded document is not changed.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ pages: [int] }"
// @Success      200  {object}  resultResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No file loaded or file replaced"
// @Router       /api/sessions/{sessionID}/actions/delete-pages [post]
func (h *APIHandler) DeletePages(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	var req struct {
		Pages []int `json:"pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !isPDFFile(e.doc.Path) {
		http.Error(w, "Pages can only be deleted from PDF files", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.OutputDir, utils.GenerateUUID()+".pdf")
	if err := pdf.RemovePages(r.Context(), e.doc.Path, path, req.Pages); err != nil {
		os.Remove(path)
		if errors.Is(err, pdf.ErrNoPages) || errors.Is(err, pdf.ErrCorruptOrEncrypted) {
			writeError(w, err)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.publish(w, e, path, "deleted-pages-from-"+utils.WithExt(e.doc.Name, ".pdf"))
}

func isPDFFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, 5)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, []byte("%PDF-"))
}
