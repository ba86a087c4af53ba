// Package server sets up the HTTP server and registers API routes for go-editpdf.
//
// RegisterRoutes returns an http.Handler with all API endpoints for sessions,
// the annotation editor, exports, the image compressor and the AI tools.
//
// Expected outputs:
// - Session endpoints are available under /api/sessions
// - CORS and logging middleware are enabled
// - Swagger UI is served to localhost only
package server

import (
	"net"
	"net/http"

	_ "go-editpdf/docs"
	"go-editpdf/internal/handlers"
	"go-editpdf/internal/pdf"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Only allow requests from localhost to /swagger/*
func localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Revision"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)

	h := s.handler()
	r.Route("/api/sessions", func(api chi.Router) {
		api.Post("/", h.CreateSession)
		api.Route("/{sessionID}", func(sr chi.Router) {
			sr.Delete("/", h.DeleteSession)
			sr.Post("/document", h.UploadDocument)
			sr.Delete("/document", h.DiscardDocument)
			sr.Get("/state", h.GetState)
			sr.Put("/tool", h.SetTool)
			sr.Put("/page", h.SetPage)
			sr.Post("/events", h.PostEvents)
			sr.Post("/placements", h.BeginPlacement)
			sr.Delete("/selection", h.DeleteSelection)
			sr.Get("/overlay.png", h.GetOverlay)
			sr.Get("/pages/{page}/preview.png", h.GetPreview)
			sr.Post("/actions/export", h.ExportDocument)
			sr.Post("/actions/images", h.ExportImages)
			sr.Post("/actions/delete-pages", h.DeletePages)
			sr.Get("/files/{filename}", h.DownloadFile)
		})
	})
	r.Post("/api/images/compress", h.CompressImage)
	r.Get("/api/images/presets", h.GetPresets)
	r.Get("/api/compression/explanation", h.ExplainCompression)
	r.Post("/api/ai/{op}", h.RunAI)

	return r
}

func (s *Server) handler() *handlers.APIHandler {
	h := handlers.NewAPIHandler(s.SessionManager, s.UploadDir, s.OutputDir)
	if s.CaptureScale > 0 {
		h.CaptureScale = s.CaptureScale
	}
	if s.ExportScale > 0 {
		h.ExportScale = s.ExportScale
	}
	if s.PDFToPPM != "" {
		h.PDF = pdf.Poppler{Bin: s.PDFToPPM}
	}
	if s.AI != nil {
		h.AI = s.AI
	}
	if s.Presets != nil {
		h.Presets = s.Presets
	}
	return h
}
