// Package server provides the HTTP server setup for go-editpdf.
//
// LoadConfig reads the environment. NewServer creates and configures the
// HTTP server, session manager, file directories and the AI service from it.
//
// Expected outputs:
// - Server listens on the configured port (default 8080)
// - Idle sessions and their files are reaped periodically
//
// Usage:
//
//	server := server.NewServer(server.LoadConfig())
//	server.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go-editpdf/internal/ai"
	"go-editpdf/internal/compress"
	"go-editpdf/internal/session"

	_ "github.com/joho/godotenv/autoload"
)

const defaultSessionTTL = 30 * time.Minute

type Server struct {
	SessionManager *session.SessionManager
	UploadDir      string
	OutputDir      string

	CaptureScale float64
	ExportScale  float64
	PDFToPPM     string
	AI           ai.Service
	Presets      compress.Presets
}

// Config is the server's environment. LoadConfig reads it once so the
// entrypoint and the server agree on the directories they manage.
type Config struct {
	Port         int
	UploadDir    string
	OutputDir    string
	CaptureScale float64
	ExportScale  float64
	PDFToPPM     string
	GeminiKey    string
	PresetsFile  string
	SessionTTL   time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func LoadConfig() Config {
	cfg := Config{
		UploadDir:    envOr("UPLOAD_DIR", "uploads"),
		OutputDir:    envOr("OUTPUT_DIR", "output"),
		CaptureScale: envFloat("CAPTURE_SCALE"),
		ExportScale:  envFloat("EXPORT_SCALE"),
		PDFToPPM:     os.Getenv("PDFTOPPM"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		PresetsFile:  os.Getenv("PRESETS_FILE"),
	}
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port <= 0 {
		port = 8080
	}
	cfg.Port = port
	ttl, err := time.ParseDuration(os.Getenv("SESSION_TTL"))
	if err != nil || ttl <= 0 {
		ttl = defaultSessionTTL
	}
	cfg.SessionTTL = ttl
	return cfg
}

// ClearFiles removes the files left in the upload and output directories.
// Subdirectories are kept.
func (c Config) ClearFiles() {
	for _, dir := range []string{c.UploadDir, c.OutputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				os.Remove(filepath.Join(dir, entry.Name()))
			}
		}
	}
}

func NewServer(cfg Config) *http.Server {
	os.MkdirAll(cfg.UploadDir, 0755)
	os.MkdirAll(cfg.OutputDir, 0755)

	srv := &Server{
		SessionManager: session.NewSessionManager(),
		UploadDir:      cfg.UploadDir,
		OutputDir:      cfg.OutputDir,
		CaptureScale:   cfg.CaptureScale,
		ExportScale:    cfg.ExportScale,
		PDFToPPM:       cfg.PDFToPPM,
	}

	if gemini, err := ai.NewGemini(context.Background(), cfg.GeminiKey); err == nil {
		srv.AI = gemini
	} else {
		log.Printf("AI features disabled: %v", err)
	}

	if cfg.PresetsFile != "" {
		if presets, err := loadPresets(cfg.PresetsFile); err == nil {
			srv.Presets = presets
		} else {
			log.Printf("Using default presets: %v", err)
		}
	}

	// Reap idle sessions and their files
	go func() {
		ticker := time.NewTicker(cfg.SessionTTL / 3)
		defer ticker.Stop()
		for range ticker.C {
			if n := srv.SessionManager.Reap(cfg.SessionTTL); n > 0 {
				log.Printf("Reaped %d idle sessions", n)
			}
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	return server
}

func loadPresets(path string) (compress.Presets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return compress.LoadPresets(f)
}
