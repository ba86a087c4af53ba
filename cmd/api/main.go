// Package main API.
//
// go-editpdf provides a REST API for annotating PDF and image files and
// exporting them as flattened PDFs.
//
//	Schemes: http
//	BasePath: /
//	Version: 1.0.0
//	Host: localhost:8080
//
//	Consumes:
//	- application/json
//	- multipart/form-data
//
//	Produces:
//	- application/json
//	- application/pdf
//	- application/zip
//	- image/png
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-editpdf/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := server.LoadConfig()
	// Files from a previous run belong to sessions that no longer exist.
	cfg.ClearFiles()

	if err := run(cfg); err != nil {
		log.Fatalf("http server error: %v", err)
	}
	log.Println("Graceful shutdown complete.")
}

// run serves until SIGINT or SIGTERM, then drains requests and clears the
// session files.
func run(cfg server.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg)
	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	stop()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Println("Cleaning directories")
	cfg.ClearFiles()
	return nil
}
