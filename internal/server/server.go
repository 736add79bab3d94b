package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetcatalog/internal/constants"
	"assetcatalog/internal/logger"
)

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	app        *App
	logger     *logger.Logger
}

// NewServer builds the mux, wraps it in the ambient middleware chain, and
// starts the scanner's optional periodic pass when configured.
func NewServer(app *App, addr string) *Server {
	mux := http.NewServeMux()

	s := &Server{app: app, logger: app.Logger()}
	s.registerRoutes(mux)

	handler := Chain(mux, RequestID, SecurityHeaders, GzipCompress)

	if mins := app.Config().ScanIntervalMins; mins > 0 {
		app.Services.Scanner.Start(time.Duration(mins) * time.Minute)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  0, // streaming uploads
		WriteTimeout: 0, // streaming downloads
		IdleTimeout:  constants.HTTPIdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/assets", s.handleAssetsCollection)
	mux.HandleFunc("/api/assets/seed", s.handleSeed)
	mux.HandleFunc("/api/assets/from-hash", s.handleFromHash)
	mux.HandleFunc("/api/assets/hash/", s.handleHashExists)
	mux.HandleFunc("/api/assets/", s.handleAssetItem)

	mux.HandleFunc("/api/tags", s.handleTags)

	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/monitoring", s.handleMonitoring)
}

// Start runs the server and blocks until a shutdown signal arrives.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-stop:
		s.logger.Info("received signal %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeoutSecs*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error: %v", err)
	}

	s.app.Services.Scanner.Stop()

	if err := s.app.DB().Close(); err != nil {
		s.logger.Error("error closing database: %v", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
