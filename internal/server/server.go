// Package server provides the HTTP server for the pose overlay service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/obitec/bodyway/internal/channel"
	"github.com/obitec/bodyway/internal/server/api"
	"github.com/obitec/bodyway/internal/session"
	"github.com/obitec/bodyway/internal/store"
)

// Session is the part of a session the server needs.
type Session interface {
	channel.Controller
	FrameSource
	OverlaySource
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   Session
	Logger    *zap.Logger
	StreamFPS int
}

// Server represents the HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	logger  *zap.Logger
	channel *channel.Handler
	http    *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: config.Logger,
	}
	if config.Session != nil {
		s.channel = channel.NewHandler(config.Session, config.Logger)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	if s.config.Store != nil {
		stylesHandler := api.NewStylesHandler(s.config.Store)
		s.mux.Handle("/api/styles", stylesHandler)
		s.mux.Handle("/api/styles/", stylesHandler)

		variants := session.StoreVariants{Styles: s.config.Store.Styles()}
		snapshotsHandler := api.NewSnapshotsHandler(s.config.Store, variants)
		s.mux.Handle("/api/snapshots", snapshotsHandler)
		s.mux.Handle("/api/snapshots/", snapshotsHandler)
	}

	if s.config.Session != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Session, s.config.StreamFPS))
		s.mux.Handle("/api/overlay", NewOverlayHandler(s.config.Session, s.channel, s.logger))
		s.mux.Handle("/api/channel/"+channel.Name, api.NewChannelHandler(s.channel))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
