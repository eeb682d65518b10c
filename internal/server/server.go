package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/handiism/suno-downloader/internal/download"
	"github.com/handiism/suno-downloader/internal/progress"
)

// Server timeouts. Writes get long enough for a whole playlist archive.
const (
	ReadHeaderTimeout = 10 * time.Second
	WriteTimeout      = 15 * time.Minute
	IdleTimeout       = 2 * time.Minute
	ShutdownTimeout   = 10 * time.Second
)

// Server serves the downloader API.
type Server struct {
	manager  *download.Manager
	hub      *progress.Hub
	visitors *VisitorStore
	logger   *log.Logger
	origin   string
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigin restricts CORS to origin and allows it credentials. By
// default any origin may call the API without credentials.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// WithHub publishes progress to hub instead of a private one.
func WithHub(hub *progress.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// New creates a Server around manager.
func New(manager *download.Manager, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		manager:  manager,
		hub:      progress.NewHub(progress.DefaultBuffer),
		visitors: NewVisitorStore(visitorTTL),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/playlist/{id}", s.handlePlaylistPage)
	mux.HandleFunc("GET /api/playlist/{id}/all", s.handlePlaylistAll)

	mux.HandleFunc("GET /api/download/song", s.handleSong)
	mux.HandleFunc("GET /api/download/track/{id}", s.handleTrack)
	mux.HandleFunc("POST /api/download/playlist", s.handlePlaylistDownload)
	mux.HandleFunc("GET /api/download/progress/{sessionId}", s.handleProgress)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("DELETE /api/settings", s.handleResetSettings)

	return Chain(mux, Logging(s.logger), Recover(s.logger), CORS(s.origin))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
