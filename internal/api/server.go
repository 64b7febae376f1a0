package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/pipelines"
	"github.com/7ipolito/goals-vision/internal/playback"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Version        string
	CatalogService catalog.CatalogService
	PlaybackServer playback.PlaybackService
	Runner         *catalog.Runner
	Doctor         *pipelines.CachedDoctor
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string

	// AllowedOrigins are extra browser origins accepted by CORS and the
	// live socket, on top of localhost.
	AllowedOrigins []string
	// LiveMaxSession closes live connections that stay open longer. Zero
	// means no limit.
	LiveMaxSession time.Duration
	// LiveMaxMessage bounds a single live client message in bytes.
	LiveMaxMessage int64
}

func NewServer(cfg ServerConfig) *Server {
	router, live := newRouter(cfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	// Hijacked websocket connections are not tracked by Shutdown.
	httpServer.RegisterOnShutdown(live.closeAll)

	return &Server{
		httpServer: httpServer,
		logger:     cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
