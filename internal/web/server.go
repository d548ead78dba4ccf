// Package web provides the HTTP server and routing
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"audiofetch/internal/config"
	"audiofetch/internal/jobs"
	"audiofetch/internal/playlist"
	"audiofetch/internal/search"
	"audiofetch/internal/web/handlers"
	"audiofetch/internal/ytclient"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	handlers *handlers.Handlers
	logger   *slog.Logger
}

// NewServer creates a new HTTP server wired to the given collaborators
func NewServer(cfg *config.Config, client ytclient.Client, registry *jobs.Registry, playlists *playlist.Store, searcher *search.Service) *Server {
	sessions := handlers.NewSessionManager(cfg.SessionSecret)
	h := handlers.NewHandlers(registry, playlists, searcher, client, sessions)

	mux := http.NewServeMux()

	// Routes
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("POST /api/info", h.Info)
	mux.HandleFunc("POST /api/download", h.Download)
	mux.HandleFunc("GET /api/status/{id}", h.Status)
	mux.HandleFunc("GET /api/stream/{id}", h.Stream)
	mux.HandleFunc("POST /api/cleanup", h.Cleanup)

	// Playlist endpoints
	mux.HandleFunc("GET /api/playlist", h.GetPlaylist)
	mux.HandleFunc("POST /api/playlist", h.AddTrack)
	mux.HandleFunc("DELETE /api/playlist", h.RemoveTrack)
	mux.HandleFunc("POST /api/playlist/current", h.SetCurrent)
	mux.HandleFunc("POST /api/playlist/next", h.NextTrack)
	mux.HandleFunc("POST /api/playlist/prev", h.PrevTrack)
	mux.HandleFunc("POST /api/playlist/clear", h.ClearPlaylist)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server:   server,
		handlers: h,
		logger:   slog.Default(),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		"addr", s.server.Addr,
		"url", fmt.Sprintf("http://localhost%s", s.server.Addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
