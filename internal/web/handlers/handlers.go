// Package handlers provides the JSON HTTP handlers for the web interface
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"audiofetch/internal/jobs"
	"audiofetch/internal/playlist"
	"audiofetch/internal/search"
	"audiofetch/internal/web/templates"
	"audiofetch/internal/ytclient"
	"audiofetch/pkg/models"
)

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	registry  *jobs.Registry
	playlists *playlist.Store
	searcher  *search.Service
	client    ytclient.Client
	sessions  *SessionManager
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(registry *jobs.Registry, playlists *playlist.Store, searcher *search.Service, client ytclient.Client, sessions *SessionManager) *Handlers {
	return &Handlers{
		registry:  registry,
		playlists: playlists,
		searcher:  searcher,
		client:    client,
		sessions:  sessions,
		logger:    slog.Default(),
	}
}

// Home serves the single-page UI
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index().Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render index template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Search handles GET /api/search?q=
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, search.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type infoRequest struct {
	URL string `json:"url"`
}

// Info handles POST /api/info: fetch metadata without downloading
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	var req infoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if ytclient.ExtractVideoID(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid video URL")
		return
	}

	info, err := h.client.Resolve(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("Metadata fetch failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

type downloadRequest struct {
	URL string `json:"url"`
}

// Download handles POST /api/download: enqueue an asynchronous job
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := h.sessions.Session(w, r)

	id, err := h.registry.Create(req.URL, sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"download_id": id,
		"status":      models.StatusQueued,
	})
}

// Status handles GET /api/status/{id}
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Status(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "download not found")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Stream handles GET /api/stream/{id}: serve the completed audio artifact
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	file, filename, err := h.registry.OpenArtifact(id)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			writeError(w, http.StatusNotFound, "download not found")
		case errors.Is(err, jobs.ErrNotReady):
			writeError(w, http.StatusBadRequest, "download not complete")
		case errors.Is(err, jobs.ErrMissingArtifact):
			writeError(w, http.StatusNotFound, "audio file not found")
		default:
			h.logger.Error("Failed to open artifact", "download_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	http.ServeContent(w, r, filename, stat.ModTime(), file)
}

type cleanupRequest struct {
	DownloadID string `json:"download_id"`
}

// Cleanup handles POST /api/cleanup: release a job and its artifact.
// Unknown and foreign identifiers are silently ignored.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := h.sessions.Session(w, r)
	h.registry.Cleanup(req.DownloadID, sessionID)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetPlaylist handles GET /api/playlist
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Session(w, r)
	writeJSON(w, http.StatusOK, h.playlists.Get(sessionID))
}

type addTrackRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	Uploader  string `json:"uploader"`
	URL       string `json:"url"`
}

// AddTrack handles POST /api/playlist
func (h *Handlers) AddTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}

	sessionID := h.sessions.Session(w, r)
	index, added := h.playlists.Add(sessionID, models.Track{
		ID:        req.ID,
		Title:     req.Title,
		Duration:  req.Duration,
		Thumbnail: req.Thumbnail,
		Uploader:  req.Uploader,
		URL:       req.URL,
		AddedAt:   time.Now(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"index":           index,
		"already_present": !added,
	})
}

type removeTrackRequest struct {
	ID string `json:"id"`
}

// RemoveTrack handles DELETE /api/playlist
func (h *Handlers) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	var req removeTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := h.sessions.Session(w, r)
	if err := h.playlists.Remove(sessionID, req.ID); err != nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type setCurrentRequest struct {
	ID string `json:"id"`
}

// SetCurrent handles POST /api/playlist/current
func (h *Handlers) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req setCurrentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := h.sessions.Session(w, r)
	index, track, err := h.playlists.SetCurrent(sessionID, req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"current_index": index,
		"track":         track,
	})
}

// NextTrack handles POST /api/playlist/next
func (h *Handlers) NextTrack(w http.ResponseWriter, r *http.Request) {
	h.moveCursor(w, r, h.playlists.Next)
}

// PrevTrack handles POST /api/playlist/prev
func (h *Handlers) PrevTrack(w http.ResponseWriter, r *http.Request) {
	h.moveCursor(w, r, h.playlists.Prev)
}

func (h *Handlers) moveCursor(w http.ResponseWriter, r *http.Request, move func(string) (int, *models.Track, error)) {
	sessionID := h.sessions.Session(w, r)

	index, track, err := move(sessionID)
	if err != nil {
		// Cursor moves on an empty playlist are reported, not fatal
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"current_index": index,
		"track":         track,
	})
}

// ClearPlaylist handles POST /api/playlist/clear
func (h *Handlers) ClearPlaylist(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Session(w, r)
	h.playlists.Clear(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeJSON decodes the request body into dst with a bounded reader
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
