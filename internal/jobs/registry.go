// Package jobs implements the download job registry and the per-job
// orchestration that drives a request through its lifecycle.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audiofetch/internal/ytclient"
	"audiofetch/pkg/models"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no job exists for the given identifier
	ErrNotFound = errors.New("download job not found")
	// ErrNotReady is returned when the job has not completed yet
	ErrNotReady = errors.New("download not complete")
	// ErrMissingArtifact is returned when the recorded artifact no longer exists on disk
	ErrMissingArtifact = errors.New("audio file not found")
	// ErrEmptyURL is returned when a download is requested without a URL
	ErrEmptyURL = errors.New("url is required")
)

// DefaultDownloadTimeout bounds a single download from start to artifact
const DefaultDownloadTimeout = 30 * time.Minute

// Registry is the single source of truth for in-flight and completed
// download jobs. Each job is created and exclusively progressed by one
// goroutine; the map itself is guarded for concurrent handler access.
type Registry struct {
	client          ytclient.Client
	tempDir         string
	downloadTimeout time.Duration
	logger          *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*models.DownloadJob
}

// NewRegistry creates a new job registry storing artifacts under tempDir
func NewRegistry(client ytclient.Client, tempDir string) *Registry {
	return &Registry{
		client:          client,
		tempDir:         tempDir,
		downloadTimeout: DefaultDownloadTimeout,
		logger:          slog.Default(),
		jobs:            make(map[string]*models.DownloadJob),
	}
}

// Create validates the URL, inserts a queued job record and spawns the
// download goroutine. It returns immediately; callers observe progress by
// polling Status.
func (r *Registry) Create(url, sessionID string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", ErrEmptyURL
	}

	id := fmt.Sprintf("dl_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
	job := &models.DownloadJob{
		ID:        id,
		SessionID: sessionID,
		URL:       url,
		Status:    models.StatusQueued,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[id] = job
	r.mu.Unlock()

	go r.process(id, url)

	r.logger.Info("Download job created", "download_id", id, "url", url)
	return id, nil
}

// process drives one job from queued to a terminal state. It is the only
// writer of the job's mutable fields until that terminal state is reached.
func (r *Registry) process(id, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.downloadTimeout)
	defer cancel()

	artifactPath := filepath.Join(r.tempDir, id+".mp3")

	r.update(id, func(job *models.DownloadJob) {
		now := time.Now()
		job.Status = models.StatusDownloading
		job.StartedAt = &now
	})

	info, err := r.client.Download(ctx, url, artifactPath, func(percent, bytesPerSecond float64) {
		r.update(id, func(job *models.DownloadJob) {
			if job.Status != models.StatusDownloading {
				return
			}
			job.Progress = percent
			job.Speed = bytesPerSecond
		})
	})

	if err != nil {
		r.logger.Error("Download job failed", "download_id", id, "url", url, "error", err)
		r.update(id, func(job *models.DownloadJob) {
			now := time.Now()
			job.Status = models.StatusError
			job.ErrorMessage = err.Error()
			job.Speed = 0
			job.CompletedAt = &now
		})
		return
	}

	completed := r.update(id, func(job *models.DownloadJob) {
		now := time.Now()
		job.Status = models.StatusCompleted
		job.Progress = 100.0
		job.Speed = 0
		job.Info = info
		job.ArtifactPath = artifactPath
		job.CompletedAt = &now
	})

	if !completed {
		// Job was cleaned up mid-download, the artifact has no owner left
		if removeErr := os.Remove(artifactPath); removeErr != nil && !os.IsNotExist(removeErr) {
			r.logger.Warn("Failed to remove orphaned artifact", "download_id", id, "error", removeErr)
		}
		return
	}

	r.logger.Info("Download job completed", "download_id", id, "title", info.Title, "artifact", artifactPath)
}

// update applies fn to the job under the lock, reporting whether the job
// still existed
func (r *Registry) update(id string, fn func(*models.DownloadJob)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return false
	}
	fn(job)
	return true
}

// Status returns a sanitized view of the job. The artifact path is never
// exposed.
func (r *Registry) Status(id string) (*models.JobView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, ErrNotFound
	}

	view := &models.JobView{
		ID:       job.ID,
		Status:   job.Status,
		URL:      job.URL,
		Progress: job.Progress,
		Error:    job.ErrorMessage,
	}
	if job.Status == models.StatusDownloading && job.Speed > 0 {
		view.Speed = humanize.Bytes(uint64(job.Speed)) + "/s"
	}
	if job.Info != nil {
		view.Title = job.Info.Title
		view.Duration = job.Info.Duration
		view.Thumbnail = job.Info.Thumbnail
		view.Uploader = job.Info.Uploader
	}
	return view, nil
}

// OpenArtifact opens the completed job's audio file for streaming and
// returns a suggested download filename derived from the title. The
// artifact's existence is re-checked at open time so a vanished file is
// reported rather than served.
func (r *Registry) OpenArtifact(id string) (*os.File, string, error) {
	r.mu.RLock()
	job, exists := r.jobs[id]
	var status models.JobStatus
	var path, title string
	if exists {
		status = job.Status
		path = job.ArtifactPath
		if job.Info != nil {
			title = job.Info.Title
		}
	}
	r.mu.RUnlock()

	if !exists {
		return nil, "", ErrNotFound
	}
	if status != models.StatusCompleted {
		return nil, "", ErrNotReady
	}

	file, err := os.Open(path)
	if err != nil {
		r.logger.Warn("Artifact missing for completed job", "download_id", id, "path", path, "error", err)
		return nil, "", ErrMissingArtifact
	}

	return file, suggestedFilename(title), nil
}

// Cleanup removes the job and best-effort deletes its artifact. It is a
// no-op for unknown identifiers and for jobs owned by another session, and
// is idempotent.
func (r *Registry) Cleanup(id, sessionID string) {
	r.mu.Lock()
	job, exists := r.jobs[id]
	if !exists || job.SessionID != sessionID {
		r.mu.Unlock()
		return
	}
	delete(r.jobs, id)
	path := job.ArtifactPath
	r.mu.Unlock()

	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("Failed to delete artifact during cleanup", "download_id", id, "path", path, "error", err)
		return
	}
	r.logger.Info("Cleaned up download job", "download_id", id)
}

// Shutdown best-effort deletes every artifact still referenced by a live
// registry entry. Called on process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		if job.ArtifactPath != "" {
			paths = append(paths, job.ArtifactPath)
		}
	}
	r.jobs = make(map[string]*models.DownloadJob)
	r.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to remove artifact at shutdown", "path", path, "error", err)
		}
	}

	if len(paths) > 0 {
		r.logger.Info("Removed remaining artifacts at shutdown", "count", len(paths))
	}
}

// suggestedFilename builds a safe attachment name from the video title
func suggestedFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "audio.mp3"
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(title) + ".mp3"
}
