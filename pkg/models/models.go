// Package models defines the data structures used throughout the application
package models

import (
	"time"
)

// JobStatus represents the current status of a download job
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
)

// Terminal reports whether the status is final for a job
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// VideoInfo describes a video on the hosting platform. It is produced by the
// extraction client and copied into job and playlist records as needed.
type VideoInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"` // seconds
	Thumbnail string `json:"thumbnail"`
	Uploader  string `json:"uploader"`
	URL       string `json:"url"`
}

// DownloadJob represents a tracked asynchronous download request. The
// artifact path is internal state and never serialized to clients.
type DownloadJob struct {
	ID           string     `json:"download_id"`
	SessionID    string     `json:"-"`
	URL          string     `json:"url"`
	Status       JobStatus  `json:"status"`
	Progress     float64    `json:"progress"`
	Speed        float64    `json:"-"` // bytes per second
	ErrorMessage string     `json:"error,omitempty"`
	ArtifactPath string     `json:"-"`
	Info         *VideoInfo `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// JobView is the client-facing projection of a DownloadJob
type JobView struct {
	ID        string    `json:"download_id"`
	Status    JobStatus `json:"status"`
	URL       string    `json:"url"`
	Progress  float64   `json:"progress"`
	Speed     string    `json:"speed,omitempty"`
	Title     string    `json:"title,omitempty"`
	Duration  int64     `json:"duration,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Uploader  string    `json:"uploader,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Track is a playlist entry derived from a VideoInfo
type Track struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Duration  int64     `json:"duration"`
	Thumbnail string    `json:"thumbnail"`
	Uploader  string    `json:"uploader"`
	URL       string    `json:"url"`
	AddedAt   time.Time `json:"added_at"`
}

// HistoryEntry records a single play event, newest first in the log
type HistoryEntry struct {
	PlayedAt time.Time `json:"played_at"`
	TrackID  string    `json:"track_id"`
	Title    string    `json:"title"`
}

// PlaylistState is the client-facing snapshot of one session's playlist
type PlaylistState struct {
	Tracks       []Track        `json:"tracks"`
	CurrentIndex int            `json:"current_index"`
	History      []HistoryEntry `json:"history"`
}

// TrackFromVideo builds a playlist track from extraction metadata
func TrackFromVideo(info VideoInfo) Track {
	return Track{
		ID:        info.ID,
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
		Uploader:  info.Uploader,
		URL:       info.URL,
		AddedAt:   time.Now(),
	}
}
