package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobStatus_Constants(t *testing.T) {
	// Test that status constants have expected wire values
	require.Equal(t, JobStatus("queued"), StatusQueued)
	require.Equal(t, JobStatus("downloading"), StatusDownloading)
	require.Equal(t, JobStatus("completed"), StatusCompleted)
	require.Equal(t, JobStatus("error"), StatusError)
}

func TestJobStatus_Terminal(t *testing.T) {
	require.False(t, StatusQueued.Terminal())
	require.False(t, StatusDownloading.Terminal())
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusError.Terminal())
}

func TestDownloadJob_JSONHidesInternalFields(t *testing.T) {
	job := &DownloadJob{
		ID:           "dl_1700000000_abcd1234",
		SessionID:    "session-1",
		URL:          "https://youtube.com/watch?v=abc",
		Status:       StatusCompleted,
		ArtifactPath: "/tmp/audiofetch/dl_1700000000_abcd1234.mp3",
		CreatedAt:    time.Now(),
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.NotContains(t, decoded, "ArtifactPath")
	require.NotContains(t, decoded, "artifact_path")
	require.NotContains(t, decoded, "SessionID")
	require.Equal(t, "dl_1700000000_abcd1234", decoded["download_id"])
}

func TestTrackFromVideo(t *testing.T) {
	info := VideoInfo{
		ID:        "abc123",
		Title:     "Test Song",
		Duration:  212,
		Thumbnail: "https://i.ytimg.com/vi/abc123/hq720.jpg",
		Uploader:  "Test Channel",
		URL:       "https://www.youtube.com/watch?v=abc123",
	}

	track := TrackFromVideo(info)
	require.Equal(t, info.ID, track.ID)
	require.Equal(t, info.Title, track.Title)
	require.Equal(t, info.Duration, track.Duration)
	require.Equal(t, info.Thumbnail, track.Thumbnail)
	require.Equal(t, info.Uploader, track.Uploader)
	require.Equal(t, info.URL, track.URL)
	require.WithinDuration(t, time.Now(), track.AddedAt, time.Second)
}
