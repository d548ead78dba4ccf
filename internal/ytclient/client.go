// Package ytclient adapts the video-hosting platform behind a small
// capability interface: resolve a URL to metadata, download its audio, and
// run a top-N search. Retries and anti-blocking header rotation live here.
package ytclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	"audiofetch/pkg/models"

	"github.com/kkdai/youtube/v2"
)

// ProgressFunc receives advisory transfer updates during a download
type ProgressFunc func(percent float64, bytesPerSecond float64)

// Client defines the extraction operations used by the rest of the service
//
//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks
type Client interface {
	Resolve(ctx context.Context, rawURL string) (*models.VideoInfo, error)
	Download(ctx context.Context, rawURL, destPath string, onProgress ProgressFunc) (*models.VideoInfo, error)
	SearchTop(ctx context.Context, query string, limit int) ([]models.VideoInfo, error)
}

// ExtractionError represents a platform-side failure (blocked video,
// missing formats, geo-restriction) surfaced as a typed error instead of a
// crash or a raw transport error.
type ExtractionError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface for ExtractionError
func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]+)`),
}

// ExtractVideoID pulls the video identifier out of the common URL forms.
// It returns an empty string when the URL matches none of them.
func ExtractVideoID(rawURL string) string {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1]
		}
	}
	return ""
}

// userAgents are rotated across retry attempts to reduce platform blocking
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxRetries  = 3
)

// YouTube is the kkdai/youtube-backed implementation of Client
type YouTube struct {
	httpTimeout time.Duration
	maxRetries  int
	logger      *slog.Logger
}

// New creates a new extraction client
func New() *YouTube {
	return &YouTube{
		httpTimeout: defaultHTTPTimeout,
		maxRetries:  defaultMaxRetries,
		logger:      slog.Default(),
	}
}

// userAgentTransport stamps a fixed User-Agent on every request
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.agent)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// newPlatformClient builds a platform client for a single attempt, rotating
// the user agent by attempt number
func (y *YouTube) newPlatformClient(attempt int) *youtube.Client {
	agent := userAgents[attempt%len(userAgents)]
	return &youtube.Client{
		HTTPClient: &http.Client{
			Timeout:   y.httpTimeout,
			Transport: &userAgentTransport{agent: agent},
		},
	}
}

// Resolve fetches metadata for a video URL without downloading anything
func (y *YouTube) Resolve(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	if ExtractVideoID(rawURL) == "" {
		return nil, &ExtractionError{Op: "resolve", Message: fmt.Sprintf("unrecognized video URL: %s", rawURL)}
	}

	var lastErr error
	for attempt := 0; attempt <= y.maxRetries; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		client := y.newPlatformClient(attempt)
		video, err := client.GetVideoContext(ctx, rawURL)
		if err == nil {
			return videoInfoFrom(video), nil
		}

		lastErr = err
		if !isRetryable(err) {
			break
		}
		y.logger.Warn("Metadata fetch failed, will retry", "url", rawURL, "attempt", attempt+1, "error", err)
	}

	return nil, classify("resolve", lastErr)
}

// Download resolves the URL, selects the best audio-only format and
// materializes the bytes at destPath. Progress callbacks are advisory and
// may be dropped. On any failure the partial file is removed.
func (y *YouTube) Download(ctx context.Context, rawURL, destPath string, onProgress ProgressFunc) (*models.VideoInfo, error) {
	if ExtractVideoID(rawURL) == "" {
		return nil, &ExtractionError{Op: "download", Message: fmt.Sprintf("unrecognized video URL: %s", rawURL)}
	}

	var lastErr error
	for attempt := 0; attempt <= y.maxRetries; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
			y.logger.Info("Retrying audio download", "url", rawURL, "attempt", attempt+1)
		}

		client := y.newPlatformClient(attempt)
		info, err := y.downloadOnce(ctx, client, rawURL, destPath, onProgress)
		if err == nil {
			return info, nil
		}

		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	return nil, classify("download", lastErr)
}

func (y *YouTube) downloadOnce(ctx context.Context, client *youtube.Client, rawURL, destPath string, onProgress ProgressFunc) (info *models.VideoInfo, err error) {
	video, err := client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	format, err := selectAudioFormat(video)
	if err != nil {
		return nil, err
	}

	stream, size, err := client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer func() {
		file.Close()
		if err != nil {
			// Never leave a partial artifact behind
			os.Remove(destPath)
		}
	}()

	if _, err = copyWithProgress(ctx, file, stream, size, onProgress); err != nil {
		return nil, err
	}

	return videoInfoFrom(video), nil
}

// selectAudioFormat picks the highest-bitrate format that carries audio
func selectAudioFormat(video *youtube.Video) (*youtube.Format, error) {
	candidates := video.Formats.WithAudioChannels()
	if len(candidates) == 0 {
		return nil, &ExtractionError{Op: "download", Message: "no audio formats available"}
	}

	best := &candidates[0]
	for i := range candidates {
		if bitrateFor(&candidates[i]) > bitrateFor(best) {
			best = &candidates[i]
		}
	}
	return best, nil
}

func bitrateFor(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

// videoInfoFrom maps the platform video record into our own metadata shape
func videoInfoFrom(video *youtube.Video) *models.VideoInfo {
	return &models.VideoInfo{
		ID:        video.ID,
		Title:     video.Title,
		Duration:  int64(video.Duration.Seconds()),
		Thumbnail: bestThumbnail(video.Thumbnails),
		Uploader:  video.Author,
		URL:       "https://www.youtube.com/watch?v=" + video.ID,
	}
}

func bestThumbnail(thumbnails youtube.Thumbnails) string {
	var best string
	var bestWidth uint
	for _, t := range thumbnails {
		if t.URL != "" && t.Width >= bestWidth {
			best = t.URL
			bestWidth = t.Width
		}
	}
	return best
}

// backoff sleeps for 2^attempt seconds or returns early on cancellation
func backoff(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(1<<uint(attempt)) * time.Second):
		return nil
	}
}

// isRetryable reports whether another attempt could plausibly succeed.
// Playability failures are permanent for a given video.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return false
	}
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return false
	}
	return true
}

// classify wraps an upstream failure into a typed ExtractionError
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	switch {
	case errors.As(err, &statusErr):
		return &ExtractionError{Op: op, Message: statusErr.Reason, Err: err}
	case errors.Is(err, youtube.ErrVideoPrivate):
		return &ExtractionError{Op: op, Message: "video is private", Err: err}
	case errors.Is(err, youtube.ErrLoginRequired):
		return &ExtractionError{Op: op, Message: "video requires login", Err: err}
	case errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return &ExtractionError{Op: op, Message: "video is not playable", Err: err}
	default:
		return &ExtractionError{Op: op, Message: "extraction failed", Err: err}
	}
}
