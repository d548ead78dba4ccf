// Package search provides query handling with a time-bounded in-memory
// result cache in front of the extraction client.
package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"audiofetch/internal/ytclient"
	"audiofetch/pkg/models"
)

// ErrQueryTooShort is returned when the trimmed query has fewer than two characters
var ErrQueryTooShort = errors.New("query must be at least 2 characters")

const (
	// DefaultLimit is the number of results requested per search
	DefaultLimit = 10

	officialAPIBaseURL = "https://www.googleapis.com/youtube/v3"
)

type cacheEntry struct {
	fetchedAt time.Time
	results   []models.VideoInfo
}

// Service resolves search queries through a deterministic fallback chain:
// the official search API when a key is configured, then the extraction
// client, then an empty result set. It never substitutes canned results.
type Service struct {
	client     ytclient.Client
	apiKey     string
	apiBaseURL string
	httpClient *http.Client
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewService creates a search service. apiKey may be empty, in which case
// the official API step is skipped entirely.
func NewService(client ytclient.Client, apiKey string, ttl time.Duration) *Service {
	return &Service{
		client:     client,
		apiKey:     apiKey,
		apiBaseURL: officialAPIBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		ttl:        ttl,
		logger:     slog.Default(),
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}
}

// Search returns results for the query, serving a fresh cache entry when
// one exists. Only non-empty upstream results are cached.
func (s *Service) Search(ctx context.Context, query string) ([]models.VideoInfo, error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 2 {
		return nil, ErrQueryTooShort
	}

	key := cacheKey(trimmed)

	if results, ok := s.cached(key); ok {
		s.logger.Debug("Search cache hit", "query", trimmed)
		return results, nil
	}

	results := s.fetch(ctx, trimmed)
	if len(results) > 0 {
		s.mu.Lock()
		s.cache[key] = cacheEntry{fetchedAt: s.now(), results: results}
		s.mu.Unlock()
	}

	return results, nil
}

// cached returns a copy of the entry's results when it is within the
// expiry window. Stale entries are treated as absent.
func (s *Service) cached(key string) ([]models.VideoInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.cache[key]
	if !exists || s.now().Sub(entry.fetchedAt) >= s.ttl {
		return nil, false
	}

	results := make([]models.VideoInfo, len(entry.results))
	copy(results, entry.results)
	return results, true
}

// fetch runs the fallback chain. Failures degrade to the next step and
// finally to an empty result set, never to fabricated results.
func (s *Service) fetch(ctx context.Context, query string) []models.VideoInfo {
	if s.apiKey != "" {
		results, err := s.officialSearch(ctx, query)
		if err != nil {
			s.logger.Warn("Official search API failed, falling back to extraction client", "query", query, "error", err)
		} else if len(results) > 0 {
			return results
		}
	}

	results, err := s.client.SearchTop(ctx, query, DefaultLimit)
	if err != nil {
		s.logger.Warn("Extraction client search failed", "query", query, "error", err)
		return []models.VideoInfo{}
	}
	return results
}

// officialSearchResponse models the slice of the Data API response we read
type officialSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// officialSearch queries the hosting platform's official search API
func (s *Service) officialSearch(ctx context.Context, query string) ([]models.VideoInfo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", DefaultLimit))
	params.Set("q", query)
	params.Set("key", s.apiKey)

	endpoint := fmt.Sprintf("%s/search?%s", s.apiBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var apiResp officialSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]models.VideoInfo, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, models.VideoInfo{
			ID:        item.ID.VideoID,
			Title:     item.Snippet.Title,
			Thumbnail: item.Snippet.Thumbnails.High.URL,
			Uploader:  item.Snippet.ChannelTitle,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}

	return results, nil
}

// cacheKey hashes the lowercased, whitespace-collapsed query
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
