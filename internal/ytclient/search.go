package ytclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"audiofetch/pkg/models"
)

const searchEndpoint = "https://www.youtube.com/youtubei/v1/search?prettyPrint=false"

// searchRequest is the platform's internal search API request body
type searchRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
			GL            string `json:"gl"`
		} `json:"client"`
	} `json:"context"`
	Query string `json:"query"`
}

// searchResponse models only the slice of the response we read
type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	OwnerText struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"ownerText"`
	Thumbnail struct {
		Thumbnails []struct {
			URL   string `json:"url"`
			Width uint   `json:"width"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

// SearchTop queries the platform's search endpoint and returns up to limit
// video results. Non-video shelf entries (channels, playlists, ads) are
// skipped.
func (y *YouTube) SearchTop(ctx context.Context, query string, limit int) ([]models.VideoInfo, error) {
	reqBody := searchRequest{Query: query}
	reqBody.Context.Client.ClientName = "WEB"
	reqBody.Context.Client.ClientVersion = "2.20240620.05.00"
	reqBody.Context.Client.HL = "en"
	reqBody.Context.Client.GL = "US"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", searchEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgents[0])

	httpClient := &http.Client{Timeout: y.httpTimeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ExtractionError{Op: "search", Message: "search request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{Op: "search", Message: fmt.Sprintf("search returned status %d", resp.StatusCode)}
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &ExtractionError{Op: "search", Message: "failed to decode search response", Err: err}
	}

	results := collectSearchResults(&searchResp, limit)
	y.logger.Debug("Platform search completed", "query", query, "results", len(results))
	return results, nil
}

func collectSearchResults(resp *searchResponse, limit int) []models.VideoInfo {
	results := []models.VideoInfo{}
	sections := resp.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			vr := item.VideoRenderer
			if vr == nil || vr.VideoID == "" {
				continue
			}

			info := models.VideoInfo{
				ID:       vr.VideoID,
				Duration: parseDurationText(vr.LengthText.SimpleText),
				URL:      "https://www.youtube.com/watch?v=" + vr.VideoID,
			}
			if len(vr.Title.Runs) > 0 {
				info.Title = vr.Title.Runs[0].Text
			}
			if len(vr.OwnerText.Runs) > 0 {
				info.Uploader = vr.OwnerText.Runs[0].Text
			}
			var bestWidth uint
			for _, t := range vr.Thumbnail.Thumbnails {
				if t.URL != "" && t.Width >= bestWidth {
					info.Thumbnail = t.URL
					bestWidth = t.Width
				}
			}

			results = append(results, info)
			if limit > 0 && len(results) >= limit {
				return results
			}
		}
	}
	return results
}

// parseDurationText converts "3:32" or "1:02:45" into seconds. Live streams
// have no length text and yield zero.
func parseDurationText(text string) int64 {
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0
	}

	var seconds int64
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0
		}
		seconds = seconds*60 + n
	}
	return seconds
}
