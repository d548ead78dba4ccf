package ytclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "watch URL",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "short URL",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "embed URL",
			url:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "shorts URL",
			url:  "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch URL with extra params",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "unrelated URL",
			url:  "https://example.com/watch?v=abc",
			want: "",
		},
		{
			name: "empty",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("boom")
	err := &ExtractionError{Op: "resolve", Message: "video is private", Err: cause}

	require.Contains(t, err.Error(), "resolve")
	require.Contains(t, err.Error(), "video is private")
	require.ErrorIs(t, err, cause)

	bare := &ExtractionError{Op: "search", Message: "search returned status 429"}
	require.Equal(t, "search: search returned status 429", bare.Error())
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify("resolve", nil))

	var extractionErr *ExtractionError

	err := classify("resolve", youtube.ErrVideoPrivate)
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "video is private", extractionErr.Message)

	// Already-typed errors pass through unchanged
	typed := &ExtractionError{Op: "download", Message: "no audio formats available"}
	require.Equal(t, typed, classify("download", typed))

	err = classify("download", errors.New("connection reset"))
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "extraction failed", extractionErr.Message)
}

func TestIsRetryable(t *testing.T) {
	require.False(t, isRetryable(nil))
	require.False(t, isRetryable(context.Canceled))
	require.False(t, isRetryable(youtube.ErrVideoPrivate))
	require.False(t, isRetryable(youtube.ErrLoginRequired))
	require.True(t, isRetryable(errors.New("connection reset")))
}

func TestSelectAudioFormat(t *testing.T) {
	video := &youtube.Video{
		Formats: youtube.FormatList{
			{ItagNo: 18, Bitrate: 500_000, AudioChannels: 2},
			{ItagNo: 140, Bitrate: 130_000, AudioChannels: 2},
			{ItagNo: 137, Bitrate: 4_000_000, AudioChannels: 0}, // video only
			{ItagNo: 251, Bitrate: 700_000, AudioChannels: 2},
		},
	}

	format, err := selectAudioFormat(video)
	require.NoError(t, err)
	require.Equal(t, 251, format.ItagNo)
}

func TestSelectAudioFormat_NoAudio(t *testing.T) {
	video := &youtube.Video{
		Formats: youtube.FormatList{
			{ItagNo: 137, Bitrate: 4_000_000, AudioChannels: 0},
		},
	}

	_, err := selectAudioFormat(video)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "no audio formats available", extractionErr.Message)
}

func TestBestThumbnail(t *testing.T) {
	thumbs := youtube.Thumbnails{
		{URL: "https://i.ytimg.com/small.jpg", Width: 120},
		{URL: "https://i.ytimg.com/large.jpg", Width: 1280},
		{URL: "https://i.ytimg.com/medium.jpg", Width: 640},
	}
	require.Equal(t, "https://i.ytimg.com/large.jpg", bestThumbnail(thumbs))
	require.Equal(t, "", bestThumbnail(nil))
}

func TestParseDurationText(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"3:32", 212},
		{"1:02:45", 3765},
		{"0:59", 59},
		{"", 0},
		{"LIVE", 0},
		{"1:2:3:4", 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, parseDurationText(tt.text), "text %q", tt.text)
	}
}

func TestCollectSearchResults(t *testing.T) {
	raw := `{
		"contents": {
			"twoColumnSearchResultsRenderer": {
				"primaryContents": {
					"sectionListRenderer": {
						"contents": [{
							"itemSectionRenderer": {
								"contents": [
									{"videoRenderer": {
										"videoId": "abc123",
										"title": {"runs": [{"text": "First Song"}]},
										"lengthText": {"simpleText": "3:32"},
										"ownerText": {"runs": [{"text": "Channel One"}]},
										"thumbnail": {"thumbnails": [
											{"url": "https://i.ytimg.com/vi/abc123/default.jpg", "width": 120},
											{"url": "https://i.ytimg.com/vi/abc123/hq720.jpg", "width": 720}
										]}
									}},
									{"shelfRenderer": {}},
									{"videoRenderer": {
										"videoId": "def456",
										"title": {"runs": [{"text": "Second Song"}]},
										"lengthText": {"simpleText": "4:05"},
										"ownerText": {"runs": [{"text": "Channel Two"}]},
										"thumbnail": {"thumbnails": []}
									}}
								]
							}
						}]
					}
				}
			}
		}
	}`

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	results := collectSearchResults(&resp, 10)
	require.Len(t, results, 2)
	require.Equal(t, "abc123", results[0].ID)
	require.Equal(t, "First Song", results[0].Title)
	require.Equal(t, int64(212), results[0].Duration)
	require.Equal(t, "Channel One", results[0].Uploader)
	require.Equal(t, "https://i.ytimg.com/vi/abc123/hq720.jpg", results[0].Thumbnail)
	require.Equal(t, "https://www.youtube.com/watch?v=abc123", results[0].URL)

	// Limit is honored
	limited := collectSearchResults(&resp, 1)
	require.Len(t, limited, 1)
}

func TestResolve_UnrecognizedURL(t *testing.T) {
	client := New()

	_, err := client.Resolve(context.Background(), "https://example.com/nope")
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "resolve", extractionErr.Op)
}

func TestDownload_UnrecognizedURL(t *testing.T) {
	client := New()

	_, err := client.Download(context.Background(), "not-a-url", "/tmp/out.mp3", nil)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "download", extractionErr.Op)
}

func TestCopyWithProgress(t *testing.T) {
	src := bytes.Repeat([]byte("a"), 100_000)
	var dst bytes.Buffer

	var finalPercent float64
	n, err := copyWithProgress(context.Background(), &dst, bytes.NewReader(src), int64(len(src)), func(percent, speed float64) {
		finalPercent = percent
	})

	require.NoError(t, err)
	require.Equal(t, int64(len(src)), n)
	require.Equal(t, src, dst.Bytes())
	require.Equal(t, 100.0, finalPercent)
}

func TestCopyWithProgress_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	_, err := copyWithProgress(ctx, &dst, bytes.NewReader([]byte("data")), 4, nil)
	require.ErrorIs(t, err, context.Canceled)
}
