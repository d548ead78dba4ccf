package ytclient

import (
	"context"
	"fmt"
	"io"
	"time"
)

// SpeedHistory implements wget-style speed smoothing using a ring buffer
type SpeedHistory struct {
	samples    []SpeedSample
	pos        int
	size       int
	totalBytes int64
	totalTime  float64
}

type SpeedSample struct {
	bytes int64
	time  float64
}

const (
	SPEED_HISTORY_SIZE  = 20   // Number of samples in ring buffer (wget uses 20)
	SAMPLE_MIN_DURATION = 0.15 // Minimum 150ms between samples (wget default)
)

// NewSpeedHistory creates a new speed history tracker
func NewSpeedHistory() *SpeedHistory {
	return &SpeedHistory{
		samples: make([]SpeedSample, SPEED_HISTORY_SIZE),
		pos:     0,
		size:    0,
	}
}

// AddSample adds a new speed sample to the ring buffer
func (sh *SpeedHistory) AddSample(bytes int64, duration float64) {
	if duration < SAMPLE_MIN_DURATION {
		return // Don't add samples that are too short
	}

	// Remove the oldest sample if we're at capacity
	if sh.size == SPEED_HISTORY_SIZE {
		oldSample := sh.samples[sh.pos]
		sh.totalBytes -= oldSample.bytes
		sh.totalTime -= oldSample.time
	} else {
		sh.size++
	}

	sh.samples[sh.pos] = SpeedSample{
		bytes: bytes,
		time:  duration,
	}
	sh.totalBytes += bytes
	sh.totalTime += duration

	sh.pos = (sh.pos + 1) % SPEED_HISTORY_SIZE
}

// CalculateSpeed returns the smoothed transfer speed in bytes per second
func (sh *SpeedHistory) CalculateSpeed(recentBytes int64, recentTime float64) float64 {
	if sh.size == 0 && recentTime <= 0 {
		return 0
	}

	totalBytes := sh.totalBytes + recentBytes
	totalTime := sh.totalTime + recentTime

	if totalTime <= 0 {
		return 0
	}

	return float64(totalBytes) / totalTime
}

// copyWithProgress copies the audio stream to dst, reporting smoothed
// progress through onProgress roughly every 500ms. The total size may be
// zero when the platform does not report a content length, in which case
// the percentage stays at zero and only the rate is reported.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, onProgress ProgressFunc) (int64, error) {
	buffer := make([]byte, 32*1024) // 32KB buffer
	var totalRead int64

	speedHistory := NewSpeedHistory()
	lastUpdate := time.Now()
	lastSampleTime := lastUpdate
	var lastSampleBytes int64

	for {
		select {
		case <-ctx.Done():
			return totalRead, ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			_, writeErr := dst.Write(buffer[:n])
			if writeErr != nil {
				return totalRead, fmt.Errorf("failed to write to file: %w", writeErr)
			}

			totalRead += int64(n)

			now := time.Now()
			if now.Sub(lastUpdate) >= 500*time.Millisecond {
				timeSinceSample := now.Sub(lastSampleTime).Seconds()
				if timeSinceSample >= SAMPLE_MIN_DURATION {
					bytesSinceSample := totalRead - lastSampleBytes
					speedHistory.AddSample(bytesSinceSample, timeSinceSample)
					lastSampleTime = now
					lastSampleBytes = totalRead
				}

				recentTime := now.Sub(lastSampleTime).Seconds()
				recentBytes := totalRead - lastSampleBytes
				speed := speedHistory.CalculateSpeed(recentBytes, recentTime)

				var percent float64
				if total > 0 {
					percent = float64(totalRead) / float64(total) * 100
				}

				if onProgress != nil {
					onProgress(percent, speed)
				}

				lastUpdate = now
			}
		}

		if err != nil {
			if err == io.EOF {
				if onProgress != nil {
					onProgress(100.0, 0)
				}
				return totalRead, nil
			}
			return totalRead, fmt.Errorf("failed to read from stream: %w", err)
		}
	}
}
