package ytclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSpeedHistory(t *testing.T) {
	sh := NewSpeedHistory()
	require.NotNil(t, sh)
	require.Equal(t, SPEED_HISTORY_SIZE, len(sh.samples))
	require.Equal(t, 0, sh.pos)
	require.Equal(t, 0, sh.size)
	require.Equal(t, int64(0), sh.totalBytes)
	require.Equal(t, float64(0), sh.totalTime)
}

func TestSpeedHistory_AddSample(t *testing.T) {
	sh := NewSpeedHistory()

	// Test adding sample below minimum duration
	sh.AddSample(1000, 0.1) // Below SAMPLE_MIN_DURATION (0.15)
	require.Equal(t, 0, sh.size)

	// Test adding valid sample
	sh.AddSample(1000, 0.2)
	require.Equal(t, 1, sh.size)
	require.Equal(t, int64(1000), sh.totalBytes)
	require.Equal(t, 0.2, sh.totalTime)

	// Test adding multiple samples
	for i := 0; i < 5; i++ {
		sh.AddSample(1000, 0.2)
	}
	require.Equal(t, 6, sh.size)
	require.Equal(t, int64(6000), sh.totalBytes)
	require.InDelta(t, 1.2, sh.totalTime, 0.0001) // Use delta for floating point comparison

	// Test ring buffer overflow
	for i := 0; i < SPEED_HISTORY_SIZE; i++ {
		sh.AddSample(500, 0.3)
	}
	require.Equal(t, SPEED_HISTORY_SIZE, sh.size)
	// Should have replaced old samples
	require.Equal(t, int64(SPEED_HISTORY_SIZE*500), sh.totalBytes)
	require.InDelta(t, float64(SPEED_HISTORY_SIZE)*0.3, sh.totalTime, 0.0001)
}

func TestSpeedHistory_CalculateSpeed(t *testing.T) {
	sh := NewSpeedHistory()

	// Test with no samples and no recent data
	speed := sh.CalculateSpeed(0, 0)
	require.Equal(t, float64(0), speed)

	// Test with only recent data
	speed = sh.CalculateSpeed(1000, 1.0)
	require.Equal(t, float64(1000), speed)

	// Test with historical samples
	sh.AddSample(2000, 1.0)
	sh.AddSample(3000, 1.5)
	speed = sh.CalculateSpeed(1000, 0.5)
	expected := float64(2000+3000+1000) / (1.0 + 1.5 + 0.5)
	require.Equal(t, expected, speed)

	// Test with zero time
	speed = sh.CalculateSpeed(1000, 0)
	require.Greater(t, speed, float64(0))
}
