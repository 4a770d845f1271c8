package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, "ffmpeg", config.FFmpeg.FFmpegBinary)
	assert.Equal(t, "ffprobe", config.FFmpeg.FFprobeBinary)
	assert.Equal(t, 15*time.Second, config.FFmpeg.DefaultTimeout)
	assert.Equal(t, 60*time.Second, config.FFmpeg.GifTimeout)
	assert.Equal(t, 10*time.Second, config.FFmpeg.ThumbnailTimeout)
	assert.Equal(t, 8*time.Second, config.FFmpeg.VideoInfoTimeout)
	assert.Equal(t, 2, config.FFmpeg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, config.FFmpeg.RetryDelay)
	assert.True(t, config.FFmpeg.AdaptiveDownload)
	assert.Equal(t, 480, config.Gif.Width)
	assert.Equal(t, 270, config.Gif.Height)
	assert.Equal(t, 10, config.Gif.FPS)
	assert.Equal(t, 20.0, config.Gif.MaxDuration)
	assert.Equal(t, int64(100*1024*1024), config.HTTP.MaxDownloadSize)
	assert.Equal(t, 2, config.Adaptive.MinSampleSize)
	assert.Equal(t, 0.5, config.Adaptive.FailureRatio)
	assert.Equal(t, 500, config.Adaptive.MaxTrackedDomains)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestGifConfig_UploadLimit(t *testing.T) {
	config := DefaultConfig().Gif
	assert.Equal(t, int64(25*1024*1024), config.UploadLimit())

	config.UsePremiumUploadLimit = true
	assert.Equal(t, int64(500*1024*1024), config.UploadLimit())
}
