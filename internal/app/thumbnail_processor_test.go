package app

import (
	"context"
	"image/color"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

var testFrameColor = color.RGBA{R: 200, G: 100, B: 50, A: 255}

func TestThumbnailProcessor_ExtractThumbnail(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeFrame(call.output(), testFrameColor, 320, 180)
	}

	result := p.service.ExtractThumbnail(context.Background(), "/media/clip.mp4", 1.5)

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 320, result.Data.Bounds().Dx())
	assert.Equal(t, 180, result.Data.Bounds().Dy())
	assert.Equal(t, domain.StrategyLocal, result.Strategy)

	call := p.runner.Calls()[0]
	assert.Equal(t, domain.ToolFFmpeg, call.Tool)
	assert.Equal(t, "1.500", call.flag("-ss"))
	assert.Equal(t, "/media/clip.mp4", call.input())
	assert.Equal(t, "scale=320:320:force_original_aspect_ratio=decrease", call.flag("-vf"))
	assert.True(t, strings.HasPrefix(call.output(), p.config.FFmpeg.TempDir))

	assert.Empty(t, p.tempFiles(t), "temp frame should be removed")
}

func TestThumbnailProcessor_NegativeTimestampClamped(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeFrame(call.output(), testFrameColor, 16, 16)
	}

	result := p.service.ExtractThumbnail(context.Background(), "/media/clip.mp4", -4)

	require.True(t, result.Success)
	assert.Equal(t, "0.000", p.runner.Calls()[0].flag("-ss"))
}

func TestThumbnailProcessor_FailureRemovesTempFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		// partial output left behind by a failing encoder
		writeBytes(call.output(), 10)
		return exited(1, "Invalid data found when processing input")
	}

	result := p.service.ExtractThumbnail(context.Background(), "/media/broken.mp4", 0)

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorProcess, result.Kind)
	assert.Empty(t, p.tempFiles(t))
}

func TestThumbnailProcessor_MultipleKeepsOrder(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		ts := call.seconds("-ss")
		// later timestamps finish first
		time.Sleep(time.Duration(40-ts*10) * time.Millisecond)
		return writeFrame(call.output(), testFrameColor, int(ts*10), 8)
	}

	timestamps := []float64{1, 2, 3}
	results := p.service.ExtractMultipleThumbnails(context.Background(), "/media/clip.mp4", timestamps)

	require.Len(t, results, 3)
	for i, r := range results {
		require.True(t, r.Success, r.ErrorMessage)
		assert.Equal(t, int(timestamps[i]*10), r.Data.Bounds().Dx())
	}
	assert.Len(t, p.runner.Calls(), 3)
	assert.Empty(t, p.tempFiles(t))
}

func TestThumbnailProcessor_MultipleResolvesOnce(t *testing.T) {
	p := newTestPipeline(t, nil)
	resolver := &countingResolver{host: "clips.example.com", media: "https://cdn.example.com/clip.mp4"}
	p.registry.Register(resolver)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeFrame(call.output(), testFrameColor, 32, 18)
	}

	results := p.service.ExtractMultipleThumbnails(context.Background(), "https://clips.example.com/watch/abc", []float64{1, 2, 3})

	require.Len(t, results, 3)
	for _, r := range results {
		require.True(t, r.Success, r.ErrorMessage)
		assert.Equal(t, domain.StrategyDirect, r.Strategy)
		assert.Equal(t, "https://cdn.example.com/clip.mp4", r.URL)
	}
	assert.Equal(t, int32(1), resolver.calls.Load())
	assert.Equal(t, int32(0), p.downloader.downloads.Load())
	for _, call := range p.runner.Calls() {
		assert.Equal(t, "https://cdn.example.com/clip.mp4", call.input())
	}
}

func TestThumbnailProcessor_MultipleShareOneDownload(t *testing.T) {
	p := newTestPipeline(t, nil)
	resolver := &countingResolver{host: "clips.example.com", media: "https://cdn.example.com/clip.mp4"}
	p.registry.Register(resolver)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		if strings.HasPrefix(call.input(), "http") {
			return exited(1, "HTTP error 403 Forbidden")
		}
		return writeFrame(call.output(), testFrameColor, 32, 18)
	}

	results := p.service.ExtractMultipleThumbnails(context.Background(), "https://clips.example.com/watch/abc", []float64{1, 2, 3})

	require.Len(t, results, 3)
	for _, r := range results {
		require.True(t, r.Success, r.ErrorMessage)
		assert.Equal(t, domain.StrategyDownloadFirst, r.Strategy)
	}
	assert.Equal(t, int32(1), resolver.calls.Load())
	assert.Equal(t, int32(1), p.downloader.downloads.Load())
	assert.Equal(t, int32(1), p.downloader.cleanups.Load())

	remote := 0
	for _, call := range p.runner.Calls() {
		if strings.HasPrefix(call.input(), "http") {
			remote++
		}
	}
	assert.Equal(t, 1, remote, "only the first frame tries the direct path")

	stats, _ := p.tracker.Stats("https://cdn.example.com/clip.mp4")
	assert.Equal(t, int64(1), stats.DirectFailures)
	assert.Equal(t, int64(1), stats.DownloadFirstSuccesses)
	assert.Empty(t, p.tempFiles(t))
}

func TestThumbnailProcessor_DominantColorResolvesOnce(t *testing.T) {
	p := newTestPipeline(t, nil)
	resolver := &countingResolver{host: "clips.example.com", media: "https://cdn.example.com/clip.mp4"}
	p.registry.Register(resolver)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeFrame(call.output(), testFrameColor, 32, 18)
	}

	got := p.service.thumbnails.ExtractDominantColor(context.Background(), "https://clips.example.com/watch/abc", domain.VideoInfo{Duration: 10})

	assert.NotEqual(t, FallbackColor, got)
	assert.Equal(t, int32(1), resolver.calls.Load())
	assert.Len(t, p.runner.Calls(), 3)
}

func TestThumbnailProcessor_StaticImageFallback(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.downloader.ext = "png"
	p.downloader.write = func(path string) error {
		return imaging.Save(imaging.New(640, 320, testFrameColor), path)
	}
	p.runner.handle = func(context.Context, runCall) *domain.ProcessResult {
		return exited(1, "Invalid data found when processing input")
	}

	result := p.service.ExtractThumbnail(context.Background(), "https://img.example.com/pic.png", 0)

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, domain.StrategyDownloadFirst, result.Strategy)
	// fitted into the 320x320 box
	assert.Equal(t, 320, result.Data.Bounds().Dx())
	assert.Equal(t, 160, result.Data.Bounds().Dy())

	assert.Equal(t, p.downloader.downloads.Load(), p.downloader.cleanups.Load())
	entries, err := os.ReadDir(p.downloader.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestThumbnailProcessor_StaticFallbackDownloadFails(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.config.FFmpeg.AdaptiveDownload = false
	p.downloader.fail = true
	p.downloader.failKind = domain.ErrorNotFound
	p.runner.handle = func(context.Context, runCall) *domain.ProcessResult {
		return exited(1, "Invalid data found when processing input")
	}

	result := p.service.ExtractThumbnail(context.Background(), "https://img.example.com/pic.webp", 0)

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorNotFound, result.Kind)
	assert.ErrorIs(t, result.Err, domain.ErrDownloadFailed)
}
