package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

func gifPipeline(t *testing.T, limit int64) *testPipeline {
	t.Helper()
	config := testConfig(t)
	config.Gif.MaxUploadSize = limit
	return newTestPipeline(t, config)
}

func TestGifProcessor_CreateGif(t *testing.T) {
	p := gifPipeline(t, 1000)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeBytes(call.output(), 600)
	}

	result := p.service.CreateGif(context.Background(), "/media/clip.mp4", GifOptions{Start: 2, Duration: 4})

	require.True(t, result.Success, result.ErrorMessage)
	out := result.Data
	assert.Equal(t, int64(600), out.Size)
	assert.Equal(t, GifOptions{Start: 2, Duration: 4, Width: 480, Height: 270, FPS: 10}, out.Options)
	assert.FileExists(t, out.Path)
	assert.Equal(t, ".gif", filepath.Ext(out.Path))

	call := p.runner.Calls()[0]
	assert.Equal(t, "2.000", call.flag("-ss"))
	assert.Equal(t, "4.000", call.flag("-t"))
	assert.Equal(t, "0", call.flag("-loop"))
	vf := call.flag("-vf")
	assert.True(t, strings.HasPrefix(vf, "fps=10,scale=480:270:flags=lanczos"), vf)
	assert.Contains(t, vf, "palettegen")
	assert.Contains(t, vf, "paletteuse")
}

func TestGifProcessor_ShrinksOversizeOutput(t *testing.T) {
	p := gifPipeline(t, 1000)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		if len(p.runner.Calls()) == 1 {
			return writeBytes(call.output(), 5000)
		}
		return writeBytes(call.output(), 800)
	}

	result := p.service.CreateGif(context.Background(), "/media/clip.mp4", GifOptions{Duration: 5})

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 360, result.Data.Options.Width)
	assert.Equal(t, 202, result.Data.Options.Height)
	assert.Equal(t, 8, result.Data.Options.FPS)

	calls := p.runner.Calls()
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[1].flag("-vf"), "fps=8,scale=360:202:"))

	// only the accepted gif remains
	assert.Equal(t, []string{filepath.Base(result.Data.Path)}, p.tempFiles(t))
}

func TestGifProcessor_GivesUpAfterMaxShrinks(t *testing.T) {
	p := gifPipeline(t, 1000)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		return writeBytes(call.output(), 4000)
	}

	result := p.service.CreateGif(context.Background(), "/media/clip.mp4", GifOptions{})

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorProcess, result.Kind)
	assert.ErrorIs(t, result.Err, domain.ErrGifTooLarge)
	assert.Len(t, p.runner.Calls(), maxGifShrinks+1)
	assert.Empty(t, p.tempFiles(t))
}

func TestGifProcessor_EncodeFailureRemovesOutput(t *testing.T) {
	p := gifPipeline(t, 1000)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		writeBytes(call.output(), 10)
		return exited(1, "Conversion failed!")
	}

	result := p.service.CreateGif(context.Background(), "/media/clip.mp4", GifOptions{})

	assert.False(t, result.Success)
	assert.Empty(t, p.tempFiles(t))
}

func TestGifProcessor_Normalize(t *testing.T) {
	p := gifPipeline(t, 0)
	gp := p.service.gifs

	tests := []struct {
		name string
		in   GifOptions
		want GifOptions
	}{
		{"defaults", GifOptions{}, GifOptions{Duration: 20, Width: 480, Height: 270, FPS: 10}},
		{"duration capped", GifOptions{Duration: 90}, GifOptions{Duration: 20, Width: 480, Height: 270, FPS: 10}},
		{"odd sizes evened", GifOptions{Duration: 3, Width: 321, Height: 181, FPS: 12}, GifOptions{Duration: 3, Width: 320, Height: 180, FPS: 12}},
		{"negative start", GifOptions{Start: -1, Duration: 1}, GifOptions{Duration: 1, Width: 480, Height: 270, FPS: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gp.normalize(tt.in))
		})
	}
}

func TestGifProcessor_CreateSmartGif(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		duration      float64
		want          GifOptions
	}{
		{"landscape", 1920, 1080, 45, GifOptions{Duration: 20, Width: 480, Height: 270, FPS: 10}},
		{"portrait", 1080, 1920, 8, GifOptions{Duration: 8, Width: 152, Height: 270, FPS: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gifPipeline(t, 0)
			p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
				if call.Tool == domain.ToolFFprobe {
					return probeJSON(tt.width, tt.height, tt.duration)
				}
				return writeBytes(call.output(), 100)
			}

			result := p.service.CreateSmartGif(context.Background(), "/media/clip.mp4")

			require.True(t, result.Success, result.ErrorMessage)
			assert.Equal(t, tt.want, result.Data.Options)
			require.NoError(t, os.Remove(result.Data.Path))
		})
	}
}

func TestGifProcessor_CreatePreviewGif(t *testing.T) {
	p := gifPipeline(t, 0)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		if call.Tool == domain.ToolFFprobe {
			return probeJSON(1920, 1080, 10)
		}
		return writeBytes(call.output(), 100)
	}

	result := p.service.CreatePreviewGif(context.Background(), "/media/clip.mp4")

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, GifOptions{Duration: 3, Width: 320, Height: 180, FPS: 10}, result.Data.Options)
}

func TestGifProcessor_PreviewOfShortClip(t *testing.T) {
	p := gifPipeline(t, 0)
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		if call.Tool == domain.ToolFFprobe {
			return probeJSON(640, 640, 1.5)
		}
		return writeBytes(call.output(), 100)
	}

	result := p.service.CreatePreviewGif(context.Background(), "/media/short.mp4")

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 1.5, result.Data.Options.Duration)
	assert.Equal(t, 320, result.Data.Options.Height)
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name          string
		info          domain.VideoInfo
		width, height int
	}{
		{"16:9", domain.VideoInfo{Width: 1920, Height: 1080}, 480, 270},
		{"9:16", domain.VideoInfo{Width: 1080, Height: 1920}, 152, 270},
		{"square", domain.VideoInfo{Width: 500, Height: 500}, 270, 270},
		{"unknown", domain.VideoInfo{}, 480, 270},
		{"ultrawide", domain.VideoInfo{Width: 2560, Height: 1080}, 480, 202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.info, 480, 270)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestShrinkGif(t *testing.T) {
	assert.Equal(t, GifOptions{Width: 360, Height: 202, FPS: 8}, shrinkGif(GifOptions{Width: 480, Height: 270, FPS: 10}))
	assert.Equal(t, GifOptions{Width: 64, Height: 40, FPS: 5}, shrinkGif(GifOptions{Width: 70, Height: 40, FPS: 6}))
}

func TestShrinkGif_NeverGrows(t *testing.T) {
	small := GifOptions{Width: 32, Height: 18, FPS: 3}
	assert.Equal(t, small, shrinkGif(small))

	opts := GifOptions{Width: 480, Height: 270, FPS: 10}
	for i := 0; i < 10; i++ {
		next := shrinkGif(opts)
		assert.LessOrEqual(t, next.Width, opts.Width)
		assert.LessOrEqual(t, next.Height, opts.Height)
		assert.LessOrEqual(t, next.FPS, opts.FPS)
		opts = next
	}
	assert.Equal(t, GifOptions{Width: 64, Height: 64, FPS: 5}, opts)
}
