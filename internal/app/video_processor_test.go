package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

func TestParseVideoInfo(t *testing.T) {
	output := `{
		"streams": [{"index": 0, "codec_type": "video", "codec_name": "vp9", "width": 1280, "height": 720, "duration": "9.5"}],
		"format": {"format_name": "matroska,webm", "duration": "10.040000", "bit_rate": "1536000"}
	}`

	info := ParseVideoInfo(output)

	assert.True(t, info.Probed)
	assert.Equal(t, 10.04, info.Duration)
	assert.Equal(t, 1280, info.Width)
	assert.Equal(t, 720, info.Height)
	assert.Equal(t, "vp9", info.Codec)
	assert.Equal(t, "matroska,webm", info.Format)
	assert.Equal(t, int64(1536000), info.Bitrate)
}

func TestParseVideoInfo_FieldsFallBackIndependently(t *testing.T) {
	tests := []struct {
		name   string
		output string
		check  func(t *testing.T, info domain.VideoInfo)
	}{
		{
			name:   "invalid duration keeps dimensions",
			output: `{"streams":[{"width":640,"height":360}],"format":{"duration":"N/A"}}`,
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, 0.0, info.Duration)
				assert.Equal(t, 640, info.Width)
				assert.Equal(t, 360, info.Height)
			},
		},
		{
			name:   "stream duration used when format has none",
			output: `{"streams":[{"width":640,"height":360,"duration":"4.25"}],"format":{}}`,
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, 4.25, info.Duration)
			},
		},
		{
			name:   "no streams keeps default dimensions",
			output: `{"streams":[],"format":{"duration":"3"}}`,
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, 3.0, info.Duration)
				assert.Equal(t, domain.DefaultVideoWidth, info.Width)
				assert.Equal(t, domain.DefaultVideoHeight, info.Height)
				assert.Equal(t, "unknown", info.Codec)
			},
		},
		{
			name:   "zero width ignored",
			output: `{"streams":[{"width":0,"height":-4}]}`,
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, domain.DefaultVideoWidth, info.Width)
				assert.Equal(t, domain.DefaultVideoHeight, info.Height)
			},
		},
		{
			name:   "truncated json is scanned by key",
			output: `{"streams":[{"codec_name":"h264","width":1920,"height":1080`,
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, 1920, info.Width)
				assert.Equal(t, 1080, info.Height)
				assert.Equal(t, "h264", info.Codec)
			},
		},
		{
			name:   "empty output",
			output: "",
			check: func(t *testing.T, info domain.VideoInfo) {
				assert.Equal(t, domain.NewVideoInfo().Width, info.Width)
				assert.Equal(t, 0.0, info.Duration)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseVideoInfo(tt.output))
		})
	}
}

func TestDefaultVideoInfo(t *testing.T) {
	tests := []struct {
		url      string
		duration float64
	}{
		{"https://x.com/i.jpg?w=10", imageDefaultDuration},
		{"https://x.com/anim.GIF", imageDefaultDuration},
		{"https://x.com/v.mp4?token=abc#frag", videoDefaultDuration},
		{"https://www.redgifs.com/watch/abc", videoDefaultDuration},
		{"https://x.com/page", unknownDefaultDuration},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			info := DefaultVideoInfo(tt.url)
			assert.Equal(t, tt.duration, info.Duration)
			assert.Equal(t, domain.DefaultVideoWidth, info.Width)
			assert.Equal(t, domain.DefaultVideoHeight, info.Height)
			assert.False(t, info.Probed)
		})
	}
}

func TestVideoProcessor_ProbeRetriesTransientFailures(t *testing.T) {
	p := newTestPipeline(t, nil)
	attempts := 0
	p.runner.handle = func(_ context.Context, call runCall) *domain.ProcessResult {
		attempts++
		if attempts < 3 {
			return timedOut()
		}
		return probeJSON(1920, 1080, 12.5)
	}

	result := p.service.Probe(context.Background(), "/media/clip.mp4")

	require.True(t, result.Success)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1920, result.Data.Width)
	assert.Equal(t, 12.5, result.Data.Duration)

	call := p.runner.Calls()[0]
	assert.Equal(t, domain.ToolFFprobe, call.Tool)
	assert.Equal(t, []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", "-select_streams", "v:0", "/media/clip.mp4"}, call.Args)
}

func TestVideoProcessor_ProbeTerminalFailureNotRetried(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(context.Context, runCall) *domain.ProcessResult {
		return exited(1, "HTTP error 404 Not Found")
	}

	result := p.service.Probe(context.Background(), "/media/gone.mp4")

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorNotFound, result.Kind)
	assert.Len(t, p.runner.Calls(), 1)
}

func TestVideoProcessor_VideoInfoFallsBackToDefault(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.runner.handle = func(context.Context, runCall) *domain.ProcessResult {
		return exited(1, "Invalid data found when processing input")
	}

	info := p.service.VideoInfo(context.Background(), "/media/anim.gif")

	assert.False(t, info.Probed)
	assert.Equal(t, imageDefaultDuration, info.Duration)
	// max retries of 2 means three attempts
	assert.Len(t, p.runner.Calls(), 3)
}
