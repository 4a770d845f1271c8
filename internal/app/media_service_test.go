package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
)

func TestMediaService_Classify(t *testing.T) {
	p := newTestPipeline(t, nil)

	tests := []struct {
		url  string
		want Classification
	}{
		{
			url: "https://www.RedGifs.com/watch/abcdef",
			want: Classification{
				Domain:             "redgifs.com",
				IsVideo:            true,
				ShouldConvertToGif: true,
				PreviewURL:         "https://www.RedGifs.com/ifr/abcdef-preview.jpg",
			},
		},
		{
			url: "https://cdn.example.com/photo.JPG?size=large",
			want: Classification{
				Domain:        "cdn.example.com",
				Extension:     "jpg",
				IsStaticImage: true,
			},
		},
		{
			url: "https://i.imgur.com/abc.mp4",
			want: Classification{
				Domain:             "i.imgur.com",
				Extension:          "mp4",
				IsVideo:            true,
				ShouldConvertToGif: true,
				PreviewURL:         "https://i.imgur.com/abch.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			tt.want.URL = tt.url
			assert.Equal(t, tt.want, p.service.Classify(tt.url))
		})
	}
}

func TestMediaService_Accessors(t *testing.T) {
	p := newTestPipeline(t, nil)

	assert.Same(t, p.config, p.service.Config())
	assert.Same(t, p.tracker, p.service.Tracker())
	assert.Same(t, p.registry, p.service.Resolvers())
	assert.Equal(t, p.config.FFmpeg.TempDir, p.service.Files().TempDir())

	_, ok := p.service.Sources().Lookup("imgur")
	assert.True(t, ok)
}

func TestMediaService_Resolve(t *testing.T) {
	p := newTestPipeline(t, nil)
	assert.Equal(t, "https://example.com/a.mp4", p.service.Resolve(context.Background(), "https://example.com/a.mp4"))
}

func TestMediaService_IsReady(t *testing.T) {
	config := testConfig(t)
	config.FFmpeg.FFmpegBinary = "sh"
	config.FFmpeg.FFprobeBinary = "sh"
	p := newTestPipeline(t, config)
	assert.NoError(t, p.service.IsReady())

	config.FFmpeg.FFprobeBinary = "definitely-not-a-real-ffprobe"
	err := p.service.IsReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-real-ffprobe")
}

func TestNewResolverRegistry(t *testing.T) {
	names := func(config domain.ResolverConfig) []string {
		registry := NewResolverRegistry(&config, http.DefaultClient,
			infrastructure.NewHTTPSettings(&domain.DefaultConfig().HTTP), zap.NewNop())
		var out []string
		for _, r := range registry.Resolvers() {
			out = append(out, r.Name())
		}
		return out
	}

	defaults := domain.DefaultConfig().Resolvers
	assert.ElementsMatch(t, []string{"redgifs", "imgur", "opengraph"}, names(defaults))

	disabled := defaults
	disabled.RedGifsEnabled = false
	disabled.OpenGraphHosts = nil
	assert.ElementsMatch(t, []string{"imgur"}, names(disabled))

	none := domain.ResolverConfig{}
	assert.Empty(t, names(none))
}
