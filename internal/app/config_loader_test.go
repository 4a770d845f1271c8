package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := LoadConfig("")
	require.NoError(t, err)

	defaults := domain.DefaultConfig()
	assert.Equal(t, defaults.Server.Port, config.Server.Port)
	assert.Equal(t, defaults.FFmpeg.DefaultTimeout, config.FFmpeg.DefaultTimeout)
	assert.Equal(t, filepath.Join(home, ".media-pipeline", "temp"), config.FFmpeg.TempDir)
	assert.Equal(t, filepath.Join(home, ".media-pipeline", "jobs.db"), config.Queue.DatabasePath)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfigFile(t, `
server:
  port: 9100
ffmpeg:
  ffmpeg_binary: /opt/ffmpeg/bin/ffmpeg
  default_timeout: 45s
  max_retries: 4
gif:
  fps: 12
adaptive:
  failure_ratio: 0.25
resolvers:
  opengraph_hosts:
    - streamable.com
    - clips.example.org
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", config.FFmpeg.FFmpegBinary)
	assert.Equal(t, "ffprobe", config.FFmpeg.FFprobeBinary)
	assert.Equal(t, 45*time.Second, config.FFmpeg.DefaultTimeout)
	assert.Equal(t, 4, config.FFmpeg.MaxRetries)
	assert.Equal(t, 12, config.Gif.FPS)
	assert.Equal(t, 480, config.Gif.Width)
	assert.Equal(t, 0.25, config.Adaptive.FailureRatio)
	assert.Equal(t, []string{"streamable.com", "clips.example.org"}, config.Resolvers.OpenGraphHosts)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIAPIPE_FFMPEG_WORKERS", "3")
	t.Setenv("MEDIAPIPE_FFMPEG_ADAPTIVE_DOWNLOAD", "false")
	t.Setenv("MEDIAPIPE_QUEUE_CHECK_INTERVAL", "250ms")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3, config.FFmpeg.Workers)
	assert.False(t, config.FFmpeg.AdaptiveDownload)
	assert.Equal(t, 250*time.Millisecond, config.Queue.CheckInterval)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"negative retries", "ffmpeg:\n  max_retries: -1\n"},
		{"failure ratio", "adaptive:\n  failure_ratio: 1.5\n"},
		{"gif fps", "gif:\n  fps: 0\n"},
		{"concurrency", "queue:\n  concurrent_limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config := domain.DefaultConfig()
	config.Server.Port = 9200
	config.FFmpeg.GifTimeout = 90 * time.Second
	config.Gif.UsePremiumUploadLimit = true
	config.Resolvers.RedGifsEnabled = false
	config.Queue.DatabasePath = filepath.Join(t.TempDir(), "jobs.db")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gif_timeout: 1m30s")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9200, loaded.Server.Port)
	assert.Equal(t, 90*time.Second, loaded.FFmpeg.GifTimeout)
	assert.True(t, loaded.Gif.UsePremiumUploadLimit)
	assert.False(t, loaded.Resolvers.RedGifsEnabled)
	assert.Equal(t, config.Queue.DatabasePath, loaded.Queue.DatabasePath)
	assert.Equal(t, config.Resolvers.OpenGraphHosts, loaded.Resolvers.OpenGraphHosts)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MEDIA_ROOT", "/srv/media")

	assert.Equal(t, filepath.Join(home, "data"), expandPath("~/data"))
	assert.Equal(t, home+"/x", expandPath("$HOME/x"))
	assert.Equal(t, "/srv/media/out", expandPath("$MEDIA_ROOT/out"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
