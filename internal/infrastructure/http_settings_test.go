package infrastructure

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

func TestHTTPSettings_FFmpegHeaderArgs(t *testing.T) {
	settings := NewHTTPSettings(&domain.HTTPConfig{
		UserAgent: "test-agent",
		Headers:   map[string]string{"X-B": "2", "X-A": "1"},
	})

	args := settings.FFmpegHeaderArgs("https://cdn.example.com/path/v.mp4?x=1")

	require.Len(t, args, 4)
	assert.Equal(t, "-user_agent", args[0])
	assert.Equal(t, "test-agent", args[1])
	assert.Equal(t, "-headers", args[2])
	assert.Equal(t, "Accept: */*\r\nReferer: https://cdn.example.com/\r\nX-A: 1\r\nX-B: 2\r\n", args[3])
}

func TestHTTPSettings_Apply(t *testing.T) {
	settings := NewHTTPSettings(&domain.HTTPConfig{})
	req, err := http.NewRequest(http.MethodGet, "https://media.example.org/a.gif", nil)
	require.NoError(t, err)

	settings.Apply(req, req.URL.String())

	assert.Equal(t, domain.DefaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
	assert.Equal(t, "https://media.example.org/", req.Header.Get("Referer"))
}

func TestValidateMediaURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/v.mp4", false},
		{"http", "http://example.com/v.mp4", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"ftp", "ftp://example.com/v.mp4", true},
		{"javascript", "javascript:alert(1)", true},
		{"no host", "https://", true},
		{"local path", "/tmp/v.mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMediaURL(tt.url)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrInvalidURL))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("HTTPS://example.com/a"))
	assert.True(t, IsRemoteURL("http://example.com/a"))
	assert.False(t, IsRemoteURL("/tmp/a.mp4"))
	assert.Equal(t, "", Referer("/tmp/a.mp4"))
}
