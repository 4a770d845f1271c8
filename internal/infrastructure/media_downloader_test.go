package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

func newTestDownloader(t *testing.T, maxSize int64) (*HTTPMediaDownloader, *FileManager) {
	t.Helper()
	config := &domain.HTTPConfig{
		UserAgent:       "test-agent",
		ConnectTimeout:  time.Second,
		ReadTimeout:     time.Second,
		DownloadTimeout: 2 * time.Second,
		MaxDownloadSize: maxSize,
	}
	files := NewFileManager(t.TempDir())
	return NewMediaDownloader(NewHTTPClient(config), NewHTTPSettings(config), files, config, zap.NewNop()), files
}

func TestMediaDownloader_Success(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("fake video bytes"))
	}))
	defer server.Close()

	downloader, _ := newTestDownloader(t, 1024)
	result := downloader.Download(context.Background(), server.URL+"/clip.MP4?sig=abc")

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, int64(16), result.Size)
	assert.True(t, strings.HasSuffix(result.Path, ".mp4"))
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, server.URL+"/", gotReferer)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(data))

	result.Cleanup()
	assert.NoFileExists(t, result.Path)
	result.Cleanup()
}

func TestMediaDownloader_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		expected domain.ErrorKind
	}{
		{http.StatusForbidden, domain.ErrorAccessDenied},
		{http.StatusNotFound, domain.ErrorNotFound},
		{http.StatusBadGateway, domain.ErrorNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			downloader, _ := newTestDownloader(t, 1024)
			result := downloader.Download(context.Background(), server.URL+"/v.mp4")

			assert.False(t, result.Success)
			assert.Equal(t, tt.expected, result.Kind)
			assert.Empty(t, result.Path)
			assert.NotPanics(t, result.Cleanup)
		})
	}
}

func TestMediaDownloader_SizeCeiling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no Content-Length, forces the streaming check
		w.Header().Set("Transfer-Encoding", "chunked")
		w.Write([]byte(strings.Repeat("x", 64)))
		w.(http.Flusher).Flush()
		w.Write([]byte(strings.Repeat("y", 64)))
	}))
	defer server.Close()

	downloader, files := newTestDownloader(t, 100)
	result := downloader.Download(context.Background(), server.URL+"/big.webm")

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "size limit")

	entries, err := os.ReadDir(files.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "partial download must be removed")
}

func TestMediaDownloader_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	downloader, _ := newTestDownloader(t, 1024)
	downloader.config.DownloadTimeout = 100 * time.Millisecond

	result := downloader.Download(context.Background(), server.URL+"/slow.mp4")

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorTimeout, result.Kind)
}

func TestMediaDownloader_InvalidURL(t *testing.T) {
	downloader, _ := newTestDownloader(t, 1024)

	result := downloader.Download(context.Background(), "ftp://example.com/v.mp4")

	assert.False(t, result.Success)
	assert.Equal(t, domain.ErrorInvalidInput, result.Kind)
}

func TestDownloadExtension(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://x.com/v.mp4", "mp4"},
		{"https://x.com/VIDEO.MP4?x=1#y", "mp4"},
		{"https://x.com/a.b/clip.webm", "webm"},
		{"https://x.com/watch/abc", "tmp"},
		{"https://x.com/file.toolongext", "tmp"},
		{"https://x.com/file.m", "tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DownloadExtension(tt.url))
		})
	}
}
