package domain

import (
	"context"
	"sync"
	"time"
)

// MediaDownloader fetches a remote resource to a local temp file
type MediaDownloader interface {
	// Download never returns an error; failures are reported in the result
	Download(ctx context.Context, url string) *DownloadResult
}

// DownloadResult represents the result of a download operation
type DownloadResult struct {
	Path         string
	Success      bool
	ErrorMessage string
	Kind         ErrorKind
	Size         int64
	Elapsed      time.Duration

	cleanupOnce sync.Once
	cleanup     func()
}

// NewDownloadResult creates a successful result owning the file at path
func NewDownloadResult(path string, size int64, elapsed time.Duration, cleanup func()) *DownloadResult {
	return &DownloadResult{
		Path:    path,
		Success: true,
		Size:    size,
		Elapsed: elapsed,
		cleanup: cleanup,
	}
}

// NewFailedDownload creates a failed result
func NewFailedDownload(kind ErrorKind, msg string, elapsed time.Duration) *DownloadResult {
	return &DownloadResult{
		Success:      false,
		ErrorMessage: msg,
		Kind:         kind,
		Elapsed:      elapsed,
	}
}

// Cleanup releases the temp file. Safe to call any number of times.
func (r *DownloadResult) Cleanup() {
	if r == nil {
		return
	}
	r.cleanupOnce.Do(func() {
		if r.cleanup != nil {
			r.cleanup()
		}
	})
}
