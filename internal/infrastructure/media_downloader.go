package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

var extensionPattern = regexp.MustCompile(`^[a-z0-9]{2,5}$`)

// HTTPMediaDownloader implements domain.MediaDownloader over HTTP
type HTTPMediaDownloader struct {
	client   *http.Client
	settings *HTTPSettings
	files    *FileManager
	config   *domain.HTTPConfig
	logger   *zap.Logger
}

// NewMediaDownloader creates a new HTTP media downloader
func NewMediaDownloader(client *http.Client, settings *HTTPSettings, files *FileManager, config *domain.HTTPConfig, logger *zap.Logger) *HTTPMediaDownloader {
	return &HTTPMediaDownloader{
		client:   client,
		settings: settings,
		files:    files,
		config:   config,
		logger:   logger,
	}
}

// Download streams rawURL into a unique temp file. Failures are reported in
// the result, never returned.
func (d *HTTPMediaDownloader) Download(ctx context.Context, rawURL string) *domain.DownloadResult {
	start := time.Now()
	result := d.download(ctx, rawURL, start)

	if result.Success {
		metrics.DownloadsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		metrics.DownloadBytes.Add(float64(result.Size))
		d.logger.Debug("Downloaded media",
			zap.String("url", rawURL),
			zap.String("path", result.Path),
			zap.String("size", humanize.Bytes(uint64(result.Size))),
			zap.Duration("elapsed", result.Elapsed))
	} else {
		metrics.DownloadsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		d.logger.Debug("Download failed",
			zap.String("url", rawURL),
			zap.String("kind", string(result.Kind)),
			zap.String("error", result.ErrorMessage))
	}
	return result
}

func (d *HTTPMediaDownloader) download(ctx context.Context, rawURL string, start time.Time) *domain.DownloadResult {
	fail := func(kind domain.ErrorKind, format string, args ...interface{}) *domain.DownloadResult {
		return domain.NewFailedDownload(kind, fmt.Sprintf(format, args...), time.Since(start))
	}

	if err := ValidateMediaURL(rawURL); err != nil {
		return fail(domain.ErrorInvalidInput, "%v", err)
	}

	if d.config.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.DownloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(domain.ErrorInvalidInput, "creating request: %v", err)
	}
	d.settings.Apply(req, rawURL)

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(requestErrorKind(err), "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(StatusErrorKind(resp.StatusCode), "unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	limit := d.config.MaxDownloadSize
	if limit > 0 && resp.ContentLength > limit {
		return fail(domain.ErrorInvalidInput, "%v: %s > %s", domain.ErrDownloadTooLarge,
			humanize.Bytes(uint64(resp.ContentLength)), humanize.Bytes(uint64(limit)))
	}

	tempPath, err := d.files.TempPath("download", DownloadExtension(rawURL))
	if err != nil {
		return fail(domain.ErrorProcess, "%v", err)
	}

	written, err := writeLimited(tempPath, resp.Body, limit)
	if err != nil {
		_ = d.files.Remove(tempPath)
		if errors.Is(err, domain.ErrDownloadTooLarge) {
			return fail(domain.ErrorInvalidInput, "%v: limit %s", err, humanize.Bytes(uint64(limit)))
		}
		return fail(requestErrorKind(err), "writing download: %v", err)
	}
	if written == 0 {
		_ = d.files.Remove(tempPath)
		return fail(domain.ErrorOutputMissing, "empty response body from %s", rawURL)
	}

	return domain.NewDownloadResult(tempPath, written, time.Since(start), func() {
		if err := d.files.Remove(tempPath); err != nil {
			d.logger.Warn("Failed to remove downloaded file", zap.String("path", tempPath), zap.Error(err))
		}
	})
}

// writeLimited copies body into a new file at dest, failing once more than
// limit bytes arrive. A limit of 0 disables the check.
func writeLimited(dest string, body io.Reader, limit int64) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	reader := body
	if limit > 0 {
		reader = io.LimitReader(body, limit+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		return written, copyErr
	case closeErr != nil:
		return written, closeErr
	case limit > 0 && written > limit:
		return written, domain.ErrDownloadTooLarge
	}
	return written, nil
}

// DownloadExtension returns the lowercase extension of the URL path when it
// looks like one, otherwise "tmp"
func DownloadExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if !extensionPattern.MatchString(ext) {
		return "tmp"
	}
	return ext
}

// StatusErrorKind maps an HTTP status onto an ErrorKind
func StatusErrorKind(status int) domain.ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrorAccessDenied
	case http.StatusNotFound, http.StatusGone:
		return domain.ErrorNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.ErrorTimeout
	}
	return domain.ErrorNetwork
}

func requestErrorKind(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorTimeout
	}
	return domain.ErrorNetwork
}
