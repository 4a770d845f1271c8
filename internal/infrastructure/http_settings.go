package infrastructure

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// HTTPSettings builds the browser-like request headers used both for direct
// fetches and for ffmpeg/ffprobe reading a remote input
type HTTPSettings struct {
	config *domain.HTTPConfig
}

// NewHTTPSettings creates HTTP settings from configuration
func NewHTTPSettings(config *domain.HTTPConfig) *HTTPSettings {
	return &HTTPSettings{config: config}
}

// NewHTTPClient creates an HTTP client with connect and read timeouts.
// The overall deadline is left to the caller's context.
func NewHTTPClient(config *domain.HTTPConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:       http.ProxyFromEnvironment,
			DialContext: dialer.DialContext,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   5,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   config.ConnectTimeout,
			ResponseHeaderTimeout: config.ReadTimeout,
		},
	}
}

// UserAgent returns the configured user agent
func (s *HTTPSettings) UserAgent() string {
	if s.config.UserAgent == "" {
		return domain.DefaultUserAgent
	}
	return s.config.UserAgent
}

// Headers returns the ordered header list for a request to rawURL
func (s *HTTPSettings) Headers(rawURL string) [][2]string {
	headers := [][2]string{
		{"User-Agent", s.UserAgent()},
		{"Accept", "*/*"},
	}
	if referer := Referer(rawURL); referer != "" {
		headers = append(headers, [2]string{"Referer", referer})
	}

	// extra headers in stable order
	keys := make([]string, 0, len(s.config.Headers))
	for k := range s.config.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		headers = append(headers, [2]string{k, s.config.Headers[k]})
	}
	return headers
}

// Apply sets the headers for rawURL on req
func (s *HTTPSettings) Apply(req *http.Request, rawURL string) {
	for _, h := range s.Headers(rawURL) {
		req.Header.Set(h[0], h[1])
	}
}

// FFmpegHeaderArgs returns the -user_agent/-headers arguments that must precede
// -i when the tool reads rawURL directly
func (s *HTTPSettings) FFmpegHeaderArgs(rawURL string) []string {
	var block strings.Builder
	for _, h := range s.Headers(rawURL) {
		if h[0] == "User-Agent" {
			continue
		}
		fmt.Fprintf(&block, "%s: %s\r\n", h[0], h[1])
	}
	return []string{"-user_agent", s.UserAgent(), "-headers", block.String()}
}

// Referer returns scheme://host/ for rawURL, or "" when it is not an absolute URL
func Referer(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// IsRemoteURL reports whether rawURL is an http(s) URL
func IsRemoteURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ValidateMediaURL checks that rawURL is an absolute http(s) URL with a host
func ValidateMediaURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty url", domain.ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return nil
}
