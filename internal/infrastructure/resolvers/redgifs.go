package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	redGifsTokenTTL   = time.Hour
	redGifsBackoff    = 60 * time.Second
	redGifsMaxBody    = 2 * 1024 * 1024
	redGifsUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	redGifsPriority   = 10
	redGifsDefaultAPI = "https://api.redgifs.com"
)

var redGifsPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.|v3\.)?redgifs\.com/(?:watch|ifr)/([a-zA-Z0-9]+)`)

// RedGifsResolver turns redgifs watch/ifr pages into direct video URLs via
// the public API. Temporary tokens are cached; a 429 pauses lookups.
type RedGifsResolver struct {
	apiBase string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu           sync.Mutex
	token        string
	tokenExpiry  time.Time
	blockedUntil time.Time
	now          func() time.Time
}

// NewRedGifsResolver creates a RedGifs resolver. requestsPerSecond <= 0
// disables client-side rate limiting.
func NewRedGifsResolver(apiBase string, client *http.Client, requestsPerSecond float64, logger *zap.Logger) *RedGifsResolver {
	if apiBase == "" {
		apiBase = redGifsDefaultAPI
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RedGifsResolver{
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Name returns the resolver name
func (r *RedGifsResolver) Name() string { return "redgifs" }

// Priority returns the resolver priority
func (r *RedGifsResolver) Priority() int { return redGifsPriority }

// CanResolve reports whether rawURL is a redgifs watch or embed page
func (r *RedGifsResolver) CanResolve(rawURL string) bool {
	return rawURL != "" && redGifsPattern.MatchString(rawURL)
}

// GifID extracts the lowercase gif id from a redgifs URL
func GifID(rawURL string) (string, bool) {
	m := redGifsPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

type redGifsTokenResponse struct {
	Token string `json:"token"`
}

type redGifsGifResponse struct {
	Gif struct {
		URLs struct {
			HD string `json:"hd"`
			SD string `json:"sd"`
		} `json:"urls"`
	} `json:"gif"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Resolve returns the HD video URL, falling back to SD
func (r *RedGifsResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	id, ok := GifID(rawURL)
	if !ok {
		return "", fmt.Errorf("no redgifs id in %s", rawURL)
	}
	if until := r.blocked(); !until.IsZero() {
		return "", fmt.Errorf("redgifs rate limited until %s", until.Format(time.RFC3339))
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return "", err
	}

	var gif redGifsGifResponse
	if err := r.getJSON(ctx, r.apiBase+"/v2/gifs/"+id, token, &gif); err != nil {
		return "", fmt.Errorf("failed to fetch gif %s: %w", id, err)
	}
	if gif.Error != nil {
		return "", fmt.Errorf("redgifs api error for %s: %s", id, gif.Error.Description)
	}
	if gif.Gif.URLs.HD != "" {
		return gif.Gif.URLs.HD, nil
	}
	if gif.Gif.URLs.SD != "" {
		return gif.Gif.URLs.SD, nil
	}
	return "", fmt.Errorf("no video urls for redgifs id %s", id)
}

// accessToken returns the cached token or fetches a fresh one
func (r *RedGifsResolver) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.token != "" && r.now().Before(r.tokenExpiry) {
		token := r.token
		r.mu.Unlock()
		return token, nil
	}
	r.mu.Unlock()

	var resp redGifsTokenResponse
	if err := r.getJSON(ctx, r.apiBase+"/v2/auth/temporary", "", &resp); err != nil {
		return "", fmt.Errorf("failed to get redgifs token: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("redgifs token response had no token")
	}

	r.mu.Lock()
	r.token = resp.Token
	r.tokenExpiry = r.now().Add(redGifsTokenTTL)
	r.mu.Unlock()

	r.logger.Debug("Obtained new RedGifs access token")
	return resp.Token, nil
}

func (r *RedGifsResolver) getJSON(ctx context.Context, endpoint, token string, out interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", redGifsUserAgent)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		r.block()
		return fmt.Errorf("rate limited (429)")
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, redGifsMaxBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (r *RedGifsResolver) block() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockedUntil = r.now().Add(redGifsBackoff)
	r.logger.Warn("RedGifs API rate limited, pausing lookups", zap.Duration("backoff", redGifsBackoff))
}

// blocked returns the end of the current 429 backoff, or zero when lookups are allowed
func (r *RedGifsResolver) blocked() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Before(r.blockedUntil) {
		return r.blockedUntil
	}
	return time.Time{}
}
