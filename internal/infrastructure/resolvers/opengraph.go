package resolvers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const openGraphMaxPage = 4 * 1024 * 1024

// openGraphProperties are checked in order; the first absolute URL wins
var openGraphProperties = []string{
	"og:video:secure_url",
	"og:video:url",
	"og:video",
	"twitter:player:stream",
}

// HeaderApplier sets request headers for a target URL
type HeaderApplier interface {
	Apply(req *http.Request, rawURL string)
}

// OpenGraphResolver reads the video meta tags of a watch page on one of the
// configured hosts
type OpenGraphResolver struct {
	hosts   []string
	client  *http.Client
	headers HeaderApplier
}

// NewOpenGraphResolver creates a resolver for pages on hosts
func NewOpenGraphResolver(hosts []string, client *http.Client, headers HeaderApplier) *OpenGraphResolver {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www."); h != "" {
			normalized = append(normalized, h)
		}
	}
	return &OpenGraphResolver{
		hosts:   normalized,
		client:  client,
		headers: headers,
	}
}

// Name returns the resolver name
func (r *OpenGraphResolver) Name() string { return "opengraph" }

// Priority returns the resolver priority
func (r *OpenGraphResolver) Priority() int { return 5 }

// CanResolve reports whether rawURL is an extensionless page on a configured host
func (r *OpenGraphResolver) CanResolve(rawURL string) bool {
	if videoExtensions[Extension(rawURL)] {
		return false
	}
	return onPlatform(rawURL, r.hosts...)
}

// Resolve fetches the page and returns its video meta tag
func (r *OpenGraphResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if r.headers != nil {
		r.headers.Apply(req, rawURL)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, openGraphMaxPage))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	for _, prop := range openGraphProperties {
		content := metaContent(doc, prop)
		if content == "" {
			continue
		}
		if abs, ok := absoluteURL(rawURL, content); ok {
			return abs, nil
		}
	}
	return "", fmt.Errorf("no video meta tag on %s", rawURL)
}

// metaContent returns the content of the first meta tag whose property or
// name equals prop
func metaContent(doc *goquery.Document, prop string) string {
	selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func absoluteURL(pageURL, ref string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	u, err := base.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return u.String(), true
}
