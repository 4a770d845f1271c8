package resolvers

import (
	"context"
	"fmt"
	"strings"
)

// ImgurResolver rewrites imgur .gifv pages to the .mp4 they wrap
type ImgurResolver struct{}

// Name returns the resolver name
func (ImgurResolver) Name() string { return "imgur" }

// Priority returns the resolver priority
func (ImgurResolver) Priority() int { return 8 }

// CanResolve reports whether rawURL is an imgur .gifv link
func (ImgurResolver) CanResolve(rawURL string) bool {
	return isImgur(rawURL) && Extension(rawURL) == "gifv"
}

// Resolve swaps the .gifv extension for .mp4, dropping query and fragment
func (ImgurResolver) Resolve(_ context.Context, rawURL string) (string, error) {
	base := StripQueryAndFragment(strings.TrimSpace(rawURL))
	if !strings.HasSuffix(strings.ToLower(base), ".gifv") {
		return "", fmt.Errorf("not a gifv url: %s", rawURL)
	}
	return base[:len(base)-5] + ".mp4", nil
}
