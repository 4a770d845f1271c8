package resolvers

import (
	"net/url"
	"strings"
)

var videoExtensions = map[string]bool{
	"mp4": true, "webm": true, "mov": true, "avi": true, "mkv": true, "flv": true,
	"wmv": true, "m4v": true, "m4s": true, "3gp": true, "ogv": true, "ts": true,
}

var staticImageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "bmp": true, "webp": true, "gif": true,
}

// videoPlatforms host media without a file extension in their page URLs
var videoPlatforms = []string{"redgifs.com", "gfycat.com", "youtube.com", "youtu.be", "streamable.com"}

// gifPlatforms serve short clips better shown as GIFs
var gifPlatforms = []string{"redgifs.com", "gfycat.com", "streamable.com"}

// StripQueryAndFragment drops everything from the first '?' or '#'
func StripQueryAndFragment(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Extension returns the lowercase file extension of the URL path, ignoring
// query string and fragment. URLs without a path extension yield "".
func Extension(rawURL string) string {
	p := StripQueryAndFragment(strings.TrimSpace(rawURL))
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		slash := strings.Index(p, "/")
		if slash < 0 {
			return ""
		}
		p = p[slash:]
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	dot := strings.LastIndex(p, ".")
	if dot < 0 || dot == len(p)-1 {
		return ""
	}
	return strings.ToLower(p[dot+1:])
}

// Host returns the lowercase host of rawURL without a leading "www."
func Host(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// hostMatches reports whether host is domain or a subdomain of it
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func onPlatform(rawURL string, platforms ...string) bool {
	host := Host(rawURL)
	for _, p := range platforms {
		if hostMatches(host, p) {
			return true
		}
	}
	return false
}

func isImgur(rawURL string) bool {
	return onPlatform(rawURL, "imgur.com")
}

// IsVideoURL reports whether rawURL points at video content, either by file
// extension or by a known video platform
func IsVideoURL(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	ext := Extension(rawURL)
	if videoExtensions[ext] {
		return true
	}
	if isImgur(rawURL) && ext == "gifv" {
		return true
	}
	return onPlatform(rawURL, videoPlatforms...)
}

// IsStaticImageURL reports whether rawURL has a still-image extension.
// GIFs count as static here since they decode as images.
func IsStaticImageURL(rawURL string) bool {
	return staticImageExtensions[Extension(rawURL)]
}

// ShouldConvertToGif reports whether the media is a short clip best shown as a GIF
func ShouldConvertToGif(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	if onPlatform(rawURL, gifPlatforms...) {
		return true
	}
	ext := Extension(rawURL)
	return isImgur(rawURL) && (ext == "mp4" || ext == "gifv")
}

// VideoPreviewURL returns a poster image URL for known platforms
func VideoPreviewURL(rawURL string) (string, bool) {
	base := StripQueryAndFragment(strings.TrimSpace(rawURL))
	switch {
	case onPlatform(base, "redgifs.com"):
		return strings.Replace(base, ".com/watch/", ".com/ifr/", 1) + "-preview.jpg", true
	case onPlatform(base, "gfycat.com"):
		id := gfycatID(base)
		if id == "" {
			return "", false
		}
		return "https://thumbs.gfycat.com/" + id + "-poster.jpg", true
	case isImgur(base) && Extension(base) == "mp4":
		return base[:len(base)-len(".mp4")] + "h.jpg", true
	}
	return "", false
}

func gfycatID(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return ""
	}
	for _, part := range parts[1:] {
		if len(part) > 5 && !strings.Contains(part, ".") {
			return part
		}
	}
	return parts[len(parts)-1]
}
