package domain

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Limits on caller-supplied source names. Names over the length limit, and
// new names once the registry is full, are recorded as SourceUnknown.
const (
	MaxSourceNameLength = 64
	MaxMediaSources     = 256
)

// MediaSource names a content provider that supplies URLs to the pipeline
type MediaSource struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// MediaSourceRegistry is a case-insensitive insert-if-absent set of sources
type MediaSourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]MediaSource // lowercase key
}

// SourceUnknown is used when a caller does not name its source
const SourceUnknown = "All"

var builtinSources = []string{
	"4Chan", "Picsum", "Imgur", "Rule34", "Google",
	"Tenor", "TMDB", "Youtube", SourceUnknown, "UrbanDictionary",
}

// NewMediaSourceRegistry creates a registry pre-seeded with the built-in providers
func NewMediaSourceRegistry() *MediaSourceRegistry {
	r := &MediaSourceRegistry{sources: make(map[string]MediaSource, len(builtinSources))}
	for _, name := range builtinSources {
		r.Register(name)
	}
	return r
}

// Register returns the existing source matching name, or inserts a new one.
// The first registration fixes the display name.
func (r *MediaSourceRegistry) Register(name string) MediaSource {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxSourceNameLength {
		name = SourceUnknown
	}
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if source, ok := r.sources[key]; ok {
		return source
	}
	if len(r.sources) >= MaxMediaSources {
		return r.sources[strings.ToLower(SourceUnknown)]
	}
	source := MediaSource{Key: key, DisplayName: name}
	r.sources[key] = source
	return source
}

// Lookup finds a source by name, ignoring case
func (r *MediaSourceRegistry) Lookup(name string) (MediaSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	return source, ok
}

// All returns every registered source sorted by key
func (r *MediaSourceRegistry) All() []MediaSource {
	r.mu.RLock()
	out := make([]MediaSource, 0, len(r.sources))
	for _, source := range r.sources {
		out = append(out, source)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
