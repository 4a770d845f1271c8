package domain

import "context"

// Resolver maps a platform page URL to a directly processable media URL
type Resolver interface {
	// Name identifies the resolver in logs and metrics
	Name() string

	// CanResolve reports whether the resolver handles the URL
	CanResolve(url string) bool

	// Resolve returns the media URL. Errors are absorbed by the registry,
	// which falls back to the original URL.
	Resolve(ctx context.Context, url string) (string, error)

	// Priority orders resolvers; higher runs first
	Priority() int
}
