// Package resolvers maps platform page URLs to directly processable media
// URLs through a priority-ordered chain of resolvers.
package resolvers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

// Registry holds resolvers sorted by descending priority. The zero value is
// not usable; create one with NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	resolvers []domain.Resolver
	direct    domain.Resolver
	logger    *zap.Logger
}

// NewRegistry creates an empty registry that falls back to a direct resolver
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		direct: DirectResolver{},
		logger: logger,
	}
}

// Register adds resolvers. Safe to call while other goroutines resolve.
// Resolvers with equal priority keep their registration order.
func (r *Registry) Register(resolvers ...domain.Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolvers = append(r.resolvers, resolvers...)
	sort.SliceStable(r.resolvers, func(i, j int) bool {
		return r.resolvers[i].Priority() > r.resolvers[j].Priority()
	})
	for _, res := range resolvers {
		r.logger.Debug("Registered resolver",
			zap.String("resolver", res.Name()),
			zap.Int("priority", res.Priority()))
	}
}

// Resolvers returns the registered resolvers in priority order
func (r *Registry) Resolvers() []domain.Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Resolver, len(r.resolvers))
	copy(out, r.resolvers)
	return out
}

// Resolver returns the first resolver that can handle rawURL, or the direct
// resolver when none matches
func (r *Registry) Resolver(rawURL string) domain.Resolver {
	for _, res := range r.Resolvers() {
		if r.canResolve(res, rawURL) {
			return res
		}
	}
	return r.direct
}

// Resolve maps rawURL to a media URL. It never fails: errors, panics, empty
// results and anything other than an absolute http(s) URL all yield rawURL
// unchanged.
func (r *Registry) Resolve(ctx context.Context, rawURL string) string {
	res := r.Resolver(rawURL)
	if res == r.direct {
		return rawURL
	}

	resolved, err := r.safeResolve(ctx, res, rawURL)
	switch {
	case err != nil:
		metrics.ResolverOutcomesTotal.WithLabelValues(res.Name(), metrics.OutcomeFailure).Inc()
		r.logger.Warn("Resolver failed, using original URL",
			zap.String("resolver", res.Name()),
			zap.String("url", rawURL),
			zap.Error(err))
		return rawURL
	case strings.TrimSpace(resolved) == "":
		metrics.ResolverOutcomesTotal.WithLabelValues(res.Name(), metrics.OutcomeFailure).Inc()
		return rawURL
	}

	if err := infrastructure.ValidateMediaURL(resolved); err != nil {
		metrics.ResolverOutcomesTotal.WithLabelValues(res.Name(), metrics.OutcomeFailure).Inc()
		r.logger.Warn("Resolver returned an unusable URL, using original URL",
			zap.String("resolver", res.Name()),
			zap.String("url", rawURL),
			zap.Error(err))
		return rawURL
	}

	metrics.ResolverOutcomesTotal.WithLabelValues(res.Name(), metrics.OutcomeSuccess).Inc()
	if resolved != rawURL {
		r.logger.Debug("Resolved URL",
			zap.String("resolver", res.Name()),
			zap.String("url", rawURL),
			zap.String("resolved", resolved))
	}
	return resolved
}

func (r *Registry) safeResolve(ctx context.Context, res domain.Resolver, rawURL string) (resolved string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("resolver %s panicked: %v", res.Name(), p)
		}
	}()
	return res.Resolve(ctx, rawURL)
}

func (r *Registry) canResolve(res domain.Resolver, rawURL string) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("Resolver match panicked", zap.String("resolver", res.Name()), zap.Any("panic", p))
			ok = false
		}
	}()
	return res.CanResolve(rawURL)
}

// DirectResolver passes URLs through unchanged
type DirectResolver struct{}

// Name returns the resolver name
func (DirectResolver) Name() string { return "direct" }

// CanResolve accepts every URL
func (DirectResolver) CanResolve(string) bool { return true }

// Resolve returns rawURL unchanged
func (DirectResolver) Resolve(_ context.Context, rawURL string) (string, error) { return rawURL, nil }

// Priority returns 0, below every platform resolver
func (DirectResolver) Priority() int { return 0 }
