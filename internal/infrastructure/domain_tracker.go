package infrastructure

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

// domainCounters holds the live counters for one domain
type domainCounters struct {
	directSuccesses        atomic.Int64
	directFailures         atomic.Int64
	downloadFirstSuccesses atomic.Int64
	lastUpdated            atomic.Int64 // unix nanos
}

func (c *domainCounters) touch() {
	c.lastUpdated.Store(time.Now().UnixNano())
}

func (c *domainCounters) snapshot(key string) domain.DomainStats {
	return domain.DomainStats{
		Domain:                 key,
		DirectSuccesses:        c.directSuccesses.Load(),
		DirectFailures:         c.directFailures.Load(),
		DownloadFirstSuccesses: c.downloadFirstSuccesses.Load(),
		LastUpdated:            time.Unix(0, c.lastUpdated.Load()),
	}
}

// DomainTracker learns per domain whether the direct path works. Counters are
// atomics in a sync.Map, so recording never takes a global lock.
type DomainTracker struct {
	domains sync.Map // domain key -> *domainCounters
	count   atomic.Int64
	config  *domain.AdaptiveConfig
	logger  *zap.Logger
}

// NewDomainTracker creates a new domain tracker
func NewDomainTracker(config *domain.AdaptiveConfig, logger *zap.Logger) *DomainTracker {
	return &DomainTracker{
		config: config,
		logger: logger,
	}
}

// DomainKey returns the tracking key for rawURL: the lowercase host without a
// leading "www.". Unparsable URLs yield "".
func DomainKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// ShouldDownloadFirst reports whether the domain of rawURL has failed the
// direct path often enough to skip it. Unknown and under-sampled domains
// return false.
func (t *DomainTracker) ShouldDownloadFirst(rawURL string) bool {
	key := DomainKey(rawURL)
	if key == "" {
		return false
	}
	v, ok := t.domains.Load(key)
	if !ok {
		return false
	}
	return t.prefersDownloadFirst(v.(*domainCounters).snapshot(key))
}

func (t *DomainTracker) prefersDownloadFirst(stats domain.DomainStats) bool {
	minSamples := int64(t.config.MinSampleSize)
	if minSamples < 1 {
		minSamples = 1
	}
	if stats.Samples() < minSamples {
		return false
	}
	return stats.FailureRatio() > t.config.FailureRatio
}

// RecordDirectSuccess records a successful direct-path run
func (t *DomainTracker) RecordDirectSuccess(rawURL string) {
	if c := t.counters(rawURL); c != nil {
		c.directSuccesses.Add(1)
		c.touch()
	}
}

// RecordDirectFailure records a direct-path failure
func (t *DomainTracker) RecordDirectFailure(rawURL string) {
	if c := t.counters(rawURL); c != nil {
		c.directFailures.Add(1)
		c.touch()
	}
}

// RecordDownloadFirstSuccess records a successful download-first run
func (t *DomainTracker) RecordDownloadFirstSuccess(rawURL string) {
	if c := t.counters(rawURL); c != nil {
		c.downloadFirstSuccesses.Add(1)
		c.touch()
	}
}

// Stats returns the counters for the domain of rawURL
func (t *DomainTracker) Stats(rawURL string) (domain.DomainStats, bool) {
	key := DomainKey(rawURL)
	if key == "" {
		// allow bare domains as well as URLs
		key = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(rawURL)), "www.")
	}
	v, ok := t.domains.Load(key)
	if !ok {
		return domain.DomainStats{Domain: key}, false
	}
	stats := v.(*domainCounters).snapshot(key)
	stats.PreferDownloadFirst = t.prefersDownloadFirst(stats)
	return stats, true
}

// AllStats returns every tracked domain sorted by name
func (t *DomainTracker) AllStats() []domain.DomainStats {
	var out []domain.DomainStats
	t.domains.Range(func(k, v any) bool {
		stats := v.(*domainCounters).snapshot(k.(string))
		stats.PreferDownloadFirst = t.prefersDownloadFirst(stats)
		out = append(out, stats)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Len returns the number of tracked domains
func (t *DomainTracker) Len() int {
	return int(t.count.Load())
}

// Clear forgets every domain
func (t *DomainTracker) Clear() {
	t.domains.Range(func(k, _ any) bool {
		if _, loaded := t.domains.LoadAndDelete(k); loaded {
			t.count.Add(-1)
		}
		return true
	})
	metrics.TrackedDomains.Set(float64(t.count.Load()))
	t.logger.Info("Cleared adaptive domain statistics")
}

// counters returns the counters for rawURL's domain, creating them on first use
func (t *DomainTracker) counters(rawURL string) *domainCounters {
	key := DomainKey(rawURL)
	if key == "" {
		return nil
	}
	if v, ok := t.domains.Load(key); ok {
		return v.(*domainCounters)
	}
	v, loaded := t.domains.LoadOrStore(key, &domainCounters{})
	if !loaded {
		if n := t.count.Add(1); t.config.MaxTrackedDomains > 0 && n > int64(t.config.MaxTrackedDomains) {
			t.evict(key)
		}
		metrics.TrackedDomains.Set(float64(t.count.Load()))
	}
	return v.(*domainCounters)
}

// evict drops the least useful domains until the tracker is back under its
// cap. Domains with fewer direct failures go first, then the least recently
// updated. keep is never evicted.
func (t *DomainTracker) evict(keep string) {
	type candidate struct {
		key      string
		failures int64
		updated  int64
	}
	var candidates []candidate
	t.domains.Range(func(k, v any) bool {
		if k.(string) == keep {
			return true
		}
		c := v.(*domainCounters)
		candidates = append(candidates, candidate{k.(string), c.directFailures.Load(), c.lastUpdated.Load()})
		return true
	})
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].failures != candidates[j].failures {
			return candidates[i].failures < candidates[j].failures
		}
		return candidates[i].updated < candidates[j].updated
	})

	excess := t.count.Load() - int64(t.config.MaxTrackedDomains)
	for _, c := range candidates {
		if excess <= 0 {
			break
		}
		if _, loaded := t.domains.LoadAndDelete(c.key); loaded {
			t.count.Add(-1)
			excess--
		}
	}
	t.logger.Debug("Evicted tracked domains", zap.Int64("tracked", t.count.Load()))
}
