package app

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure/resolvers"
)

// runCall records one fake tool invocation
type runCall struct {
	Tool domain.Tool
	Args []string
}

// input returns the argument following -i, or the last argument
func (c runCall) input() string {
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == "-i" {
			return c.Args[i+1]
		}
	}
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// output returns the last argument
func (c runCall) output() string {
	return c.Args[len(c.Args)-1]
}

// flag returns the value following name
func (c runCall) flag(name string) string {
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == name {
			return c.Args[i+1]
		}
	}
	return ""
}

func (c runCall) seconds(name string) float64 {
	v, _ := strconv.ParseFloat(c.flag(name), 64)
	return v
}

// fakeRunner records calls and answers them with handle
type fakeRunner struct {
	mu     sync.Mutex
	calls  []runCall
	handle func(ctx context.Context, call runCall) *domain.ProcessResult
}

func (f *fakeRunner) Run(ctx context.Context, tool domain.Tool, args []string, timeout time.Duration) *domain.ProcessResult {
	call := runCall{Tool: tool, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.handle == nil {
		return &domain.ProcessResult{}
	}
	return f.handle(ctx, call)
}

func (f *fakeRunner) Calls() []runCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runCall(nil), f.calls...)
}

func exited(code int, stderr string) *domain.ProcessResult {
	return &domain.ProcessResult{ExitCode: code, Stderr: stderr}
}

func timedOut() *domain.ProcessResult {
	return &domain.ProcessResult{ExitCode: -1, TimedOut: true, Stderr: "process timed out after 10ms"}
}

// writeFrame writes a solid w x h image to path; the extension picks the format
func writeFrame(path string, c color.Color, w, h int) *domain.ProcessResult {
	if err := imaging.Save(imaging.New(w, h, c), path); err != nil {
		return &domain.ProcessResult{ExitCode: 1, Stderr: err.Error()}
	}
	return &domain.ProcessResult{}
}

// writeBytes writes n bytes to path
func writeBytes(path string, n int) *domain.ProcessResult {
	if err := os.WriteFile(path, make([]byte, n), 0644); err != nil {
		return &domain.ProcessResult{ExitCode: 1, Stderr: err.Error()}
	}
	return &domain.ProcessResult{}
}

func probeJSON(width, height int, duration float64) *domain.ProcessResult {
	return &domain.ProcessResult{Stdout: fmt.Sprintf(
		`{"streams":[{"codec_type":"video","codec_name":"h264","width":%d,"height":%d}],"format":{"format_name":"mp4","duration":"%g","bit_rate":"800000"}}`,
		width, height, duration)}
}

// countingResolver maps URLs on host to media and counts resolutions
type countingResolver struct {
	host  string
	media string
	calls atomic.Int32
}

func (r *countingResolver) Name() string  { return "counting" }
func (r *countingResolver) Priority() int { return 10 }

func (r *countingResolver) CanResolve(rawURL string) bool {
	return strings.Contains(rawURL, r.host)
}

func (r *countingResolver) Resolve(context.Context, string) (string, error) {
	r.calls.Add(1)
	return r.media, nil
}

// fakeDownloader writes files into dir and counts cleanups
type fakeDownloader struct {
	dir       string
	ext       string
	fail      bool
	failKind  domain.ErrorKind
	write     func(path string) error
	downloads atomic.Int32
	cleanups  atomic.Int32
}

func newFakeDownloader(t *testing.T) *fakeDownloader {
	t.Helper()
	return &fakeDownloader{dir: t.TempDir(), ext: "mp4"}
}

func (d *fakeDownloader) Download(_ context.Context, url string) *domain.DownloadResult {
	n := d.downloads.Add(1)
	if d.fail {
		return domain.NewFailedDownload(d.failKind, "unexpected status 404", time.Millisecond)
	}

	path := filepath.Join(d.dir, fmt.Sprintf("download_%d.%s", n, d.ext))
	write := d.write
	if write == nil {
		write = func(p string) error { return os.WriteFile(p, []byte("media"), 0644) }
	}
	if err := write(path); err != nil {
		return domain.NewFailedDownload(domain.ErrorUnknown, err.Error(), time.Millisecond)
	}
	return domain.NewDownloadResult(path, 5, time.Millisecond, func() {
		d.cleanups.Add(1)
		_ = os.Remove(path)
	})
}

// testConfig returns defaults with fast retries and per-test directories
func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	config := domain.DefaultConfig()
	config.FFmpeg.TempDir = t.TempDir()
	config.FFmpeg.RetryDelay = time.Millisecond
	config.Queue.OutputDir = t.TempDir()
	config.Queue.CheckInterval = 20 * time.Millisecond
	config.Logging.LogsDir = t.TempDir()
	return config
}

type testPipeline struct {
	config     *domain.Config
	runner     *fakeRunner
	downloader *fakeDownloader
	tracker    *infrastructure.DomainTracker
	registry   *resolvers.Registry
	service    *MediaService
}

func newTestPipeline(t *testing.T, config *domain.Config) *testPipeline {
	t.Helper()
	if config == nil {
		config = testConfig(t)
	}
	logger := zap.NewNop()
	p := &testPipeline{
		config:     config,
		runner:     &fakeRunner{},
		downloader: newFakeDownloader(t),
		tracker:    infrastructure.NewDomainTracker(&config.Adaptive, logger),
		registry:   resolvers.NewRegistry(logger),
	}
	p.service = NewMediaService(config, p.runner, p.downloader, infrastructure.NewFileManager(config.FFmpeg.TempDir),
		p.tracker, p.registry, infrastructure.NewHTTPSettings(&config.HTTP), logger)
	return p
}

// tempFiles lists what is left in the pipeline temp dir
func (p *testPipeline) tempFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(p.config.FFmpeg.TempDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// memoryRepo is an in-memory domain.JobRepository storing copies
type memoryRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{jobs: make(map[string]domain.Job)}
}

func (m *memoryRepo) Create(job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryRepo) Update(job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s not found", job.ID)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *memoryRepo) FindByID(id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return &job, nil
}

func (m *memoryRepo) FindPending() ([]*domain.Job, error) {
	return m.FindAll(map[string]interface{}{"status": domain.StatusQueued})
}

func (m *memoryRepo) FindAll(filters map[string]interface{}) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for _, job := range m.jobs {
		if status, ok := filters["status"]; ok && fmt.Sprint(status) != string(job.Status) {
			continue
		}
		if kind, ok := filters["kind"]; ok && fmt.Sprint(kind) != string(job.Kind) {
			continue
		}
		j := job
		out = append(out, &j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Priority != out[k].Priority {
			return out[i].Priority > out[k].Priority
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}

func (m *memoryRepo) ResetProcessing() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, job := range m.jobs {
		if job.Status == domain.StatusProcessing {
			job.Status = domain.StatusQueued
			m.jobs[id] = job
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) GetStats() (*domain.JobStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.JobStats{ByKind: make(map[domain.JobKind]int64)}
	for _, job := range m.jobs {
		stats.Total++
		stats.ByKind[job.Kind]++
		switch job.Status {
		case domain.StatusQueued:
			stats.Queued++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (m *memoryRepo) Close() error { return nil }

func (m *memoryRepo) status(id string) domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}
