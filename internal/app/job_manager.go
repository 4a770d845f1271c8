package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
	"github.com/yourusername/media-pipeline-go/pkg/logger"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// ColorResult is the stored result of a color job
type ColorResult struct {
	R   uint8  `json:"r"`
	G   uint8  `json:"g"`
	B   uint8  `json:"b"`
	Hex string `json:"hex"`
}

// NewColorResult converts c into its stored form
func NewColorResult(c color.RGBA) ColorResult {
	return ColorResult{R: c.R, G: c.G, B: c.B, Hex: ColorHex(c)}
}

// JobRequest describes a job to enqueue
type JobRequest struct {
	URL      string            `json:"url"`
	Kind     domain.JobKind    `json:"kind"`
	Source   string            `json:"source"`
	Priority int               `json:"priority"`
	Gif      *domain.GifParams `json:"gif,omitempty"`
}

// JobManager runs persisted media jobs in the background
type JobManager struct {
	repo        domain.JobRepository
	service     *MediaService
	config      *domain.QueueConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger

	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
	slots       chan struct{}
	active      map[string]context.CancelFunc
	lastCleanup time.Time
}

// NewJobManager creates a new job manager
func NewJobManager(
	repo domain.JobRepository,
	service *MediaService,
	config *domain.QueueConfig,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
) *JobManager {
	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}
	return &JobManager{
		repo:        repo,
		service:     service,
		config:      config,
		logger:      log,
		multiLogger: multiLogger,
		slots:       make(chan struct{}, limit),
		active:      make(map[string]context.CancelFunc),
	}
}

func (jm *JobManager) event(name string, fields ...zap.Field) {
	if jm.multiLogger != nil {
		jm.multiLogger.LogJobEvent(name, fields...)
	}
}

func (jm *JobManager) appError(msg string, fields ...zap.Field) {
	if jm.multiLogger != nil {
		jm.multiLogger.LogAppError(msg, fields...)
	}
	jm.logger.Error(msg, fields...)
}

// Start requeues jobs interrupted by an earlier run and starts the processor
func (jm *JobManager) Start(ctx context.Context) error {
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return fmt.Errorf("job manager already running")
	}
	jm.running = true
	jm.stopChan = make(chan struct{})
	jm.mu.Unlock()

	if n, err := jm.repo.ResetProcessing(); err != nil {
		jm.appError("Failed to requeue interrupted jobs", zap.Error(err))
	} else if n > 0 {
		jm.event("jobs_requeued", zap.Int64("count", n))
	}

	jm.event("queue_started")
	jm.workerWg.Add(1)
	go jm.processQueue(ctx)
	return nil
}

// Stop stops the processor, cancels running jobs and waits for them
func (jm *JobManager) Stop() error {
	jm.mu.Lock()
	if !jm.running {
		jm.mu.Unlock()
		return fmt.Errorf("job manager not running")
	}
	jm.running = false
	close(jm.stopChan)
	for _, cancel := range jm.active {
		cancel()
	}
	jm.mu.Unlock()

	jm.workerWg.Wait()
	jm.event("queue_stopped")
	return nil
}

// IsRunning returns whether the job manager is running
func (jm *JobManager) IsRunning() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.running
}

// AddJob validates and persists a new queued job
func (jm *JobManager) AddJob(req JobRequest) (*domain.Job, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidURL)
	}
	if !domain.ValidateJobKind(req.Kind) {
		return nil, fmt.Errorf("invalid job kind: %s", req.Kind)
	}

	source := domain.SourceUnknown
	if req.Source != "" {
		source = req.Source
	}
	job := domain.NewJob(req.URL, req.Kind, jm.service.Sources().Register(source).Key)
	job.Priority = req.Priority
	if req.Gif != nil {
		if err := job.SetGifParams(*req.Gif); err != nil {
			return nil, fmt.Errorf("failed to encode gif params: %w", err)
		}
	}

	if err := jm.repo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jm.event("job_added",
		zap.String("id", job.ID),
		zap.String("url", job.URL),
		zap.String("kind", string(job.Kind)),
		zap.String("source", job.Source))
	return job, nil
}

// GetJob retrieves a job by ID
func (jm *JobManager) GetJob(id string) (*domain.Job, error) {
	job, err := jm.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// ListJobs lists jobs with optional column filters
func (jm *JobManager) ListJobs(filters map[string]interface{}) ([]*domain.Job, error) {
	return jm.repo.FindAll(filters)
}

// GetStats returns job statistics
func (jm *JobManager) GetStats() (*domain.JobStats, error) {
	return jm.repo.GetStats()
}

// CancelJob cancels a queued or running job
func (jm *JobManager) CancelJob(id string) (*domain.Job, error) {
	job, err := jm.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return nil, fmt.Errorf("job %s already %s", id, job.Status)
	}

	jm.mu.Lock()
	cancel, running := jm.active[id]
	jm.mu.Unlock()
	if running {
		// the worker records the cancellation when it unwinds
		cancel()
	}

	job.MarkCancelled()
	if err := jm.repo.Update(job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	jm.event("job_cancelled", zap.String("id", id))
	return job, nil
}

// RetryJob requeues a failed or cancelled job
func (jm *JobManager) RetryJob(id string) (*domain.Job, error) {
	job, err := jm.GetJob(id)
	if err != nil {
		return nil, err
	}
	if !job.CanRetry() {
		return nil, fmt.Errorf("job %s is %s and cannot be retried", id, job.Status)
	}

	job.Requeue()
	if err := jm.repo.Update(job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	jm.event("job_retried", zap.String("id", id), zap.Int("retry_count", job.RetryCount))
	return job, nil
}

// DeleteJob removes a finished job and its result file
func (jm *JobManager) DeleteJob(id string) error {
	job, err := jm.GetJob(id)
	if err != nil {
		return err
	}
	if job.Status == domain.StatusProcessing {
		return fmt.Errorf("job %s is processing; cancel it first", id)
	}
	if job.ResultPath != "" {
		if err := os.Remove(job.ResultPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			jm.logger.Warn("Failed to remove job result", zap.String("path", job.ResultPath), zap.Error(err))
		}
	}
	if err := jm.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	jm.event("job_deleted", zap.String("id", id))
	return nil
}

// processQueue polls for queued jobs until stopped
func (jm *JobManager) processQueue(ctx context.Context) {
	defer jm.workerWg.Done()

	ticker := time.NewTicker(jm.config.CheckInterval)
	defer ticker.Stop()

	jm.dispatchPending(ctx)
	for {
		select {
		case <-ctx.Done():
			jm.event("queue_processor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-jm.stopChan:
			jm.event("queue_processor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			jm.dispatchPending(ctx)
			jm.cleanupTempFiles()
		}
	}
}

// dispatchPending claims queued jobs and runs each on its own goroutine;
// the slots channel bounds how many run at once
func (jm *JobManager) dispatchPending(ctx context.Context) {
	pending, err := jm.repo.FindPending()
	if err != nil {
		jm.appError("Failed to fetch pending jobs", zap.Error(err))
		return
	}

	for _, job := range pending {
		jm.mu.Lock()
		_, claimed := jm.active[job.ID]
		if claimed || !jm.running {
			jm.mu.Unlock()
			continue
		}
		jobCtx, cancel := context.WithCancel(ctx)
		jm.active[job.ID] = cancel
		jm.mu.Unlock()

		jm.workerWg.Add(1)
		go func(job *domain.Job) {
			defer jm.workerWg.Done()
			defer func() {
				jm.mu.Lock()
				delete(jm.active, job.ID)
				jm.mu.Unlock()
				cancel()
			}()

			select {
			case jm.slots <- struct{}{}:
				defer func() { <-jm.slots }()
			case <-jobCtx.Done():
				return
			}

			if err := jm.ProcessJob(jobCtx, job); err != nil {
				jm.appError("Failed to process job", zap.String("id", job.ID), zap.Error(err))
			}
		}(job)
	}
}

// ProcessJob runs one job to completion and persists the outcome. The
// returned error covers persistence only; pipeline failures are recorded on
// the job.
func (jm *JobManager) ProcessJob(ctx context.Context, job *domain.Job) error {
	// the job may have been cancelled while it waited for a slot
	if current, err := jm.repo.FindByID(job.ID); err == nil && current.Status != domain.StatusQueued {
		return nil
	}

	job.MarkProcessing()
	if err := jm.repo.Update(job); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	jm.event("job_started",
		zap.String("id", job.ID),
		zap.String("url", job.URL),
		zap.String("kind", string(job.Kind)))

	resultPath, metadata, kind, runErr := jm.run(ctx, job)

	if ctx.Err() != nil && resultPath != "" {
		_ = os.Remove(resultPath)
		resultPath = ""
	}
	if ctx.Err() != nil && !jm.IsRunning() {
		// left in processing; the next Start requeues it
		jm.event("job_interrupted", zap.String("id", job.ID))
		return nil
	}

	switch {
	case ctx.Err() != nil:
		job.MarkCancelled()
	case runErr != nil:
		job.MarkFailed(kind, runErr.Error())
	default:
		job.MarkCompleted(resultPath, metadata)
	}
	metrics.JobsTotal.WithLabelValues(string(job.Kind), string(job.Status)).Inc()

	if err := jm.repo.Update(job); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	switch job.Status {
	case domain.StatusCompleted:
		jm.event("job_completed",
			zap.String("id", job.ID),
			zap.String("result_path", job.ResultPath))
	case domain.StatusFailed:
		jm.event("job_failed",
			zap.String("id", job.ID),
			zap.String("kind", string(job.ErrorKind)),
			zap.String("error", job.ErrorMessage))
	default:
		jm.event("job_cancelled", zap.String("id", job.ID))
	}
	return nil
}

// run executes the pipeline operation for job
func (jm *JobManager) run(ctx context.Context, job *domain.Job) (string, any, domain.ErrorKind, error) {
	switch job.Kind {
	case domain.JobProbe:
		result := jm.service.Probe(ctx, job.URL)
		if !result.Success {
			return "", nil, result.Kind, errors.New(result.ErrorMessage)
		}
		return "", result.Data, domain.ErrorNone, nil

	case domain.JobColor:
		return "", NewColorResult(jm.service.ExtractDominantColor(ctx, job.URL)), domain.ErrorNone, nil

	case domain.JobGif, domain.JobSmartGif, domain.JobPreviewGif:
		var result domain.OperationResult[GifOutput]
		switch job.Kind {
		case domain.JobGif:
			params, err := job.GifParams()
			if err != nil {
				return "", nil, domain.ErrorInvalidInput, fmt.Errorf("invalid gif params: %w", err)
			}
			result = jm.service.CreateGif(ctx, job.URL, GifOptions{
				Start:    params.Start,
				Duration: params.Duration,
				Width:    params.Width,
				Height:   params.Height,
			})
		case domain.JobSmartGif:
			result = jm.service.CreateSmartGif(ctx, job.URL)
		default:
			result = jm.service.CreatePreviewGif(ctx, job.URL)
		}
		if !result.Success {
			return "", nil, result.Kind, errors.New(result.ErrorMessage)
		}

		path, err := jm.service.Files().MoveTo(result.Data.Path, jm.config.OutputDir)
		if err != nil {
			_ = jm.service.Files().Remove(result.Data.Path)
			return "", nil, domain.ErrorOutputMissing, fmt.Errorf("failed to store gif: %w", err)
		}
		output := result.Data
		output.Path = path
		return path, output, domain.ErrorNone, nil
	}
	return "", nil, domain.ErrorInvalidInput, fmt.Errorf("invalid job kind: %s", job.Kind)
}

// cleanupTempFiles removes stale temp files at most every TempFileMaxAge/2
func (jm *JobManager) cleanupTempFiles() {
	maxAge := jm.config.TempFileMaxAge
	if maxAge <= 0 || time.Since(jm.lastCleanup) < maxAge/2 {
		return
	}
	jm.lastCleanup = time.Now()

	removed, err := jm.service.Files().CleanupOlderThan(maxAge)
	if err != nil {
		jm.appError("Temp cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		metrics.TempFilesCleaned.Add(float64(removed))
		jm.event("temp_cleanup", zap.Int("removed", removed))
	}
}
