package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

const (
	// maxWorkers caps the derived worker count; ffmpeg is heavy on both CPU and network
	maxWorkers = 16

	// killWaitDelay bounds how long Wait blocks on inherited pipes after a kill
	killWaitDelay = 2 * time.Second
)

// ProcessExecutor runs external tools with a timeout on a bounded pool of worker slots
type ProcessExecutor struct {
	binaries map[domain.Tool]string
	slots    chan struct{}
	logger   *zap.Logger
}

// NewProcessExecutor creates a new process executor
func NewProcessExecutor(config *domain.FFmpegConfig, logger *zap.Logger) *ProcessExecutor {
	workers := WorkerCount(config.Workers)
	return &ProcessExecutor{
		binaries: map[domain.Tool]string{
			domain.ToolFFmpeg:  config.FFmpegBinary,
			domain.ToolFFprobe: config.FFprobeBinary,
		},
		slots:  make(chan struct{}, workers),
		logger: logger,
	}
}

// WorkerCount returns configured when positive, otherwise two slots per
// available CPU capped at maxWorkers
func WorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	workers := runtime.GOMAXPROCS(0) * 2
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return workers
}

// Workers returns the size of the worker pool
func (e *ProcessExecutor) Workers() int {
	return cap(e.slots)
}

// Binary returns the executable configured for tool
func (e *ProcessExecutor) Binary(tool domain.Tool) string {
	if binary, ok := e.binaries[tool]; ok && binary != "" {
		return binary
	}
	return string(tool)
}

// Run executes tool with args and waits for it to finish. The process is
// killed when timeout elapses; the result is then marked TimedOut.
// Run never returns nil.
func (e *ProcessExecutor) Run(ctx context.Context, tool domain.Tool, args []string, timeout time.Duration) *domain.ProcessResult {
	start := time.Now()
	binary := e.Binary(tool)

	// Wait for a free slot
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return &domain.ProcessResult{
			ExitCode: -1,
			Err:      fmt.Errorf("waiting for worker slot: %w", ctx.Err()),
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Elapsed:  time.Since(start),
		}
	}
	defer func() { <-e.slots }()

	metrics.ProcessWorkersBusy.Inc()
	defer metrics.ProcessWorkersBusy.Dec()

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killWaitDelay

	e.logger.Debug("Running external tool",
		zap.String("tool", string(tool)),
		zap.String("command", RedactCommand(binary, args...)),
		zap.Duration("timeout", timeout))

	err := cmd.Run()

	result := &domain.ProcessResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.TimedOut = true
		result.Stderr += fmt.Sprintf("\nprocess timed out after %s", timeout)
	case ctx.Err() != nil:
		result.ExitCode = -1
		result.Err = ctx.Err()
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Err = fmt.Errorf("failed to start %s: %w", binary, err)
		}
	}

	e.record(tool, result)
	return result
}

func (e *ProcessExecutor) record(tool domain.Tool, result *domain.ProcessResult) {
	outcome := metrics.OutcomeSuccess
	switch {
	case result.TimedOut:
		outcome = metrics.OutcomeTimeout
	case !result.IsSuccessful():
		outcome = metrics.OutcomeFailure
	}
	metrics.ProcessRunsTotal.WithLabelValues(string(tool), outcome).Inc()
	metrics.ProcessDuration.WithLabelValues(string(tool)).Observe(result.Elapsed.Seconds())

	if !result.IsSuccessful() {
		e.logger.Debug("External tool failed",
			zap.String("tool", string(tool)),
			zap.Int("exit_code", result.ExitCode),
			zap.Bool("timed_out", result.TimedOut),
			zap.Duration("elapsed", result.Elapsed),
			zap.String("stderr_tail", tail(result.Stderr, 512)))
	}
}

// tail returns at most the last n bytes of s
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
