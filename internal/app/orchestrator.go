package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

// ProcessRunner runs an external tool with a timeout
type ProcessRunner interface {
	Run(ctx context.Context, tool domain.Tool, args []string, timeout time.Duration) *domain.ProcessResult
}

// URLResolver maps platform page URLs to media URLs and never fails
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// StrategyTracker keeps per-domain outcomes used to pick a strategy
type StrategyTracker interface {
	ShouldDownloadFirst(rawURL string) bool
	RecordDirectSuccess(rawURL string)
	RecordDirectFailure(rawURL string)
	RecordDownloadFirstSuccess(rawURL string)
}

// HeaderArgs returns the tool arguments that carry request headers for rawURL
type HeaderArgs interface {
	FFmpegHeaderArgs(rawURL string) []string
}

// Operation describes one external tool invocation. Args must contain
// domain.InputPlaceholder where the media location goes.
type Operation struct {
	Name       string
	Tool       domain.Tool
	Args       []string
	Timeout    time.Duration
	OutputPath string // checked for a non-empty file after a clean exit
}

// Orchestrator runs operations against remote media, choosing between the
// direct and the download-first path per domain
type Orchestrator struct {
	runner     ProcessRunner
	downloader domain.MediaDownloader
	tracker    StrategyTracker
	resolver   URLResolver
	headers    HeaderArgs
	config     *domain.FFmpegConfig
	logger     *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	runner ProcessRunner,
	downloader domain.MediaDownloader,
	tracker StrategyTracker,
	resolver URLResolver,
	headers HeaderArgs,
	config *domain.FFmpegConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		runner:     runner,
		downloader: downloader,
		tracker:    tracker,
		resolver:   resolver,
		headers:    headers,
		config:     config,
		logger:     logger,
	}
}

// Resolve maps a remote rawURL to its media URL. Local paths and empty
// input are returned unchanged.
func (o *Orchestrator) Resolve(ctx context.Context, rawURL string) string {
	if o.resolver == nil || !infrastructure.IsRemoteURL(rawURL) {
		return rawURL
	}
	return o.resolver.Resolve(ctx, rawURL)
}

// Execute runs op against rawURL. Remote URLs are resolved first; local
// paths are handed to the tool unchanged.
func (o *Orchestrator) Execute(ctx context.Context, op Operation, rawURL string) domain.OperationResult[*domain.ProcessResult] {
	return o.ExecuteResolved(ctx, op, o.Resolve(ctx, rawURL))
}

// ExecuteResolved runs op against a target already returned by Resolve
func (o *Orchestrator) ExecuteResolved(ctx context.Context, op Operation, target string) domain.OperationResult[*domain.ProcessResult] {
	result, _ := o.execute(ctx, op, target, false)
	return result
}

// ExecuteAll runs ops against one media location, resolving rawURL once.
// The first op picks the strategy. When it went download-first, the file it
// downloaded is kept and the remaining ops read it locally; otherwise they
// run against the resolved target. Results keep the order of ops.
func (o *Orchestrator) ExecuteAll(ctx context.Context, ops []Operation, rawURL string) []domain.OperationResult[*domain.ProcessResult] {
	results := make([]domain.OperationResult[*domain.ProcessResult], len(ops))
	if len(ops) == 0 {
		return results
	}

	target := o.Resolve(ctx, rawURL)
	first, dl := o.execute(ctx, ops[0], target, true)
	defer dl.Cleanup()
	results[0] = first

	var wg sync.WaitGroup
	for i := 1; i < len(ops); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if dl == nil {
				results[i] = o.ExecuteResolved(ctx, ops[i], target)
				return
			}
			start := time.Now()
			op := o.withTimeout(ops[i])
			res := o.runAgainst(ctx, op, dl.Path, false)
			results[i] = o.finish(op, res, target, domain.StrategyDownloadFirst, start)
		}(i)
	}
	wg.Wait()

	return results
}

// execute runs op against target. With keep set, a successful download-first
// download is returned to the caller, who must clean it up.
func (o *Orchestrator) execute(ctx context.Context, op Operation, target string, keep bool) (domain.OperationResult[*domain.ProcessResult], *domain.DownloadResult) {
	start := time.Now()
	if strings.TrimSpace(target) == "" {
		return domain.Failed[*domain.ProcessResult](domain.ErrorInvalidInput,
			fmt.Errorf("%w: empty url", domain.ErrInvalidURL), target, 0), nil
	}
	op = o.withTimeout(op)

	if !infrastructure.IsRemoteURL(target) {
		res := o.runAgainst(ctx, op, target, false)
		return o.finish(op, res, target, domain.StrategyLocal, start), nil
	}

	if o.tracker.ShouldDownloadFirst(target) {
		o.logger.Debug("Domain prefers download-first",
			zap.String("operation", op.Name),
			zap.String("domain", infrastructure.DomainKey(target)))
		return o.downloadFirst(ctx, op, target, start, keep)
	}

	res := o.runAgainst(ctx, op, target, true)
	if res.kind == domain.ErrorNone {
		o.tracker.RecordDirectSuccess(target)
		return o.finish(op, res, target, domain.StrategyDirect, start), nil
	}

	if ctx.Err() == nil && o.config.AdaptiveDownload && o.shouldFallback(res) {
		o.tracker.RecordDirectFailure(target)
		metrics.StrategyFallbacksTotal.WithLabelValues(string(res.kind)).Inc()
		o.logger.Info("Direct read failed, retrying with download-first",
			zap.String("operation", op.Name),
			zap.String("url", target),
			zap.String("kind", string(res.kind)))
		return o.downloadFirst(ctx, op, target, start, keep)
	}

	return o.finish(op, res, target, domain.StrategyDirect, start), nil
}

func (o *Orchestrator) withTimeout(op Operation) Operation {
	if op.Timeout <= 0 {
		op.Timeout = o.config.DefaultTimeout
	}
	return op
}

// shouldFallback reports whether a failed direct read is retried with
// download-first. Only the classified kind decides.
func (o *Orchestrator) shouldFallback(res attemptResult) bool {
	return res.kind.TriggersFallback()
}

func (o *Orchestrator) downloadFirst(ctx context.Context, op Operation, target string, start time.Time, keep bool) (domain.OperationResult[*domain.ProcessResult], *domain.DownloadResult) {
	dl := o.downloader.Download(ctx, target)
	if dl == nil || !dl.Success {
		kind, msg := domain.ErrorNetwork, "no result"
		if dl != nil {
			dl.Cleanup()
			msg = dl.ErrorMessage
			if dl.Kind != domain.ErrorNone {
				kind = dl.Kind
			}
		}
		metrics.OperationsTotal.WithLabelValues(op.Name, string(domain.StrategyDownloadFirst), metrics.OutcomeFailure).Inc()
		result := domain.Failed[*domain.ProcessResult](kind,
			fmt.Errorf("%w: %s", domain.ErrDownloadFailed, msg), target, time.Since(start))
		result.Strategy = domain.StrategyDownloadFirst
		return result, nil
	}
	if !keep {
		defer dl.Cleanup()
	}

	res := o.runAgainst(ctx, op, dl.Path, false)
	if res.kind == domain.ErrorNone {
		o.tracker.RecordDownloadFirstSuccess(target)
	}
	result := o.finish(op, res, target, domain.StrategyDownloadFirst, start)
	if !keep {
		return result, nil
	}
	return result, dl
}

type attemptResult struct {
	process *domain.ProcessResult
	kind    domain.ErrorKind
	err     error
}

// runAgainst runs op with input substituted and checks the declared output
func (o *Orchestrator) runAgainst(ctx context.Context, op Operation, input string, remote bool) attemptResult {
	var headerArgs []string
	if remote && o.headers != nil {
		headerArgs = o.headers.FFmpegHeaderArgs(input)
	}
	args := BuildArgs(op.Args, input, headerArgs)

	if op.OutputPath != "" {
		// a stale file from an earlier attempt must not pass the output check
		_ = os.Remove(op.OutputPath)
	}

	process := o.runner.Run(ctx, op.Tool, args, op.Timeout)
	if process == nil {
		return attemptResult{kind: domain.ErrorProcess, err: fmt.Errorf("%s produced no result", op.Tool)}
	}
	if !process.IsSuccessful() {
		return attemptResult{process: process, kind: process.Classify(), err: processError(op, process)}
	}
	if op.OutputPath != "" && !outputExists(op.OutputPath) {
		return attemptResult{
			process: process,
			kind:    domain.ErrorOutputMissing,
			err:     fmt.Errorf("%w: %s", domain.ErrOutputMissing, op.OutputPath),
		}
	}
	return attemptResult{process: process}
}

func (o *Orchestrator) finish(op Operation, res attemptResult, url string, strategy domain.Strategy, start time.Time) domain.OperationResult[*domain.ProcessResult] {
	elapsed := time.Since(start)
	if res.kind == domain.ErrorNone {
		metrics.OperationsTotal.WithLabelValues(op.Name, string(strategy), metrics.OutcomeSuccess).Inc()
		result := domain.Succeeded(res.process, url, elapsed)
		result.Strategy = strategy
		return result
	}

	metrics.OperationsTotal.WithLabelValues(op.Name, string(strategy), metrics.OutcomeFailure).Inc()
	o.logger.Debug("Operation failed",
		zap.String("operation", op.Name),
		zap.String("strategy", string(strategy)),
		zap.String("kind", string(res.kind)),
		zap.Bool("download_hint", res.process != nil && res.process.SuggestsDownloadFirst()),
		zap.Error(res.err))

	result := domain.Failed[*domain.ProcessResult](res.kind, res.err, url, elapsed)
	result.Strategy = strategy
	return result
}

// BuildArgs substitutes input for the placeholder. headerArgs go right before
// the "-i" that precedes the placeholder, or first when there is none.
func BuildArgs(template []string, input string, headerArgs []string) []string {
	args := make([]string, 0, len(template)+len(headerArgs))
	at := 0
	for i, arg := range template {
		if arg == domain.InputPlaceholder && i > 0 && template[i-1] == "-i" {
			at = i - 1
			break
		}
	}

	for i, arg := range template {
		if i == at {
			args = append(args, headerArgs...)
		}
		if arg == domain.InputPlaceholder {
			arg = input
		}
		args = append(args, arg)
	}
	if len(template) == 0 {
		args = append(args, headerArgs...)
	}
	return args
}

func processError(op Operation, res *domain.ProcessResult) error {
	switch {
	case res.TimedOut:
		return fmt.Errorf("%w: %s after %s", domain.ErrProcessTimeout, op.Name, op.Timeout)
	case res.Err != nil:
		return fmt.Errorf("failed to run %s: %w", op.Tool, res.Err)
	}
	msg := lastLine(res.Stderr)
	if msg == "" {
		msg = "no output"
	}
	return fmt.Errorf("%s exited with code %d: %s", op.Tool, res.ExitCode, msg)
}

// lastLine returns the last non-empty line of s
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func outputExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// IsCancelled reports whether a failed result came from context cancellation
func IsCancelled[T any](r domain.OperationResult[T]) bool {
	return r.Err != nil && (errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded))
}
