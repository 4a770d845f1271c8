package app

import (
	"context"
	"time"

	"github.com/yourusername/media-pipeline-go/internal/metrics"
)

// Retry calls attempt until shouldRetry rejects the result or maxRetries
// extra attempts have run. The wait before retry n (0-based) is
// baseDelay * 2^n. A done context ends the loop with the last result.
func Retry[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, attempt func(context.Context) T, shouldRetry func(T) bool) T {
	result := attempt(ctx)
	for n := 0; n < maxRetries && shouldRetry(result); n++ {
		timer := time.NewTimer(baseDelay << n)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result
		case <-timer.C:
		}
		metrics.RetriesTotal.Inc()
		result = attempt(ctx)
	}
	return result
}

// RetryAsync runs Retry on its own goroutine and delivers the result on the
// returned channel
func RetryAsync[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, attempt func(context.Context) T, shouldRetry func(T) bool) <-chan T {
	out := make(chan T, 1)
	go func() {
		out <- Retry(ctx, maxRetries, baseDelay, attempt, shouldRetry)
	}()
	return out
}
