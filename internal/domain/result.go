package domain

import "time"

// Strategy identifies how a remote resource was fed to the external tool
type Strategy string

const (
	StrategyDirect        Strategy = "direct"
	StrategyDownloadFirst Strategy = "download_first"
	StrategyLocal         Strategy = "local"
)

// OperationResult is the outcome of a single pipeline operation.
// A successful result carries Data and no error fields; a failed one carries
// the zero value of T.
type OperationResult[T any] struct {
	Success      bool          `json:"success"`
	Data         T             `json:"data,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
	Kind         ErrorKind     `json:"kind,omitempty"`
	Err          error         `json:"-"`
	Elapsed      time.Duration `json:"elapsed"`
	URL          string        `json:"url"`
	Strategy     Strategy      `json:"strategy,omitempty"`
}

// Succeeded builds a successful result
func Succeeded[T any](data T, url string, elapsed time.Duration) OperationResult[T] {
	return OperationResult[T]{
		Success: true,
		Data:    data,
		URL:     url,
		Elapsed: elapsed,
	}
}

// Failed builds a failed result; a nil err yields an UNKNOWN message
func Failed[T any](kind ErrorKind, err error, url string, elapsed time.Duration) OperationResult[T] {
	if kind == ErrorNone {
		kind = ErrorUnknown
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return OperationResult[T]{
		Success:      false,
		ErrorMessage: msg,
		Kind:         kind,
		Err:          err,
		URL:          url,
		Elapsed:      elapsed,
	}
}

// FailedFrom carries the failure of one result over to a result of another type
func FailedFrom[T, U any](r OperationResult[U]) OperationResult[T] {
	out := Failed[T](r.Kind, r.Err, r.URL, r.Elapsed)
	if r.Err == nil && r.ErrorMessage != "" {
		out.ErrorMessage = r.ErrorMessage
	}
	out.Strategy = r.Strategy
	return out
}

// ShouldTryDownloadFirst reports whether the failure warrants the download-first path
func (r OperationResult[T]) ShouldTryDownloadFirst() bool {
	return !r.Success && r.Kind.TriggersFallback()
}

// IsRetryable reports whether the failure is transient
func (r OperationResult[T]) IsRetryable() bool {
	return !r.Success && r.Kind.IsRetryable()
}
