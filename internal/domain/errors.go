package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies a pipeline failure
type ErrorKind string

const (
	ErrorNone          ErrorKind = ""
	ErrorTimeout       ErrorKind = "TIMEOUT"
	ErrorAccessDenied  ErrorKind = "ACCESS_DENIED"
	ErrorNotFound      ErrorKind = "NOT_FOUND"
	ErrorNetwork       ErrorKind = "NETWORK_ERROR"
	ErrorProcess       ErrorKind = "PROCESS_ERROR"
	ErrorOutputMissing ErrorKind = "OUTPUT_MISSING"
	ErrorInvalidInput  ErrorKind = "INVALID_INPUT"
	ErrorUnknown       ErrorKind = "UNKNOWN"
)

var (
	ErrInvalidURL       = errors.New("invalid media url")
	ErrDownloadFailed   = errors.New("download failed")
	ErrDownloadTooLarge = errors.New("download exceeds size limit")
	ErrOutputMissing    = errors.New("expected output file was not produced")
	ErrGifTooLarge      = errors.New("gif exceeds upload size limit")
	ErrProcessTimeout   = errors.New("process timed out")
)

// TriggersFallback reports whether a direct-path failure of this kind should
// switch to the download-first path
func (k ErrorKind) TriggersFallback() bool {
	return k == ErrorAccessDenied || k == ErrorProcess || k == ErrorTimeout
}

// IsRetryable reports whether the failure is considered transient
func (k ErrorKind) IsRetryable() bool {
	return k == ErrorTimeout || k == ErrorNetwork
}

// IsTerminal reports whether the failure must never be retried
func (k ErrorKind) IsTerminal() bool {
	return k == ErrorNotFound || k == ErrorInvalidInput
}

// ClassifyMessage maps captured tool output or an error message onto an ErrorKind.
// Checks run in priority order: timeout, access denied, not found, network.
func ClassifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return ErrorTimeout
	case strings.Contains(lower, "403"), strings.Contains(lower, "forbidden"):
		return ErrorAccessDenied
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		return ErrorNotFound
	case strings.Contains(lower, "connection"), strings.Contains(lower, "network"):
		return ErrorNetwork
	}
	return ErrorUnknown
}
