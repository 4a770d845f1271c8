package domain

import (
	"strings"
	"time"
)

// Tool identifies an external command-line tool
type Tool string

const (
	ToolFFmpeg  Tool = "ffmpeg"
	ToolFFprobe Tool = "ffprobe"
)

// InputPlaceholder marks the argument that receives the media location
const InputPlaceholder = "{input}"

// ProcessResult captures the outcome of an external process
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
	TimedOut bool
	Err      error // set when the process could not be started
}

// IsSuccessful reports whether the process exited cleanly
func (r *ProcessResult) IsSuccessful() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Output returns stderr followed by stdout
func (r *ProcessResult) Output() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stderr + "\n" + r.Stdout
}

// Classify maps a failed process onto an ErrorKind
func (r *ProcessResult) Classify() ErrorKind {
	if r.IsSuccessful() {
		return ErrorNone
	}
	if r.TimedOut {
		return ErrorTimeout
	}

	if r.Err != nil {
		return ErrorProcess
	}
	if kind := ClassifyMessage(r.Output()); kind != ErrorUnknown {
		return kind
	}
	if r.ExitCode != 0 {
		return ErrorProcess
	}
	return ErrorUnknown
}

// SuggestsDownloadFirst applies the output heuristics that indicate the remote
// host rejects streaming reads but may still serve a plain download
func (r *ProcessResult) SuggestsDownloadFirst() bool {
	if r.IsSuccessful() {
		return false
	}
	lower := strings.ToLower(r.Stderr)
	for _, marker := range []string{
		"403",
		"forbidden",
		"access denied",
		"server returned 4",
		"server returned 5",
		"connection refused",
		"invalid data",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return r.ExitCode == 1 && !r.TimedOut
}
