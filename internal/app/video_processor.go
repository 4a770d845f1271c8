package app

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure/resolvers"
)

// Heuristic durations used when probing fails
const (
	imageDefaultDuration   = 5.0
	videoDefaultDuration   = 30.0
	unknownDefaultDuration = 1.0
)

// VideoProcessor probes media metadata with ffprobe
type VideoProcessor struct {
	orchestrator *Orchestrator
	config       *domain.FFmpegConfig
	logger       *zap.Logger
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(orchestrator *Orchestrator, config *domain.FFmpegConfig, logger *zap.Logger) *VideoProcessor {
	return &VideoProcessor{
		orchestrator: orchestrator,
		config:       config,
		logger:       logger,
	}
}

func probeOperation(timeout time.Duration) Operation {
	return Operation{
		Name: "probe",
		Tool: domain.ToolFFprobe,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			"-select_streams", "v:0",
			domain.InputPlaceholder,
		},
		Timeout: timeout,
	}
}

// Probe runs ffprobe with retries and parses its output. Terminal failures
// (NOT_FOUND, INVALID_INPUT) are not retried.
func (p *VideoProcessor) Probe(ctx context.Context, rawURL string) domain.OperationResult[domain.VideoInfo] {
	op := probeOperation(p.config.VideoInfoTimeout)
	target := p.orchestrator.Resolve(ctx, rawURL)
	result := Retry(ctx, p.config.MaxRetries, p.config.RetryDelay,
		func(ctx context.Context) domain.OperationResult[*domain.ProcessResult] {
			return p.orchestrator.ExecuteResolved(ctx, op, target)
		},
		func(r domain.OperationResult[*domain.ProcessResult]) bool {
			return !r.Success && !r.Kind.IsTerminal() && !IsCancelled(r)
		})

	if !result.Success {
		return domain.FailedFrom[domain.VideoInfo](result)
	}

	info := ParseVideoInfo(result.Data.Stdout)
	out := domain.Succeeded(info, result.URL, result.Elapsed)
	out.Strategy = result.Strategy
	return out
}

// VideoInfo returns probed metadata, or a default inferred from the URL when
// probing fails. It never fails.
func (p *VideoProcessor) VideoInfo(ctx context.Context, rawURL string) domain.VideoInfo {
	result := p.Probe(ctx, rawURL)
	if result.Success {
		return result.Data
	}

	p.logger.Warn("Probe failed, using default video info",
		zap.String("url", rawURL),
		zap.String("kind", string(result.Kind)),
		zap.String("error", result.ErrorMessage))
	return DefaultVideoInfo(rawURL)
}

// DefaultVideoInfo infers metadata from the URL's apparent media type
func DefaultVideoInfo(rawURL string) domain.VideoInfo {
	info := domain.NewVideoInfo()
	switch ext := resolvers.Extension(rawURL); {
	case resolvers.IsStaticImageURL(rawURL):
		info.Duration = imageDefaultDuration
		info.Format = ext
	case resolvers.IsVideoURL(rawURL):
		info.Duration = videoDefaultDuration
		if ext != "" {
			info.Format = ext
		}
	default:
		info.Duration = unknownDefaultDuration
	}
	return info
}

type probeOutput struct {
	Streams []map[string]interface{} `json:"streams"`
	Format  map[string]interface{}   `json:"format"`
}

// ParseVideoInfo extracts metadata from ffprobe JSON. Every field is read on
// its own; a missing or invalid field keeps its default. Output that is not
// valid JSON is scanned for the same keys.
func ParseVideoInfo(output string) domain.VideoInfo {
	info := domain.NewVideoInfo()
	info.Probed = true

	lookup := scanField(output)
	var parsed probeOutput
	if err := json.Unmarshal([]byte(output), &parsed); err == nil {
		var stream map[string]interface{}
		for _, s := range parsed.Streams {
			if t, _ := s["codec_type"].(string); t == "" || t == "video" {
				stream = s
				break
			}
		}
		lookup = func(section, key string) (string, bool) {
			m := parsed.Format
			if section == "stream" {
				m = stream
			}
			return fieldString(m, key)
		}
	}

	if v, ok := lookup("format", "duration"); ok {
		if d, ok := positiveFloat(v); ok {
			info.Duration = d
		}
	}
	if info.Duration == 0 {
		if v, ok := lookup("stream", "duration"); ok {
			if d, ok := positiveFloat(v); ok {
				info.Duration = d
			}
		}
	}
	if v, ok := lookup("stream", "width"); ok {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			info.Width = w
		}
	}
	if v, ok := lookup("stream", "height"); ok {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			info.Height = h
		}
	}
	if v, ok := lookup("stream", "codec_name"); ok && v != "" {
		info.Codec = v
	}
	if v, ok := lookup("format", "format_name"); ok && v != "" {
		info.Format = v
	}
	if v, ok := lookup("format", "bit_rate"); ok {
		if b, err := strconv.ParseInt(v, 10, 64); err == nil && b > 0 {
			info.Bitrate = b
		}
	}
	return info
}

// fieldString renders a JSON scalar as a string
func fieldString(m map[string]interface{}, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// scanField finds "key": value pairs in text that failed to decode
func scanField(output string) func(section, key string) (string, bool) {
	return func(_ string, key string) (string, bool) {
		re := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*"?([^",}\s]+)"?`)
		m := re.FindStringSubmatch(output)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

func positiveFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
