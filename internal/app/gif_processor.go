package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
)

const (
	// maxGifShrinks is how many smaller re-encodes are tried after an oversize result
	maxGifShrinks   = 3
	gifShrinkFactor = 0.75
	minGifFPS       = 5
	minGifDimension = 64

	previewGifDuration = 3.0
	previewGifWidth    = 320
)

// GifOptions are the parameters of one GIF encode. Zero values take the
// configured defaults.
type GifOptions struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      int     `json:"fps"`
}

// GifOutput describes a produced GIF. The caller owns Path.
type GifOutput struct {
	Path    string     `json:"path"`
	Size    int64      `json:"size"`
	Options GifOptions `json:"options"`
}

// GifProcessor encodes GIFs within the upload size limit
type GifProcessor struct {
	orchestrator *Orchestrator
	videos       *VideoProcessor
	files        *infrastructure.FileManager
	ffmpeg       *domain.FFmpegConfig
	config       *domain.GifConfig
	logger       *zap.Logger
}

// NewGifProcessor creates a new GIF processor
func NewGifProcessor(
	orchestrator *Orchestrator,
	videos *VideoProcessor,
	files *infrastructure.FileManager,
	ffmpeg *domain.FFmpegConfig,
	config *domain.GifConfig,
	logger *zap.Logger,
) *GifProcessor {
	return &GifProcessor{
		orchestrator: orchestrator,
		videos:       videos,
		files:        files,
		ffmpeg:       ffmpeg,
		config:       config,
		logger:       logger,
	}
}

func gifOperation(opts GifOptions, output string, timeout time.Duration) Operation {
	filter := fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
		opts.FPS, opts.Width, opts.Height)
	return Operation{
		Name: "gif",
		Tool: domain.ToolFFmpeg,
		Args: []string{
			"-ss", formatSeconds(opts.Start),
			"-t", formatSeconds(opts.Duration),
			"-i", domain.InputPlaceholder,
			"-vf", filter,
			"-loop", "0",
			"-y", output,
		},
		Timeout:    timeout,
		OutputPath: output,
	}
}

// normalize fills defaults and applies the duration ceiling
func (p *GifProcessor) normalize(opts GifOptions) GifOptions {
	if opts.Start < 0 {
		opts.Start = 0
	}
	if opts.Width <= 0 {
		opts.Width = p.config.Width
	}
	if opts.Height <= 0 {
		opts.Height = p.config.Height
	}
	if opts.FPS <= 0 {
		opts.FPS = p.config.FPS
	}
	if opts.Duration <= 0 || (p.config.MaxDuration > 0 && opts.Duration > p.config.MaxDuration) {
		opts.Duration = p.config.MaxDuration
	}
	opts.Width = evenDimension(opts.Width)
	opts.Height = evenDimension(opts.Height)
	return opts
}

// CreateGif encodes a GIF with explicit options. When the result exceeds
// the upload limit it is re-encoded smaller, up to maxGifShrinks times.
func (p *GifProcessor) CreateGif(ctx context.Context, rawURL string, opts GifOptions) domain.OperationResult[GifOutput] {
	start := time.Now()
	opts = p.normalize(opts)
	limit := p.config.UploadLimit()
	target := p.orchestrator.Resolve(ctx, rawURL)

	for attempt := 0; ; attempt++ {
		output, err := p.files.TempPath("gif", "gif")
		if err != nil {
			return domain.Failed[GifOutput](domain.ErrorProcess, err, rawURL, time.Since(start))
		}

		result := p.orchestrator.ExecuteResolved(ctx, gifOperation(opts, output, p.ffmpeg.GifTimeout), target)
		if !result.Success {
			p.files.Remove(output)
			return domain.FailedFrom[GifOutput](result)
		}

		info, err := os.Stat(output)
		if err != nil {
			p.files.Remove(output)
			return domain.Failed[GifOutput](domain.ErrorOutputMissing,
				fmt.Errorf("%w: %v", domain.ErrOutputMissing, err), result.URL, time.Since(start))
		}

		if limit <= 0 || info.Size() <= limit {
			p.logger.Info("GIF created",
				zap.String("url", rawURL),
				zap.String("size", humanize.IBytes(uint64(info.Size()))),
				zap.Int("width", opts.Width),
				zap.Int("height", opts.Height),
				zap.Int("fps", opts.FPS),
				zap.Int("attempt", attempt))
			out := domain.Succeeded(GifOutput{Path: output, Size: info.Size(), Options: opts}, result.URL, time.Since(start))
			out.Strategy = result.Strategy
			return out
		}

		p.files.Remove(output)
		if attempt >= maxGifShrinks {
			failed := domain.Failed[GifOutput](domain.ErrorProcess,
				fmt.Errorf("%w: %s over %s after %d attempts", domain.ErrGifTooLarge,
					humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(limit)), attempt+1),
				result.URL, time.Since(start))
			failed.Strategy = result.Strategy
			return failed
		}

		p.logger.Info("GIF over upload limit, shrinking",
			zap.String("url", rawURL),
			zap.String("size", humanize.IBytes(uint64(info.Size()))),
			zap.String("limit", humanize.IBytes(uint64(limit))))
		opts = shrinkGif(opts)
	}
}

// CreateSmartGif fits the probed aspect ratio into the configured box and
// caps the duration
func (p *GifProcessor) CreateSmartGif(ctx context.Context, rawURL string) domain.OperationResult[GifOutput] {
	info := p.videos.VideoInfo(ctx, rawURL)
	width, height := FitDimensions(info, p.config.Width, p.config.Height)

	duration := info.Duration
	if duration <= 0 || duration > p.config.MaxDuration {
		duration = p.config.MaxDuration
	}
	return p.CreateGif(ctx, rawURL, GifOptions{
		Duration: duration,
		Width:    width,
		Height:   height,
	})
}

// CreatePreviewGif makes a short, narrow preview from the start of the media
func (p *GifProcessor) CreatePreviewGif(ctx context.Context, rawURL string) domain.OperationResult[GifOutput] {
	info := p.videos.VideoInfo(ctx, rawURL)
	height := int(math.Round(previewGifWidth / info.AspectRatio()))
	duration := previewGifDuration
	if info.Probed && info.Duration > 0 && info.Duration < duration {
		duration = info.Duration
	}
	return p.CreateGif(ctx, rawURL, GifOptions{
		Duration: duration,
		Width:    previewGifWidth,
		Height:   height,
	})
}

// FitDimensions scales info's aspect ratio into a maxWidth x maxHeight box
// with even sides
func FitDimensions(info domain.VideoInfo, maxWidth, maxHeight int) (int, int) {
	ratio := info.AspectRatio()
	width := float64(maxWidth)
	height := width / ratio
	if height > float64(maxHeight) {
		height = float64(maxHeight)
		width = height * ratio
	}
	return evenDimension(int(math.Round(width))), evenDimension(int(math.Round(height)))
}

func shrinkGif(opts GifOptions) GifOptions {
	opts.Width = shrinkDimension(opts.Width)
	opts.Height = shrinkDimension(opts.Height)
	opts.FPS = min(opts.FPS, max(minGifFPS, opts.FPS-2))
	return opts
}

// shrinkDimension scales v down, stopping at minGifDimension; sides already
// below the floor are kept as they are
func shrinkDimension(v int) int {
	return evenDimension(min(v, max(minGifDimension, int(float64(v)*gifShrinkFactor))))
}

// evenDimension rounds down to an even value of at least 2
func evenDimension(v int) int {
	if v < 2 {
		return 2
	}
	return v &^ 1
}
