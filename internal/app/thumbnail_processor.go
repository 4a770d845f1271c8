package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure/resolvers"
)

// ThumbnailProcessor extracts still frames from media
type ThumbnailProcessor struct {
	orchestrator *Orchestrator
	downloader   domain.MediaDownloader
	files        *infrastructure.FileManager
	ffmpeg       *domain.FFmpegConfig
	config       *domain.ThumbnailConfig
	logger       *zap.Logger
}

// NewThumbnailProcessor creates a new thumbnail processor
func NewThumbnailProcessor(
	orchestrator *Orchestrator,
	downloader domain.MediaDownloader,
	files *infrastructure.FileManager,
	ffmpeg *domain.FFmpegConfig,
	config *domain.ThumbnailConfig,
	logger *zap.Logger,
) *ThumbnailProcessor {
	return &ThumbnailProcessor{
		orchestrator: orchestrator,
		downloader:   downloader,
		files:        files,
		ffmpeg:       ffmpeg,
		config:       config,
		logger:       logger,
	}
}

func thumbnailOperation(timestamp float64, width, height int, output string, timeout time.Duration) Operation {
	return Operation{
		Name: "thumbnail",
		Tool: domain.ToolFFmpeg,
		Args: []string{
			"-ss", formatSeconds(timestamp),
			"-i", domain.InputPlaceholder,
			"-vframes", "1",
			"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", width, height),
			"-q:v", "5",
			"-y", output,
		},
		Timeout:    timeout,
		OutputPath: output,
	}
}

// ExtractThumbnail extracts the frame at timestamp seconds. Static images
// that ffmpeg cannot read are downloaded and decoded directly. The temp
// frame is removed on every path.
func (p *ThumbnailProcessor) ExtractThumbnail(ctx context.Context, rawURL string, timestamp float64) domain.OperationResult[image.Image] {
	return p.ExtractMultipleThumbnails(ctx, rawURL, []float64{timestamp})[0]
}

// ExtractMultipleThumbnails extracts one frame per timestamp. rawURL is
// resolved once and, when the first frame needs download-first, downloaded
// once for all frames. Results keep the order of timestamps.
func (p *ThumbnailProcessor) ExtractMultipleThumbnails(ctx context.Context, rawURL string, timestamps []float64) []domain.OperationResult[image.Image] {
	start := time.Now()
	results := make([]domain.OperationResult[image.Image], len(timestamps))

	ops := make([]Operation, 0, len(timestamps))
	slots := make([]int, 0, len(timestamps))
	for i, ts := range timestamps {
		if ts < 0 {
			ts = 0
		}
		output, err := p.files.TempPath("thumb", "jpg")
		if err != nil {
			results[i] = domain.Failed[image.Image](domain.ErrorProcess, err, rawURL, time.Since(start))
			continue
		}
		defer p.files.Remove(output)

		ops = append(ops, thumbnailOperation(ts, p.config.Width, p.config.Height, output, p.ffmpeg.ThumbnailTimeout))
		slots = append(slots, i)
	}

	var static *domain.OperationResult[image.Image]
	for j, result := range p.orchestrator.ExecuteAll(ctx, ops, rawURL) {
		i := slots[j]
		if result.Success {
			results[i] = p.decodeFrame(result, ops[j].OutputPath, start)
			continue
		}
		if !resolvers.IsStaticImageURL(rawURL) || IsCancelled(result) {
			results[i] = domain.FailedFrom[image.Image](result)
			continue
		}
		if static == nil {
			p.logger.Debug("Frame extraction failed, decoding static image",
				zap.String("url", rawURL),
				zap.String("kind", string(result.Kind)))
			decoded := p.staticImage(ctx, rawURL, start)
			static = &decoded
		}
		results[i] = *static
	}

	return results
}

func (p *ThumbnailProcessor) decodeFrame(result domain.OperationResult[*domain.ProcessResult], output string, start time.Time) domain.OperationResult[image.Image] {
	img, err := imaging.Open(output)
	if err != nil {
		failed := domain.Failed[image.Image](domain.ErrorOutputMissing,
			fmt.Errorf("failed to decode frame: %w", err), result.URL, time.Since(start))
		failed.Strategy = result.Strategy
		return failed
	}

	out := domain.Succeeded(img, result.URL, time.Since(start))
	out.Strategy = result.Strategy
	return out
}

// staticImage downloads rawURL and decodes it, fitted to the thumbnail box
func (p *ThumbnailProcessor) staticImage(ctx context.Context, rawURL string, start time.Time) domain.OperationResult[image.Image] {
	img, err := p.decodeRemote(ctx, rawURL)
	if err != nil {
		kind := domain.ErrorProcess
		var dlErr *downloadError
		if errors.As(err, &dlErr) {
			kind = dlErr.kind
		}
		return domain.Failed[image.Image](kind, err, rawURL, time.Since(start))
	}

	img = imaging.Fit(img, p.config.Width, p.config.Height, imaging.Lanczos)
	out := domain.Succeeded(img, rawURL, time.Since(start))
	out.Strategy = domain.StrategyDownloadFirst
	return out
}

type downloadError struct {
	kind domain.ErrorKind
	msg  string
}

func (e *downloadError) Error() string { return e.msg }

func (e *downloadError) Unwrap() error { return domain.ErrDownloadFailed }

// decodeRemote downloads and decodes an image, releasing the temp file before returning
func (p *ThumbnailProcessor) decodeRemote(ctx context.Context, rawURL string) (image.Image, error) {
	dl := p.downloader.Download(ctx, rawURL)
	defer dl.Cleanup()
	if dl == nil || !dl.Success {
		kind, msg := domain.ErrorNetwork, "download failed"
		if dl != nil {
			msg = "download failed: " + dl.ErrorMessage
			if dl.Kind != domain.ErrorNone {
				kind = dl.Kind
			}
		}
		return nil, &downloadError{kind: kind, msg: msg}
	}

	img, err := imaging.Open(dl.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
