package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os/exec"

	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure/resolvers"
)

// Classification summarizes what the pipeline knows about a URL without
// touching the network
type Classification struct {
	URL                string `json:"url"`
	Domain             string `json:"domain"`
	Extension          string `json:"extension"`
	IsVideo            bool   `json:"is_video"`
	IsStaticImage      bool   `json:"is_static_image"`
	ShouldConvertToGif bool   `json:"should_convert_to_gif"`
	PreviewURL         string `json:"preview_url,omitempty"`
}

// MediaService is the high-level entry point to the media pipeline
type MediaService struct {
	config       *domain.Config
	orchestrator *Orchestrator
	videos       *VideoProcessor
	thumbnails   *ThumbnailProcessor
	gifs         *GifProcessor
	tracker      *infrastructure.DomainTracker
	registry     *resolvers.Registry
	files        *infrastructure.FileManager
	sources      *domain.MediaSourceRegistry
	logger       *zap.Logger
}

// NewMediaService wires the pipeline from its collaborators
func NewMediaService(
	config *domain.Config,
	runner ProcessRunner,
	downloader domain.MediaDownloader,
	files *infrastructure.FileManager,
	tracker *infrastructure.DomainTracker,
	registry *resolvers.Registry,
	headers HeaderArgs,
	logger *zap.Logger,
) *MediaService {
	orchestrator := NewOrchestrator(runner, downloader, tracker, registry, headers, &config.FFmpeg, logger)
	videos := NewVideoProcessor(orchestrator, &config.FFmpeg, logger)
	return &MediaService{
		config:       config,
		orchestrator: orchestrator,
		videos:       videos,
		thumbnails:   NewThumbnailProcessor(orchestrator, downloader, files, &config.FFmpeg, &config.Thumbnail, logger),
		gifs:         NewGifProcessor(orchestrator, videos, files, &config.FFmpeg, &config.Gif, logger),
		tracker:      tracker,
		registry:     registry,
		files:        files,
		sources:      domain.NewMediaSourceRegistry(),
		logger:       logger,
	}
}

// BuildMediaService creates a MediaService backed by real processes and HTTP
func BuildMediaService(config *domain.Config, logger *zap.Logger) *MediaService {
	client := infrastructure.NewHTTPClient(&config.HTTP)
	settings := infrastructure.NewHTTPSettings(&config.HTTP)
	files := infrastructure.NewFileManager(config.FFmpeg.TempDir)
	downloader := infrastructure.NewMediaDownloader(client, settings, files, &config.HTTP, logger)
	executor := infrastructure.NewProcessExecutor(&config.FFmpeg, logger)
	tracker := infrastructure.NewDomainTracker(&config.Adaptive, logger)
	registry := NewResolverRegistry(&config.Resolvers, client, settings, logger)

	logger.Info("Media pipeline configured",
		zap.Int("workers", executor.Workers()),
		zap.Bool("adaptive_download", config.FFmpeg.AdaptiveDownload),
		zap.Int("resolvers", len(registry.Resolvers())))

	return NewMediaService(config, executor, downloader, files, tracker, registry, settings, logger)
}

// NewResolverRegistry registers the platform resolvers enabled in config
func NewResolverRegistry(config *domain.ResolverConfig, client *http.Client, headers resolvers.HeaderApplier, logger *zap.Logger) *resolvers.Registry {
	registry := resolvers.NewRegistry(logger)
	if config.RedGifsEnabled {
		registry.Register(resolvers.NewRedGifsResolver(config.RedGifsAPIBase, client, config.RedGifsRateLimit, logger))
	}
	if config.ImgurEnabled {
		registry.Register(resolvers.ImgurResolver{})
	}
	if config.OpenGraphEnabled && len(config.OpenGraphHosts) > 0 {
		registry.Register(resolvers.NewOpenGraphResolver(config.OpenGraphHosts, client, headers))
	}
	return registry
}

// Config returns the pipeline configuration
func (s *MediaService) Config() *domain.Config {
	return s.config
}

// Files returns the temp file manager
func (s *MediaService) Files() *infrastructure.FileManager {
	return s.files
}

// Tracker returns the per-domain strategy tracker
func (s *MediaService) Tracker() *infrastructure.DomainTracker {
	return s.tracker
}

// Resolvers returns the resolver registry, open for runtime registration
func (s *MediaService) Resolvers() *resolvers.Registry {
	return s.registry
}

// Sources returns the media source registry
func (s *MediaService) Sources() *domain.MediaSourceRegistry {
	return s.sources
}

// Resolve maps a page URL to its media URL
func (s *MediaService) Resolve(ctx context.Context, rawURL string) string {
	return s.registry.Resolve(ctx, rawURL)
}

// Classify reports the URL's media type and platform hints
func (s *MediaService) Classify(rawURL string) Classification {
	preview, _ := resolvers.VideoPreviewURL(rawURL)
	return Classification{
		URL:                rawURL,
		Domain:             infrastructure.DomainKey(rawURL),
		Extension:          resolvers.Extension(rawURL),
		IsVideo:            resolvers.IsVideoURL(rawURL),
		IsStaticImage:      resolvers.IsStaticImageURL(rawURL),
		ShouldConvertToGif: resolvers.ShouldConvertToGif(rawURL),
		PreviewURL:         preview,
	}
}

// Probe returns probed metadata or the probe failure
func (s *MediaService) Probe(ctx context.Context, rawURL string) domain.OperationResult[domain.VideoInfo] {
	return s.videos.Probe(ctx, rawURL)
}

// VideoInfo returns probed or heuristic metadata
func (s *MediaService) VideoInfo(ctx context.Context, rawURL string) domain.VideoInfo {
	return s.videos.VideoInfo(ctx, rawURL)
}

// ExtractThumbnail extracts one frame
func (s *MediaService) ExtractThumbnail(ctx context.Context, rawURL string, timestamp float64) domain.OperationResult[image.Image] {
	return s.thumbnails.ExtractThumbnail(ctx, rawURL, timestamp)
}

// ExtractMultipleThumbnails extracts frames in timestamp order
func (s *MediaService) ExtractMultipleThumbnails(ctx context.Context, rawURL string, timestamps []float64) []domain.OperationResult[image.Image] {
	return s.thumbnails.ExtractMultipleThumbnails(ctx, rawURL, timestamps)
}

// ExtractDominantColor probes the media and returns its dominant color
func (s *MediaService) ExtractDominantColor(ctx context.Context, rawURL string) color.RGBA {
	info := s.videos.VideoInfo(ctx, rawURL)
	return s.thumbnails.ExtractDominantColor(ctx, rawURL, info)
}

// CreateGif encodes a GIF with explicit options
func (s *MediaService) CreateGif(ctx context.Context, rawURL string, opts GifOptions) domain.OperationResult[GifOutput] {
	return s.gifs.CreateGif(ctx, rawURL, opts)
}

// CreateSmartGif encodes a GIF sized from the media's metadata
func (s *MediaService) CreateSmartGif(ctx context.Context, rawURL string) domain.OperationResult[GifOutput] {
	return s.gifs.CreateSmartGif(ctx, rawURL)
}

// CreatePreviewGif encodes a short preview GIF
func (s *MediaService) CreatePreviewGif(ctx context.Context, rawURL string) domain.OperationResult[GifOutput] {
	return s.gifs.CreatePreviewGif(ctx, rawURL)
}

// IsReady checks that both external tools can be found
func (s *MediaService) IsReady() error {
	var errs []error
	for _, binary := range []string{s.config.FFmpeg.FFmpegBinary, s.config.FFmpeg.FFprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			errs = append(errs, fmt.Errorf("%s not available: %w", binary, err))
		}
	}
	return errors.Join(errs...)
}
