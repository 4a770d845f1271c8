package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
)

// maxThumbnailBatch caps timestamps per thumbnails request
const maxThumbnailBatch = 20

// MediaHandler exposes the synchronous pipeline operations
type MediaHandler struct {
	service *app.MediaService
	logger  *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service *app.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  logger,
	}
}

// MediaRequest names the media a request operates on
type MediaRequest struct {
	URL    string `json:"url" binding:"required"`
	Source string `json:"source,omitempty"`
}

// ThumbnailRequest represents a single-frame request
type ThumbnailRequest struct {
	MediaRequest
	Timestamp float64 `json:"timestamp"`
}

// ThumbnailsRequest represents a multi-frame request
type ThumbnailsRequest struct {
	MediaRequest
	Timestamps []float64 `json:"timestamps" binding:"required,min=1"`
}

// ThumbnailSummary describes one frame of a thumbnails response
type ThumbnailSummary struct {
	Timestamp float64          `json:"timestamp"`
	Success   bool             `json:"success"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
	Error     string           `json:"error,omitempty"`
	Kind      domain.ErrorKind `json:"kind,omitempty"`
}

// GifRequest represents a GIF request. Smart and Preview select the sized
// variants and ignore the explicit options.
type GifRequest struct {
	MediaRequest
	app.GifOptions
	Smart   bool `json:"smart,omitempty"`
	Preview bool `json:"preview,omitempty"`
}

// bind decodes the body into req and validates its URL
func (h *MediaHandler) bind(c *gin.Context, req interface{}, media *MediaRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return false
	}
	if err := infrastructure.ValidateMediaURL(media.URL); err != nil {
		respondBadRequest(c, err)
		return false
	}
	if media.Source != "" {
		h.service.Sources().Register(media.Source)
	}
	return true
}

// Resolve handles POST /api/v1/media/resolve
func (h *MediaHandler) Resolve(c *gin.Context) {
	var req MediaRequest
	if !h.bind(c, &req, &req) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      req.URL,
		"resolved": h.service.Resolve(c.Request.Context(), req.URL),
	})
}

// Classify handles POST /api/v1/media/classify
func (h *MediaHandler) Classify(c *gin.Context) {
	var req MediaRequest
	if !h.bind(c, &req, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.Classify(req.URL))
}

// Probe handles POST /api/v1/media/probe
func (h *MediaHandler) Probe(c *gin.Context) {
	var req MediaRequest
	if !h.bind(c, &req, &req) {
		return
	}

	result := h.service.Probe(c.Request.Context(), req.URL)
	if !result.Success {
		respondFailure(c, result)
		return
	}
	c.Header("X-Media-Strategy", string(result.Strategy))
	c.JSON(http.StatusOK, result.Data)
}

// Thumbnail handles POST /api/v1/media/thumbnail and returns a JPEG
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	var req ThumbnailRequest
	if !h.bind(c, &req, &req.MediaRequest) {
		return
	}

	result := h.service.ExtractThumbnail(c.Request.Context(), req.URL, req.Timestamp)
	if !result.Success {
		respondFailure(c, result)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, result.Data, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		h.logger.Error("Failed to encode thumbnail", zap.String("url", req.URL), zap.Error(err))
		respondKind(c, domain.ErrorProcess, "failed to encode thumbnail")
		return
	}
	c.Header("X-Media-Strategy", string(result.Strategy))
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

// Thumbnails handles POST /api/v1/media/thumbnails
func (h *MediaHandler) Thumbnails(c *gin.Context) {
	var req ThumbnailsRequest
	if !h.bind(c, &req, &req.MediaRequest) {
		return
	}
	if len(req.Timestamps) > maxThumbnailBatch {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "at most " + strconv.Itoa(maxThumbnailBatch) + " timestamps per request",
			Kind:  domain.ErrorInvalidInput,
		})
		return
	}

	results := h.service.ExtractMultipleThumbnails(c.Request.Context(), req.URL, req.Timestamps)
	summaries := make([]ThumbnailSummary, len(results))
	for i, r := range results {
		s := ThumbnailSummary{Timestamp: req.Timestamps[i], Success: r.Success}
		if r.Success {
			s.Width = r.Data.Bounds().Dx()
			s.Height = r.Data.Bounds().Dy()
		} else {
			s.Error = r.ErrorMessage
			s.Kind = r.Kind
		}
		summaries[i] = s
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        req.URL,
		"thumbnails": summaries,
	})
}

// Color handles POST /api/v1/media/color
func (h *MediaHandler) Color(c *gin.Context) {
	var req MediaRequest
	if !h.bind(c, &req, &req) {
		return
	}

	c.JSON(http.StatusOK, app.NewColorResult(h.service.ExtractDominantColor(c.Request.Context(), req.URL)))
}

// Gif handles POST /api/v1/media/gif and returns the GIF. The temp file
// is removed once the response is written.
func (h *MediaHandler) Gif(c *gin.Context) {
	var req GifRequest
	if !h.bind(c, &req, &req.MediaRequest) {
		return
	}

	ctx := c.Request.Context()
	var result domain.OperationResult[app.GifOutput]
	switch {
	case req.Smart:
		result = h.service.CreateSmartGif(ctx, req.URL)
	case req.Preview:
		result = h.service.CreatePreviewGif(ctx, req.URL)
	default:
		result = h.service.CreateGif(ctx, req.URL, req.GifOptions)
	}
	if !result.Success {
		respondFailure(c, result)
		return
	}
	defer h.service.Files().Remove(result.Data.Path)

	opts := result.Data.Options
	c.Header("X-Media-Strategy", string(result.Strategy))
	c.Header("X-Gif-Width", strconv.Itoa(opts.Width))
	c.Header("X-Gif-Height", strconv.Itoa(opts.Height))
	c.Header("X-Gif-FPS", strconv.Itoa(opts.FPS))
	c.Header("Content-Type", "image/gif")
	c.File(result.Data.Path)
}
