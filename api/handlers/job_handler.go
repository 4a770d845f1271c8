package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/internal/infrastructure"
)

// JobHandler handles asynchronous media job requests
type JobHandler struct {
	jobMgr *app.JobManager
	logger *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobMgr *app.JobManager, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobMgr: jobMgr,
		logger: logger,
	}
}

// AddJob handles POST /api/v1/jobs
func (h *JobHandler) AddJob(c *gin.Context) {
	var req app.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := infrastructure.ValidateMediaURL(req.URL); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !domain.ValidateJobKind(req.Kind) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job kind: " + string(req.Kind), Kind: domain.ErrorInvalidInput})
		return
	}

	job, err := h.jobMgr.AddJob(req)
	if err != nil {
		h.logger.Error("Failed to add job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobMgr.GetJob(c.Param("id"))
	if err != nil {
		respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetResult handles GET /api/v1/jobs/:id/result. File jobs return the file;
// probe and color jobs return their metadata.
func (h *JobHandler) GetResult(c *gin.Context) {
	job, err := h.jobMgr.GetJob(c.Param("id"))
	if err != nil {
		respondJobError(c, err)
		return
	}
	if job.Status != domain.StatusCompleted {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "job is " + string(job.Status)})
		return
	}

	if job.Kind.ProducesFile() {
		c.File(job.ResultPath)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(job.Metadata))
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	filters := make(map[string]interface{})
	for _, key := range []string{"status", "kind", "source"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	jobs, err := h.jobMgr.ListJobs(filters)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// GetStats handles GET /api/v1/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.jobMgr.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	job, err := h.jobMgr.CancelJob(c.Param("id"))
	if err != nil {
		respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// RetryJob handles POST /api/v1/jobs/:id/retry
func (h *JobHandler) RetryJob(c *gin.Context) {
	job, err := h.jobMgr.RetryJob(c.Param("id"))
	if err != nil {
		respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// DeleteJob handles DELETE /api/v1/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.jobMgr.DeleteJob(c.Param("id")); err != nil {
		respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}
