package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/api/handlers"
	"github.com/yourusername/media-pipeline-go/api/middleware"
	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/pkg/logger"
)

// SetupRouter sets up the HTTP router. multiLogger may be nil, in which
// case the log endpoints read from logsDir only.
func SetupRouter(
	service *app.MediaService,
	jobMgr *app.JobManager,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
	logsDir string,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery(log, multiLogger))
	router.Use(middleware.Logger(log, multiLogger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(service, jobMgr)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		mediaHandler := handlers.NewMediaHandler(service, log)
		media := v1.Group("/media")
		{
			media.POST("/resolve", mediaHandler.Resolve)
			media.POST("/classify", mediaHandler.Classify)
			media.POST("/probe", mediaHandler.Probe)
			media.POST("/thumbnail", mediaHandler.Thumbnail)
			media.POST("/thumbnails", mediaHandler.Thumbnails)
			media.POST("/color", mediaHandler.Color)
			media.POST("/gif", mediaHandler.Gif)
		}

		domainHandler := handlers.NewDomainHandler(service)
		domains := v1.Group("/domains")
		{
			domains.GET("", domainHandler.ListDomains)
			domains.GET("/:domain", domainHandler.GetDomain)
			domains.DELETE("", domainHandler.ResetDomains)
		}

		jobHandler := handlers.NewJobHandler(jobMgr, log)
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.AddJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.GET("/:id/result", jobHandler.GetResult)
			jobs.POST("/:id/cancel", jobHandler.CancelJob)
			jobs.POST("/:id/retry", jobHandler.RetryJob)
			jobs.DELETE("/:id", jobHandler.DeleteJob)
		}

		logHandler := handlers.NewLogHandler(logsDir)
		wsHandler := handlers.NewLogWebSocketHandler(logsDir, log)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/ws", wsHandler.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "not found"})
	})

	return router
}
