package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/pkg/logger"
)

// Recovery turns a handler panic into a 500 with the usual error body.
// The panic is also recorded in the error category when multiLogger is set.
func Recovery(log *zap.Logger, multiLogger *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"),
			}
			log.Error("Handler panicked", fields...)
			if multiLogger != nil {
				multiLogger.LogAppError("Handler panicked", fields...)
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
				"kind":  domain.ErrorUnknown,
			})
		}()
		c.Next()
	}
}
