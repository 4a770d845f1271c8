package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/metrics"
	"github.com/yourusername/media-pipeline-go/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRecovery(t *testing.T) {
	logsDir := t.TempDir()
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)
	defer multiLog.Close()

	router := gin.New()
	router.Use(Recovery(zap.NewNop(), multiLog))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(router, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.Equal(t, "UNKNOWN", body["kind"])

	multiLog.Sync()
	data, err := os.ReadFile(logger.NewLogReader(logsDir).GetLogPath(logger.CategoryError, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kaboom")
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := serve(router, http.MethodOptions, "/ping")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(router, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	matched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/jobs/:id", "200")
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	serve(router, http.MethodGet, "/jobs/abc")
	serve(router, http.MethodGet, "/jobs/def")
	serve(router, http.MethodGet, "/nope")

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}

func TestLoggerRecordsServerErrors(t *testing.T) {
	logsDir := t.TempDir()
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)
	defer multiLog.Close()

	router := gin.New()
	router.Use(Logger(zap.NewNop(), multiLog))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	serve(router, http.MethodGet, "/ok")
	serve(router, http.MethodGet, "/fail")
	multiLog.Sync()

	entries, err := logger.NewLogReader(logsDir).ReadLogs(logger.CategoryError, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HTTP error response", entries[0].Message)
	assert.Equal(t, "/fail", entries[0].Fields["path"])
}
