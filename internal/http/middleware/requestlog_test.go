package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskapi/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger.InitWriter(&buf, "info", false)

	r := gin.New()
	r.Use(RequestLog())
	r.GET("/api/tasks/:id", func(c *gin.Context) {
		logger.WithContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/7", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "generated request id should be a uuid")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "request_id="+id))
	assert.Contains(t, out, "route=/api/tasks/:id")
	assert.Contains(t, out, "status=204")
}

func TestRequestLog_KeepsClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.InitWriter(&bytes.Buffer{}, "info", false)

	r := gin.New()
	r.Use(RequestLog())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}
