package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("production", &buf).Info("patient loaded", "patient_id", "patient-1")
	assert.Contains(t, buf.String(), `"patient_id":"patient-1"`)

	buf.Reset()
	NewLogger("development", &buf).Debug("voice state", "page", 1)
	assert.Contains(t, buf.String(), "page=1")
}

func TestContextLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)

	router := gin.New()
	router.Use(ContextLogger(logger))
	router.GET("/ping", func(c *gin.Context) {
		GetLoggerFromContext(c).Info("handled")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestLogRequest_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)

	logger.LogRequest("GET", "/health", 200, "1ms")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	buf.Reset()
	logger.LogRequest("POST", "/api/v1/speech/transcribe", 500, "3s")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
