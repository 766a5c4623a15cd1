package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRequest(t *testing.T, status int, token string) observer.LoggedEntry {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	router := gin.New()
	router.Use(middleware.Logger(zap.New(core)))
	router.POST("/api/v1/things/:id", func(c *gin.Context) {
		c.Status(status)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things/42", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	return logs.All()[0]
}

func TestLoggerUsesRouteTemplateAndLevels(t *testing.T) {
	entry := loggedRequest(t, http.StatusOK, "")
	assert.Equal(t, zap.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "/api/v1/things/:id", fields["route"], "routes aggregate by template, not raw path")
	assert.Equal(t, false, fields["session"])

	entry = loggedRequest(t, http.StatusTooManyRequests, "")
	assert.Equal(t, zap.WarnLevel, entry.Level)

	entry = loggedRequest(t, http.StatusInternalServerError, "")
	assert.Equal(t, zap.ErrorLevel, entry.Level)
}

func TestLoggerRecordsSessionPresenceNotValue(t *testing.T) {
	const token = "abcdefghijklmnopqrstuvwxyzabcdef"
	entry := loggedRequest(t, http.StatusOK, token)

	fields := entry.ContextMap()
	assert.Equal(t, true, fields["session"])
	for _, v := range fields {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, token, "the bearer value must never be logged")
		}
	}
}
