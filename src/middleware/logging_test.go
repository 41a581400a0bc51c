package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/models"
)

// captureLogs routes the global logger into a buffer for the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	original, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})

	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "debug", Format: "json", Output: &buf})
	return &buf
}

func TestRequestLogger_TagsRequestAndCaller(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/anonymous", func(c *gin.Context) {
		logger := RequestLogger(c, "web")
		logger.Info().Msg("anonymous")
		c.Status(http.StatusOK)
	})
	router.GET("/caller", func(c *gin.Context) {
		c.Set(CallerKey, &models.User{ID: 7})
		logger := RequestLogger(c, "web")
		logger.Info().Msg("caller")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/anonymous", nil)
	req.Header.Set("X-Request-ID", "req-anon")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "web", entry["component"])
	assert.Equal(t, "req-anon", entry["request_id"])
	assert.NotContains(t, entry, "caller_id")

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/caller", nil)
	req.Header.Set("X-Request-ID", "req-user")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-user", entry["request_id"])
	assert.Equal(t, float64(7), entry["caller_id"])
}
