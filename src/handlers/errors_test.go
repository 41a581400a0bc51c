package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

func TestRespondError_LogsServerErrorsWithRequestContext(t *testing.T) {
	original, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "info", Format: "json", Output: &buf})

	w, c := createTestContext()
	c.Request = newJSONRequest(http.MethodGet, "/api/events", nil)
	c.Set(middleware.RequestIDKey, "req-42")
	c.Set(middleware.CallerKey, &models.User{ID: 3})

	respondError(c, errors.New("connection reset"))

	assertStatusCode(t, w, http.StatusInternalServerError)
	assertJSONMessage(t, w, services.MsgServerError)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, float64(3), entry["caller_id"])
	assert.Equal(t, "/api/events", entry["path"])
	assert.Equal(t, "connection reset", entry["error"])
}

func TestRespondError_DoesNotLogClientErrors(t *testing.T) {
	original := log.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "info", Format: "json", Output: &buf})

	w, c := createTestContext()
	c.Request = newJSONRequest(http.MethodGet, "/api/events/9", nil)

	respondError(c, services.ErrEventNotFound)

	assertStatusCode(t, w, http.StatusNotFound)
	assert.Empty(t, buf.String())
}
