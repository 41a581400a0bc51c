package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONOutputWithComponent(t *testing.T) {
	original := log.Logger
	defer func() { log.Logger = original }()

	var buf bytes.Buffer
	Setup(Config{Level: "debug", Format: "json", Output: &buf})

	logger := ForRequest("users", "abcd1234", 42)
	logger.Info().Msg("user created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "users", entry["component"])
	assert.Equal(t, "abcd1234", entry["request_id"])
	assert.Equal(t, float64(42), entry["caller_id"])
	assert.Equal(t, "eventdesk", entry["service"])
}

func TestForRequest_OmitsAnonymousCaller(t *testing.T) {
	original := log.Logger
	defer func() { log.Logger = original }()

	var buf bytes.Buffer
	Setup(Config{Level: "info", Output: &buf})

	logger := ForRequest("auth", "req-1", 0)
	logger.Info().Msg("login attempt")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, present := entry["caller_id"]
	assert.False(t, present)
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	original := log.Logger
	defer func() { log.Logger = original }()

	Setup(Config{Level: "chatty", Output: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
