package utils

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "debug", "json")

	logger.Debug().Str("card_id", "abc").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "abc", entry["card_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "loud", "json")

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info", "console")

	logger.Info().Str("media_id", "m-1").Msg("stored")
	assert.Contains(t, buf.String(), "stored")
	assert.Contains(t, buf.String(), "media_id=")
}
