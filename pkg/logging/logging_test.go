package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", FormatJSON)
	require.NoError(t, err)

	l := Component(logger, "ingest")
	l.Debug().Int("bytes", 5).Msg("frame")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ingest", line["component"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, float64(5), line["bytes"])
	assert.Equal(t, "frame", line["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "", FormatJSON)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", FormatConsole)
	require.NoError(t, err)

	logger.Info().Str("port", "/dev/ttyACM0").Msg("connected")
	assert.Contains(t, buf.String(), "connected")
	assert.Contains(t, buf.String(), "/dev/ttyACM0")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", FormatJSON)
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
