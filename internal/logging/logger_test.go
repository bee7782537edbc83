package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/geosocial/backend/internal/config"
)

func TestNewWithWriter_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "JSON"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "attempt", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(3), entry["attempt"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(" Debug ").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
