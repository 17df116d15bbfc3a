package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info("password reset issued", "recipient", "drhouse", "token", "s3cret")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "drhouse", line["recipient"])
	assert.Equal(t, redacted, line["token"])
	assert.NotContains(t, buf.String(), "s3cret")
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info("hidden")
	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "pretty").With("component", "auth").WithGroup("req")

	log.Debug("login rejected", "reason", "bad_password", "password", "hunter2")

	out := buf.String()
	assert.Contains(t, out, "login rejected")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "req.reason")
	assert.Contains(t, out, "bad_password")
	assert.NotContains(t, out, "hunter2")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
