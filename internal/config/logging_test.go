package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected config.LogLevel
	}{
		{"off lowercase", "off", config.LogLevelOff},
		{"off uppercase", "OFF", config.LogLevelOff},
		{"none", "none", config.LogLevelOff},
		{"error lowercase", "error", config.LogLevelError},
		{"info", "info", config.LogLevelInfo},
		{"debug uppercase", "DEBUG", config.LogLevelDebug},
		{"with whitespace", "  debug  ", config.LogLevelDebug},
		{"invalid returns error", "invalid", config.LogLevelError},
		{"empty returns error", "", config.LogLevelError},
		{"unknown value", "warn", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevelError.String())
	assert.Equal(t, "info", config.LogLevelInfo.String())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "error", config.LogLevel(99).String())
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := config.NewLoggerTo(config.LogLevelInfo, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("balance for %s", "alfajores")
	logger.Error("rpc failed: %v", "timeout")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "balance for alfajores", lines[0]["message"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Contains(t, lines[1], "time")
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := config.NewLoggerTo(config.LogLevelError, &buf)

	logger.Debug("first")
	logger.SetLevel(config.LogLevelDebug)
	assert.Equal(t, config.LogLevelDebug, logger.Level())
	logger.Debug("second")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "second", lines[0]["message"])

	logger.SetLevel(config.LogLevelOff)
	logger.Error("dropped")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestLogger_Err(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := config.NewLoggerTo(config.LogLevelError, &buf)
	logger.Err(looperr.ErrNetworkUnreachable, "balance query")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "balance query", lines[0]["message"])
	assert.Equal(t, "RPC endpoint unreachable", lines[0]["error"])
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "loopchain.log")
	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	logger.Debug("written to %s", "file")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// #nosec G304 -- test file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Logging after close is a no-op.
	logger.Error("after close")
}

func TestNewLogger_OffCreatesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "never.log")
	logger, err := config.NewLogger(config.LogLevelOff, path)
	require.NoError(t, err)
	logger.Error("ignored")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := config.NullLogger()
	logger.Debug("x")
	logger.Info("x")
	logger.Error("x")
	assert.Equal(t, config.LogLevelOff, logger.Level())
	require.NoError(t, logger.Close())

	var nilLogger *config.Logger
	nilLogger.Debug("no panic")
}
