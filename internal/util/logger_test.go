package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(t *testing.T, level string, format LogFormat) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewLogger(LogOptions{Level: level, Console: &buf})
	require.NoError(t, err)
	l.outputs = []Output{NewConsoleOutput(&buf, format)}
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l, &buf
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestLoggerTextFormat(t *testing.T) {
	l, buf := fixedLogger(t, "debug", FormatText)

	l.Named("feed").With(F("file", "a.jsonl")).Info("loaded", F("events", 3))

	assert.Equal(t, "2024/03/01 12:00:00.000 [INFO] feed: loaded events=3 file=a.jsonl\n", buf.String())
}

func TestLoggerJSONFormat(t *testing.T) {
	l, buf := fixedLogger(t, "info", FormatJSON)

	l.Warnf("slow %s", "subscriber")

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "slow subscriber", entry["message"])
	assert.NotContains(t, entry, "fields")
}

func TestLoggerLevelFilter(t *testing.T) {
	l, buf := fixedLogger(t, "warn", FormatText)

	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	l.SetLevel(LevelDebug)
	l.Debug("now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestNewLoggerRequiresAnOutput(t *testing.T) {
	_, err := NewLogger(LogOptions{})
	assert.Error(t, err)
}

func TestFileOutputCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := NewLogger(LogOptions{Level: "info", File: path, Format: FormatJSON})
	require.NoError(t, err)

	l.Info("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestGlobalLoggerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CloseLogger())
	require.NoError(t, InitLogger(LogOptions{Level: "debug", Console: &buf}))
	t.Cleanup(func() { _ = CloseLogger() })

	LogDebugf("value %d", 42)
	LogError("failed", F("code", 7))

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] value 42")
	assert.Contains(t, out, "[ERROR] failed code=7")

	require.NoError(t, CloseLogger())
	LogInfo("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
