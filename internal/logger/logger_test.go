package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: formatJSON, Writer: buf})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf}).Info("cache hit")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"cache hit"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "cache hit")
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: slog.LevelInfo, Format: formatJSON, Environment: "development", Writer: &buf}).Info("x")

	assert.Contains(t, buf.String(), `"msg":"x"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLogger_MediaAndProviderFields(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf).Component("media_cache").WithMedia("anime", "5114").WithProvider("jikan")

	log.Warn("serving stale record")

	line := decodeLine(t, &buf)
	assert.Equal(t, "media_cache", line["component"])
	assert.Equal(t, "anime", line["media_type"])
	assert.Equal(t, "5114", line["external_id"])
	assert.Equal(t, "jikan", line["provider"])
	assert.Equal(t, "WARN", line["level"])
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf)

	log.WithError(errors.New("upstream unavailable")).Info("refresh failed")
	assert.Equal(t, "upstream unavailable", decodeLine(t, &buf)["error"])

	// A nil error leaves the logger untouched.
	assert.Same(t, log, log.WithError(nil))
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	// No level configured means info.
	assert.False(t, NewPrettyHandler(&bytes.Buffer{}, nil).Enabled(context.Background(), slog.LevelDebug))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("refreshed", "media_type", "manga", "released", 380)

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "refreshed")
	assert.Contains(t, out, "media_type=manga")
	assert.Contains(t, out, "released=380")
}

func TestPrettyHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)

	assert.Same(t, h, h.WithGroup(""))

	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "store")}).WithGroup("record"))
	log.Info("upsert", "external_id", "2")

	out := buf.String()
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "record.external_id=2")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true})).Info("x")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level     slog.Level
		wantStr   string
		wantColor string
	}{
		{slog.LevelDebug, "DBG", colorMagenta},
		{slog.LevelInfo, "INF", colorGreen},
		{slog.LevelWarn, "WRN", colorYellow},
		{slog.LevelError, "ERR", colorRed},
	}

	for _, tt := range tests {
		str, color := formatLevel(tt.level)
		assert.Equal(t, tt.wantStr, str)
		assert.Equal(t, tt.wantColor, color)
	}
}

func TestFormatValue(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "2026-01-02T03:04:05Z", formatValue(slog.TimeValue(now)))
	assert.Equal(t, "24h0m0s", formatValue(slog.DurationValue(24*time.Hour)))
	assert.Equal(t, "64", formatValue(slog.IntValue(64)))
	assert.Equal(t, "Finished", formatValue(slog.StringValue("Finished")))
}
