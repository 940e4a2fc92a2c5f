package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("pretty"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: slog.LevelInfo, Format: FormatJSON, Service: "bot"})

	l.Debug("hidden")
	l.Info("score recorded", Period(547), Player(9), Cup("2024-3"), Err(nil), Err(errors.New("x")))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "score recorded", rec["msg"])
	assert.Equal(t, "bot", rec["service"])
	assert.EqualValues(t, 547, rec["period"])
	assert.EqualValues(t, 9, rec["player_id"])
	assert.Equal(t, "2024-3", rec["cup"])
	assert.Equal(t, "x", rec["error"])
}

func TestContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := New(DefaultOptions())
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}
