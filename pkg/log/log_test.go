package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  slog.Level
		known bool
	}{
		{name: "debug", want: slog.LevelDebug, known: true},
		{name: "WARN", want: slog.LevelWarn, known: true},
		{name: " error ", want: slog.LevelError, known: true},
		{name: "verbose", want: slog.LevelInfo, known: false},
		{name: "", want: slog.LevelInfo, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, known := ParseLevel(tt.name)
			assert.Equal(t, tt.want, level)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestNew_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "warn", FormatJSON).With("module", "editor")
	logger.Info("hidden")
	logger.Warn("Graph save failed", "workflow_id", "wf-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Graph save failed", record["msg"])
	assert.Equal(t, "editor", record["module"])
	assert.Equal(t, "wf-1", record["workflow_id"])
}

func TestNew_TextFallback(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, "info", "yaml").Info("ready")

	assert.Contains(t, buf.String(), "msg=ready")
}
