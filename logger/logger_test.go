package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

var parseLevelTestCases = []struct {
	name     string
	input    string
	expected slog.Level
}{
	{name: "Debug", input: "debug", expected: slog.LevelDebug},
	{name: "UpperCaseWarn", input: "WARN", expected: slog.LevelWarn},
	{name: "WarningAlias", input: "warning", expected: slog.LevelWarn},
	{name: "Error", input: " error ", expected: slog.LevelError},
	{name: "Empty", input: "", expected: slog.LevelInfo},
	{name: "Unknown", input: "verbose", expected: slog.LevelInfo},
}

func TestParseLevel(t *testing.T) {
	for _, testCase := range parseLevelTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, parseLevel(testCase.input))
		})
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	assert := require.New(t)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped", "k", "v")
	assert.Zero(buf.Len(), "info should be filtered at warn level")

	log.Warn("kept", "request_id", "abc")

	entry := map[string]any{}
	assert.NoError(json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal("kept", entry["msg"])
	assert.Equal("abc", entry["request_id"])
	assert.Contains(entry, "source")
}
