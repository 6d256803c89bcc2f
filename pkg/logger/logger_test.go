package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("TEST")
	l.SetOutput(&buf)

	SetGlobalLogLevel(WARN)
	defer SetGlobalLogLevel(INFO)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "[TEST]")
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	l := New("FILE")
	l.SetOutput(nil)
	require.NoError(t, l.SetFile(path))

	l.Error("disk write %s", "ok")
	require.NoError(t, l.file.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[ERROR] [FILE] disk write ok")
}

func TestFatalExits(t *testing.T) {
	var code int
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = os.Exit }()

	l := New("FATAL")
	l.SetOutput(nil)
	l.Fatal("boom")

	assert.Equal(t, 1, code)
}
