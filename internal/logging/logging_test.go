package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "ERROR", want: slog.LevelError},
		{in: "bogus", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestRotatingWriterWritesAndRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.log")

	// 1 MB max keeps the test from rotating prematurely.
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestRotatingWriterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.log")

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Force the size over 1MB so the next write rotates.
	chunk := strings.Repeat("x", 512*1024)
	for i := 0; i < 3; i++ {
		_, err = w.Write([]byte(chunk))
		require.NoError(t, err)
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "rotated file should exist")
}

func TestNopScanLogger(t *testing.T) {
	log := Nop()
	assert.False(t, log.Enabled())

	// All methods are safe no-ops.
	log.LogMessage("msg")
	log.LogFile("p", 1, "processing")
	log.LogError("IO", "p", "m", "d")
}

func TestSlogScanLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log := NewScanLogger(logger)
	assert.True(t, log.Enabled())

	log.LogMessage("scan started")
	log.LogFile("a.txt", 11, "processing")
	log.LogError("IO", "b.txt", "read failed", "permission denied")

	out := buf.String()
	assert.Contains(t, out, "scan started")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "processing")
	assert.Contains(t, out, "read failed")
	assert.Contains(t, out, "permission denied")
}

func TestErrorCollectorCounts(t *testing.T) {
	c := NewErrorCollector(Nop())

	c.LogError("IO", "a", "m", "")
	c.LogError("IO", "b", "m", "")
	c.LogError("PATTERN", "c", "m", "")

	assert.Equal(t, 3, c.Total())
	assert.Equal(t, map[string]int{"IO": 2, "PATTERN": 1}, c.CountByCategory())

	summary := c.Summary()
	assert.Contains(t, summary, "3 errors recovered")
	assert.Contains(t, summary, "io: 2")
	assert.Contains(t, summary, "pattern: 1")
}

func TestErrorCollectorEmptySummary(t *testing.T) {
	c := NewErrorCollector(Nop())
	assert.Empty(t, c.Summary())
	assert.Zero(t, c.Total())
}

func TestErrorCollectorConcurrent(t *testing.T) {
	c := NewErrorCollector(Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.LogError("IO", fmt.Sprintf("file-%d", i), "m", "")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Total())
}

func TestSetupCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:     "debug",
		FilePath:  filepath.Join(dir, "scan.log"),
		MaxSizeMB: 1,
		MaxFiles:  2,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello from setup")
	cleanup()

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from setup")
}
