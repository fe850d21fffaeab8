package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateUserConfig points the user config at a temp directory so tests
// never read or write the real one.
func isolateUserConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "everfind", "config.yaml")
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, ".", cfg.Search.DefaultPath)
	assert.Equal(t, 5, cfg.Search.ContextLines)
	assert.True(t, cfg.GitignoreEnabled())
	assert.Equal(t, 80.0, cfg.Performance.CPUThreshold)
	assert.Equal(t, 100, cfg.Performance.ThrottleDelayMS)
	assert.Equal(t, 100, cfg.Performance.ResultBuffer)
	assert.Contains(t, cfg.Exclude.Dirs, ".git")
	assert.Contains(t, cfg.Exclude.Dirs, "node_modules")
	assert.Equal(t, 1000, cfg.Display.MaxLineLength)
	assert.True(t, cfg.HighlightEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutAnyFiles(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.ContextLines)
}

func TestLoadProjectConfig(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()

	content := `
search:
  context_lines: 2
performance:
  cpu_threshold: 60
exclude:
  dirs: [vendor]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".everfind.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Search.ContextLines)
	assert.Equal(t, 60.0, cfg.Performance.CPUThreshold)
	assert.Equal(t, []string{"vendor"}, cfg.Exclude.Dirs)
	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.Performance.ThrottleDelayMS)
}

func TestLoadBoolOnlyProjectConfig(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()

	// A file that sets nothing but the true-default booleans must still
	// take effect.
	content := `
search:
  respect_gitignore: false
display:
  highlight_matches: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".everfind.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.GitignoreEnabled())
	assert.False(t, cfg.HighlightEnabled())
	// Untouched settings keep their defaults.
	assert.Equal(t, 5, cfg.Search.ContextLines)
	assert.Equal(t, 1000, cfg.Display.MaxLineLength)
}

func TestLoadYmlFallback(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".everfind.yml"), []byte("search:\n  context_lines: 9\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Search.ContextLines)
}

func TestLoadUserConfigThenProjectOverride(t *testing.T) {
	userPath := isolateUserConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("search:\n  context_lines: 7\nlogging:\n  level: debug\n"), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".everfind.yaml"), []byte("search:\n  context_lines: 3\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.ContextLines, "project config wins over user config")
	assert.Equal(t, "debug", cfg.Logging.Level, "user config still applies where project is silent")
}

func TestEnvOverrides(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("EVERFIND_CONTEXT_LINES", "11")
	t.Setenv("EVERFIND_CPU_THRESHOLD", "55.5")
	t.Setenv("EVERFIND_THROTTLE_DELAY_MS", "250")
	t.Setenv("EVERFIND_WORKERS", "3")
	t.Setenv("EVERFIND_LOG_LEVEL", "warn")
	t.Setenv("EVERFIND_RESPECT_GITIGNORE", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Search.ContextLines)
	assert.Equal(t, 55.5, cfg.Performance.CPUThreshold)
	assert.Equal(t, 250, cfg.Performance.ThrottleDelayMS)
	assert.Equal(t, 3, cfg.Performance.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.GitignoreEnabled())
}

func TestLoadInvalidYAML(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".everfind.yaml"), []byte("search: [not a map"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"context lines too high", func(c *Config) { c.Search.ContextLines = 51 }, "context_lines"},
		{"negative context lines", func(c *Config) { c.Search.ContextLines = -1 }, "context_lines"},
		{"threshold too low", func(c *Config) { c.Performance.CPUThreshold = 5 }, "cpu_threshold"},
		{"threshold too high", func(c *Config) { c.Performance.CPUThreshold = 101 }, "cpu_threshold"},
		{"delay too high", func(c *Config) { c.Performance.ThrottleDelayMS = 10001 }, "throttle_delay_ms"},
		{"negative workers", func(c *Config) { c.Performance.Workers = -1 }, "workers"},
		{"line length too small", func(c *Config) { c.Display.MaxLineLength = 49 }, "max_line_length"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEnsureUserConfigCreatesOnce(t *testing.T) {
	path := isolateUserConfig(t)

	got, created, err := EnsureUserConfig()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, path, got)
	assert.FileExists(t, path)

	// Round-trips through Load.
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.ContextLines)

	_, created, err = EnsureUserConfig()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".everfind.yaml")

	cfg := NewConfig()
	cfg.Search.ContextLines = 8
	cfg.Exclude.Files = []string{"secrets.txt"}
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Search.ContextLines)
	assert.Equal(t, []string{"secrets.txt"}, loaded.Exclude.Files)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "  ", wantNil: true},
		{in: "512", want: 512},
		{in: "10KB", want: 10_000},
		{in: "10KiB", want: 10_240},
		{in: "1.5MB", want: 1_500_000},
		{in: "potato", wantErr: true},
		{in: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}
