package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete everfind configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Exclude     ExcludeConfig     `yaml:"exclude" json:"exclude"`
	Display     DisplayConfig     `yaml:"display" json:"display"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// SearchConfig configures default search behavior. Values are applied
// in order of increasing precedence:
//  1. User config (~/.config/everfind/config.yaml) - personal defaults
//  2. Project config (.everfind.yaml) - per-repo tuning
//  3. Env vars (EVERFIND_*) - highest priority
//  4. Command-line flags override everything
type SearchConfig struct {
	// DefaultPath is searched when no path argument is given.
	DefaultPath string `yaml:"default_path" json:"default_path"`

	// ContextLines is the number of lines captured before and after
	// each match. Range: 0-50.
	ContextLines int `yaml:"context_lines" json:"context_lines"`

	// RespectGitignore enables gitignore-style exclusion rules. It is a
	// pointer so an explicit "false" in a config file is distinguishable
	// from the key being absent; nil means the default (true). Read it
	// through Config.GitignoreEnabled.
	RespectGitignore *bool `yaml:"respect_gitignore" json:"respect_gitignore"`
}

// PerformanceConfig configures concurrency and CPU throttling.
type PerformanceConfig struct {
	// CPUThreshold is the system CPU percentage above which search
	// workers pause between files. Range: 10-100.
	CPUThreshold float64 `yaml:"cpu_threshold" json:"cpu_threshold"`

	// ThrottleDelayMS is the pause applied per file while the CPU is
	// above the threshold, in milliseconds. Range: 0-10000.
	ThrottleDelayMS int `yaml:"throttle_delay_ms" json:"throttle_delay_ms"`

	// Workers is the traversal and search goroutine count.
	// Zero means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	// ResultBuffer is the capacity of the match channel between the
	// search workers and the aggregator.
	ResultBuffer int `yaml:"result_buffer" json:"result_buffer"`
}

// ExcludeConfig lists paths never searched.
type ExcludeConfig struct {
	// Dirs are directory names pruned anywhere in the tree.
	Dirs []string `yaml:"dirs" json:"dirs"`
	// Files are file paths or basenames skipped during the walk.
	Files []string `yaml:"files" json:"files"`
}

// DisplayConfig configures terminal output.
type DisplayConfig struct {
	// MaxLineLength truncates displayed lines longer than this.
	// Minimum: 50.
	MaxLineLength int `yaml:"max_line_length" json:"max_line_length"`
	// HighlightMatches colors the matched text when writing to a TTY.
	// Nil means the default (true); read it through
	// Config.HighlightEnabled.
	HighlightMatches *bool `yaml:"highlight_matches" json:"highlight_matches"`
}

// LoggingConfig configures the optional scan log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// defaultExcludedDirs are pruned unless the config overrides them.
var defaultExcludedDirs = []string{
	".git",
	"node_modules",
	"target",
	".vscode",
	".idea",
}

func boolPtr(v bool) *bool { return &v }

// NewConfig creates a Config with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			DefaultPath:      ".",
			ContextLines:     5,
			RespectGitignore: boolPtr(true),
		},
		Performance: PerformanceConfig{
			CPUThreshold:    80.0,
			ThrottleDelayMS: 100,
			Workers:         runtime.NumCPU(),
			ResultBuffer:    100,
		},
		Exclude: ExcludeConfig{
			Dirs:  defaultExcludedDirs,
			Files: nil,
		},
		Display: DisplayConfig{
			MaxLineLength:    1000,
			HighlightMatches: boolPtr(true),
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/everfind/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/everfind/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "everfind", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "everfind", "config.yaml")
	}
	return filepath.Join(home, ".config", "everfind", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for a search rooted at dir. It applies
// configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/everfind/config.yaml)
//  3. Project config (.everfind.yaml in dir)
//  4. Environment variables (EVERFIND_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadUserConfig loads the user configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// loadFromFile attempts to load configuration from .everfind.yaml or
// .everfind.yml in dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".everfind.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".everfind.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Search
	if other.Search.DefaultPath != "" {
		c.Search.DefaultPath = other.Search.DefaultPath
	}
	if other.Search.ContextLines != 0 {
		c.Search.ContextLines = other.Search.ContextLines
	}
	if other.Search.RespectGitignore != nil {
		c.Search.RespectGitignore = other.Search.RespectGitignore
	}

	// Performance
	if other.Performance.CPUThreshold != 0 {
		c.Performance.CPUThreshold = other.Performance.CPUThreshold
	}
	if other.Performance.ThrottleDelayMS != 0 {
		c.Performance.ThrottleDelayMS = other.Performance.ThrottleDelayMS
	}
	if other.Performance.Workers != 0 {
		c.Performance.Workers = other.Performance.Workers
	}
	if other.Performance.ResultBuffer != 0 {
		c.Performance.ResultBuffer = other.Performance.ResultBuffer
	}

	// Exclude lists replace the defaults rather than append, so a
	// project can opt back into searching node_modules.
	if len(other.Exclude.Dirs) > 0 {
		c.Exclude.Dirs = other.Exclude.Dirs
	}
	if len(other.Exclude.Files) > 0 {
		c.Exclude.Files = other.Exclude.Files
	}

	// Display
	if other.Display.MaxLineLength != 0 {
		c.Display.MaxLineLength = other.Display.MaxLineLength
	}
	if other.Display.HighlightMatches != nil {
		c.Display.HighlightMatches = other.Display.HighlightMatches
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies EVERFIND_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EVERFIND_CONTEXT_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.ContextLines = n
		}
	}
	if v := os.Getenv("EVERFIND_RESPECT_GITIGNORE"); v != "" {
		c.Search.RespectGitignore = boolPtr(strings.ToLower(v) == "true" || v == "1")
	}
	if v := os.Getenv("EVERFIND_CPU_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Performance.CPUThreshold = t
		}
	}
	if v := os.Getenv("EVERFIND_THROTTLE_DELAY_MS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d >= 0 {
			c.Performance.ThrottleDelayMS = d
		}
	}
	if v := os.Getenv("EVERFIND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.Workers = n
		}
	}
	if v := os.Getenv("EVERFIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.ContextLines < 0 || c.Search.ContextLines > 50 {
		return fmt.Errorf("search.context_lines must be between 0 and 50, got %d", c.Search.ContextLines)
	}
	if c.Performance.CPUThreshold < 10 || c.Performance.CPUThreshold > 100 {
		return fmt.Errorf("performance.cpu_threshold must be between 10 and 100, got %g", c.Performance.CPUThreshold)
	}
	if c.Performance.ThrottleDelayMS < 0 || c.Performance.ThrottleDelayMS > 10000 {
		return fmt.Errorf("performance.throttle_delay_ms must be between 0 and 10000, got %d", c.Performance.ThrottleDelayMS)
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must be non-negative, got %d", c.Performance.Workers)
	}
	if c.Performance.ResultBuffer < 0 {
		return fmt.Errorf("performance.result_buffer must be non-negative, got %d", c.Performance.ResultBuffer)
	}
	if c.Display.MaxLineLength < 50 {
		return fmt.Errorf("display.max_line_length must be at least 50, got %d", c.Display.MaxLineLength)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// GitignoreEnabled reports whether gitignore rules are honored.
// Unset means true.
func (c *Config) GitignoreEnabled() bool {
	return c.Search.RespectGitignore == nil || *c.Search.RespectGitignore
}

// HighlightEnabled reports whether matched text is colored.
// Unset means true.
func (c *Config) HighlightEnabled() bool {
	return c.Display.HighlightMatches == nil || *c.Display.HighlightMatches
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
