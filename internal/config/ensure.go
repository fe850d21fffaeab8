package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// EnsureUserConfig writes the default user configuration on first run.
// A file lock guards against two concurrent invocations both writing
// the file. Returns the config path and whether this call created it.
func EnsureUserConfig() (string, bool, error) {
	configPath := GetUserConfigPath()
	if fileExists(configPath) {
		return configPath, false, nil
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	lock := flock.New(configPath + ".lock")
	if err := lock.Lock(); err != nil {
		return "", false, fmt.Errorf("failed to lock config file: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	// Another process may have won the race while we waited.
	if fileExists(configPath) {
		return configPath, false, nil
	}

	if err := NewConfig().WriteYAML(configPath); err != nil {
		return "", false, err
	}
	return configPath, true, nil
}
