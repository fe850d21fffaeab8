package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBackups is the maximum number of config backups to keep
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files
	BackupSuffix = ".bak"
)

// BackupUserConfig creates a timestamped backup of the user config file.
// Returns the backup file path on success. If no user config exists,
// returns empty string and nil error.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	timestamp := time.Now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, timestamp)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Cleanup is best-effort; the backup itself succeeded.
	_ = cleanupOldBackups(configPath)

	return backupPath, nil
}

// ListUserConfigBackups returns all backup files for the user config,
// newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	return listBackups(configPath)
}

func listBackups(configPath string) ([]string, error) {
	configDir := filepath.Dir(configPath)
	prefix := filepath.Base(configPath) + BackupSuffix + "."

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(configDir, entry.Name()))
		}
	}

	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// cleanupOldBackups removes all but the newest MaxBackups backups.
func cleanupOldBackups(configPath string) error {
	backups, err := listBackups(configPath)
	if err != nil {
		return err
	}
	for _, old := range backups[min(len(backups), MaxBackups):] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
