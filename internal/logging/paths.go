package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.everfind/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".everfind", "logs")
	}
	return filepath.Join(home, ".everfind", "logs")
}

// DefaultLogPath returns the default scan log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "scan.log")
}
