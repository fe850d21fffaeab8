package logging

import (
	"log/slog"
)

// ScanLogger is the logging capability the scan pipeline depends on.
// Implementations must be safe for concurrent use; every method is
// best-effort and must never propagate failures back into the scan.
type ScanLogger interface {
	// Enabled reports whether logging is active. Callers may use it to
	// skip building expensive log arguments.
	Enabled() bool

	// LogMessage records a freeform pipeline event.
	LogMessage(msg string)

	// LogFile records the disposition of one visited file: "processing",
	// "skipped (path excluded)", "skipped (size)", and so on.
	LogFile(path string, size int64, status string)

	// LogError records a recovered per-file or per-entry error.
	LogError(category, path, msg, detail string)
}

// slogScanLogger adapts a slog.Logger to the ScanLogger capability.
type slogScanLogger struct {
	log *slog.Logger
}

// NewScanLogger wraps a slog.Logger as a ScanLogger.
func NewScanLogger(log *slog.Logger) ScanLogger {
	return &slogScanLogger{log: log}
}

func (s *slogScanLogger) Enabled() bool { return true }

func (s *slogScanLogger) LogMessage(msg string) {
	s.log.Info(msg)
}

func (s *slogScanLogger) LogFile(path string, size int64, status string) {
	s.log.Debug("file",
		slog.String("path", path),
		slog.Int64("size", size),
		slog.String("status", status))
}

func (s *slogScanLogger) LogError(category, path, msg, detail string) {
	s.log.Warn(msg,
		slog.String("category", category),
		slog.String("path", path),
		slog.String("detail", detail))
}

// nopScanLogger discards everything. Used when --log is not set.
type nopScanLogger struct{}

// Nop returns a ScanLogger that discards all events.
func Nop() ScanLogger { return nopScanLogger{} }

func (nopScanLogger) Enabled() bool                               { return false }
func (nopScanLogger) LogMessage(string)                           {}
func (nopScanLogger) LogFile(string, int64, string)               {}
func (nopScanLogger) LogError(category, path, msg, detail string) {}
