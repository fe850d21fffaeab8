// Package logging provides opt-in file-based logging with rotation for
// everfind. When the --log flag is set, per-file scan traces and error
// details are written to ~/.everfind/logs/ for later inspection.
//
// The scan pipeline only ever talks to the ScanLogger capability; with
// logging disabled it receives a no-op implementation, so a logging
// failure can never fail the scan.
package logging
