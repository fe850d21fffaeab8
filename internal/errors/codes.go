// Package errors provides structured error handling for everfind.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, traversal)
//   - 4XX: Pattern and input validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and traversal I/O errors.
	CategoryIO Category = "IO"
	// CategoryPattern indicates search pattern compilation errors.
	CategoryPattern Category = "PATTERN"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeRootNotFound = "ERR_201_ROOT_NOT_FOUND"
	ErrCodeFileRead     = "ERR_202_FILE_READ"
	ErrCodeWalkEntry    = "ERR_203_WALK_ENTRY"

	// Pattern/validation errors (400-499)
	ErrCodeInvalidRegex = "ERR_401_INVALID_REGEX"
	ErrCodeInvalidHex   = "ERR_402_INVALID_HEX"
	ErrCodeInvalidSize  = "ERR_403_INVALID_SIZE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryPattern
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Pattern compilation, configuration, and a missing search root abort the
// run before the pipeline starts; per-file and per-entry failures are
// recovered and only degrade the scan.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigNotFound, ErrCodeConfigInvalid,
		ErrCodeRootNotFound,
		ErrCodeInvalidRegex, ErrCodeInvalidHex, ErrCodeInvalidSize:
		return SeverityFatal
	case ErrCodeFileRead, ErrCodeWalkEntry:
		return SeverityWarning
	}
	return SeverityError
}
