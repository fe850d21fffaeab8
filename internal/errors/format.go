package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	fe, ok := err.(*FindError)
	if !ok {
		// Wrap standard error
		fe = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", fe.Message))

	if fe.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", fe.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", fe.Code))

	return sb.String()
}
