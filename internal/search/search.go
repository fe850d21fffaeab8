// Package search applies a compiled matcher to one file's contents and
// produces match records with optional surrounding context lines.
package search

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/everfind/everfind/internal/errors"
	"github.com/everfind/everfind/internal/pattern"
)

// Result is one match occurrence inside a file. It is created here, sent
// once over the result channel, consumed exactly once by the aggregator,
// then discarded.
type Result struct {
	// Path is the file path as handed to InFile.
	Path string
	// LineNumber is 1-based.
	LineNumber int
	// Line is the full text of the matched line.
	Line string
	// MatchedText is the first match on the line; later occurrences on
	// the same line are not separately reported.
	MatchedText string
	// ContextBefore holds up to contextLines lines ending at LineNumber-1.
	ContextBefore []string
	// ContextAfter holds up to contextLines lines starting at LineNumber+1.
	ContextAfter []string
}

// InFile reads the file at path and returns every line match in
// ascending line-number order. Non-UTF-8 content and I/O failures
// return an ErrCodeFileRead error; the caller isolates these so one
// unreadable file never aborts the scan.
func InFile(path string, m *pattern.Matcher, contextLines int) ([]Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeFileRead, fmt.Sprintf("cannot read file %s", path), err)
	}
	if !utf8.Valid(content) {
		return nil, errors.New(errors.ErrCodeFileRead, fmt.Sprintf("file %s is not valid UTF-8", path), nil)
	}

	lines := splitLines(string(content))

	var results []Result
	for i, line := range lines {
		start, end, ok := m.FindFirst([]byte(line))
		if !ok {
			continue
		}

		results = append(results, Result{
			Path:          path,
			LineNumber:    i + 1,
			Line:          line,
			MatchedText:   line[start:end],
			ContextBefore: contextBefore(lines, i, contextLines),
			ContextAfter:  contextAfter(lines, i, contextLines),
		})
	}

	return results, nil
}

// splitLines splits content on newlines, tolerating CRLF endings. A
// trailing newline does not produce an empty final line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// contextBefore returns up to n lines immediately preceding index i,
// clamped at the start of the file.
func contextBefore(lines []string, i, n int) []string {
	if n <= 0 || i == 0 {
		return nil
	}
	start := i - n
	if start < 0 {
		start = 0
	}
	out := make([]string, i-start)
	copy(out, lines[start:i])
	return out
}

// contextAfter returns up to n lines immediately following index i,
// clamped at the end of the file.
func contextAfter(lines []string, i, n int) []string {
	if n <= 0 || i >= len(lines)-1 {
		return nil
	}
	end := i + 1 + n
	if end > len(lines) {
		end = len(lines)
	}
	out := make([]string, end-i-1)
	copy(out, lines[i+1:end])
	return out
}
