package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrorCollector wraps a ScanLogger and keeps per-category counts of the
// recovered errors that flowed through it, for an end-of-run summary.
// Safe for concurrent use by all walker goroutines.
type ErrorCollector struct {
	ScanLogger

	mu     sync.Mutex
	counts map[string]int
}

// NewErrorCollector wraps inner with error counting.
func NewErrorCollector(inner ScanLogger) *ErrorCollector {
	return &ErrorCollector{
		ScanLogger: inner,
		counts:     make(map[string]int),
	}
}

// LogError counts the error by category and forwards it.
func (c *ErrorCollector) LogError(category, path, msg, detail string) {
	c.mu.Lock()
	c.counts[category]++
	c.mu.Unlock()

	c.ScanLogger.LogError(category, path, msg, detail)
}

// Total returns the number of errors recorded across all categories.
func (c *ErrorCollector) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// CountByCategory returns a copy of the per-category counts.
func (c *ErrorCollector) CountByCategory() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Summary renders a one-line error summary, or "" when nothing failed.
func (c *ErrorCollector) Summary() string {
	counts := c.CountByCategory()
	if len(counts) == 0 {
		return ""
	}

	categories := make([]string, 0, len(counts))
	for cat := range counts {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	total := 0
	for _, cat := range categories {
		parts = append(parts, fmt.Sprintf("%s: %d", strings.ToLower(cat), counts[cat]))
		total += counts[cat]
	}

	return fmt.Sprintf("%d errors recovered (%s)", total, strings.Join(parts, ", "))
}
