package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize parses a human-readable size string ("512", "10KB", "1.5MB")
// into a byte count. An empty string means no bound and returns nil.
func ParseSize(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("size %q is out of range", s)
	}

	size := int64(n)
	return &size, nil
}

// FormatSize renders a byte count for display ("1.5 MB").
func FormatSize(n int64) string {
	if n < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(n))
}
