// Package filter provides the file selection predicate applied during
// directory traversal. A Filter combines size bounds with excluded
// directory names and excluded path strings; it is immutable after
// construction and freely shared across walker goroutines.
package filter

import (
	"path/filepath"
	"strings"
)

// Filter decides whether a file takes part in the scan.
// The zero value accepts everything; build one with New.
//
// Size bound consistency (min <= max) is the caller's responsibility;
// the filter only evaluates the predicates it is given.
type Filter struct {
	minSize *int64
	maxSize *int64

	excludedDirs  map[string]struct{}
	excludedPaths map[string]struct{}
}

// New builds a Filter. minSize/maxSize of nil mean unbounded. Directory
// names are matched against individual path components; path strings are
// matched exactly, by basename, or as a path suffix, after separator
// normalization.
func New(minSize, maxSize *int64, excludedDirs, excludedPaths []string) *Filter {
	f := &Filter{
		minSize:       minSize,
		maxSize:       maxSize,
		excludedDirs:  make(map[string]struct{}, len(excludedDirs)),
		excludedPaths: make(map[string]struct{}, len(excludedPaths)),
	}
	for _, d := range excludedDirs {
		if d = strings.TrimSpace(d); d != "" {
			f.excludedDirs[d] = struct{}{}
		}
	}
	for _, p := range excludedPaths {
		if p = strings.TrimSpace(p); p != "" {
			f.excludedPaths[p] = struct{}{}
		}
	}
	return f
}

// MatchesSize reports whether size falls inside the configured bounds.
func (f *Filter) MatchesSize(size int64) bool {
	if f.minSize != nil && size < *f.minSize {
		return false
	}
	if f.maxSize != nil && size > *f.maxSize {
		return false
	}
	return true
}

// IsPathExcluded reports whether path is rejected by the excluded-path
// or excluded-directory sets.
func (f *Filter) IsPathExcluded(path string) bool {
	normalized := normalize(path)
	base := basename(normalized)

	for excluded := range f.excludedPaths {
		ne := normalize(excluded)
		if normalized == ne {
			return true
		}
		if base == excluded {
			return true
		}
		if strings.HasSuffix(normalized, ne) {
			return true
		}
	}

	if len(f.excludedDirs) > 0 {
		for _, component := range strings.Split(normalized, "/") {
			if _, ok := f.excludedDirs[component]; ok {
				return true
			}
		}
	}

	return false
}

// IsDirExcluded reports whether a directory name is in the excluded set.
// Used by the walker to prune whole subtrees without listing them.
func (f *Filter) IsDirExcluded(name string) bool {
	_, ok := f.excludedDirs[name]
	return ok
}

// ShouldProcess is the combined predicate: path exclusion first, then
// directory exclusion (both inside IsPathExcluded), then size bounds.
// It has no side effects.
func (f *Filter) ShouldProcess(path string, size int64) bool {
	if f.IsPathExcluded(path) {
		return false
	}
	return f.MatchesSize(size)
}

// normalize rewrites Windows separators so exclusion entries match the
// same path regardless of which separator style they use.
func normalize(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")
}

func basename(normalized string) string {
	if i := strings.LastIndexByte(normalized, '/'); i >= 0 {
		return normalized[i+1:]
	}
	return normalized
}
