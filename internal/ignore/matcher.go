// Package ignore implements version-control-style ignore rules for the
// directory walker. Patterns follow the gitignore syntax documented at
// https://git-scm.com/docs/gitignore and can be layered in three scopes:
// the user's global ignore file, repository .gitignore files (root and
// nested), and the repository-local exclude file (.git/info/exclude).
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// rule is a single compiled ignore pattern.
type rule struct {
	pattern  string         // original pattern text
	regex    *regexp.Regexp // compiled form, anchored ^...$
	negation bool           // pattern started with !
	dirOnly  bool           // pattern ended with /
	anchored bool           // pattern contained / or started with /
	base     string         // directory the pattern is scoped to ("" = root)
}

// Matcher holds compiled ignore patterns. It is immutable after the last
// Add call and safe to share across walker goroutines once built.
type Matcher struct {
	rules []rule
}

// NewMatcher creates an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int { return len(m.rules) }

// AddPattern adds one gitignore pattern scoped to the repository root.
func (m *Matcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base, which
// is how nested .gitignore files are scoped.
func (m *Matcher) AddPatternWithBase(pattern, base string) {
	// "\ " at the end of a pattern preserves the trailing space.
	escapedTrailingSpace := strings.HasSuffix(pattern, `\ `)

	pattern = strings.TrimSpace(pattern)
	if pattern == "" || (strings.HasPrefix(pattern, "#") && !strings.HasPrefix(pattern, `\#`)) {
		return
	}

	r := rule{pattern: pattern, base: filepath.ToSlash(base)}

	if strings.HasPrefix(pattern, `\#`) || strings.HasPrefix(pattern, `\!`) {
		pattern = pattern[1:]
		r.pattern = pattern
	} else if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = pattern[1:]
	}

	if escapedTrailingSpace && strings.HasSuffix(pattern, `\`) {
		pattern = strings.TrimSuffix(pattern, `\`) + " "
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}

	// A slash anywhere else also anchors the pattern to its base:
	// "doc/frotz" means "/doc/frotz", not "**/doc/frotz".
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") && !strings.HasPrefix(pattern, "*") {
		r.anchored = true
	}

	// Ignore files are scanned-tree input, so a malformed pattern (an
	// empty character class like "a[]" survives patternToRegex) must not
	// take the walk down. Git drops rules it cannot parse; so do we.
	re, err := regexp.Compile("^" + patternToRegex(pattern) + "$")
	if err != nil {
		return
	}
	r.regex = re
	m.rules = append(m.rules, r)
}

// AddFile reads patterns from an ignore file. A missing file is not an
// error, matching git's behavior for absent ignore files.
func (m *Matcher) AddFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.AddPatternWithBase(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ignore file: %w", err)
	}
	return nil
}

// Match reports whether path (slash-separated, relative to the rules'
// root) is ignored. Later rules override earlier ones, so a negation
// can re-include a previously ignored path.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, r := range m.rules {
		if matchRule(path, isDir, r) {
			ignored = !r.negation
		}
	}
	return ignored
}

// matchRule checks a single rule. Directory-only patterns match the
// directory itself and everything inside it.
func matchRule(path string, isDir bool, r rule) bool {
	if r.base != "" {
		if path != r.base && !strings.HasPrefix(path, r.base+"/") {
			return false
		}
		if path == r.base {
			path = filepath.Base(path)
		} else {
			path = strings.TrimPrefix(path, r.base+"/")
		}
	}

	parts := strings.Split(path, "/")
	basename := parts[len(parts)-1]

	if r.anchored {
		if r.regex.MatchString(path) {
			if r.dirOnly {
				return isDir
			}
			return true
		}
		if r.dirOnly {
			// Files under an anchored ignored directory are ignored too.
			for i := range parts[:len(parts)-1] {
				if r.regex.MatchString(strings.Join(parts[:i+1], "/")) {
					return true
				}
			}
		}
		return false
	}

	if r.dirOnly {
		for i, part := range parts {
			if r.regex.MatchString(part) {
				if i == len(parts)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	if r.regex.MatchString(basename) || r.regex.MatchString(path) {
		return true
	}
	for _, part := range parts {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// patternToRegex converts one gitignore glob to a regular expression.
// "*" matches within a component, "**" crosses component boundaries,
// "?" matches one non-slash character, and character classes pass
// through unchanged.
func patternToRegex(pattern string) string {
	var sb strings.Builder

	i := 0
	for i < len(pattern) {
		c := pattern[i]

		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					sb.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				if i == 0 || pattern[i-1] == '/' {
					sb.WriteString(".*")
					i += 2
					continue
				}
			}
			sb.WriteString("[^/]*")
			i++

		case '?':
			sb.WriteString("[^/]")
			i++

		case '[':
			j := i + 1
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				sb.WriteString(pattern[i : j+1])
				i = j + 1
			} else {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		case '\\':
			if i+1 < len(pattern) {
				sb.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		case '.', '+', '^', '$', '(', ')', '{', '}', '|':
			sb.WriteString(regexp.QuoteMeta(string(c)))
			i++

		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String()
}
