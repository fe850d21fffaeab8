package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// matcherCacheSize bounds the number of cached per-directory matchers so
// deep trees with many nested .gitignore files cannot grow memory without
// limit.
const matcherCacheSize = 1000

// Ruleset layers ignore rules from all scopes for one walk root:
// the user's global ignore file, the root .gitignore plus the repository
// local exclude file, and nested .gitignore files discovered lazily as
// directories are visited. When disabled it ignores nothing, so every
// file including hidden ones is visited.
type Ruleset struct {
	root    string
	enabled bool

	// rootMatcher holds global-scope, root .gitignore, and local-exclude
	// rules. Built once in NewRuleset, read-only afterwards.
	rootMatcher *Matcher

	// cache holds matchers for directories that carry their own
	// .gitignore. Keyed by absolute directory path.
	cache   *lru.Cache[string, *Matcher]
	cacheMu sync.RWMutex
}

// NewRuleset builds the rule layers for the tree rooted at root.
// root must be absolute.
func NewRuleset(root string, enabled bool) (*Ruleset, error) {
	cache, err := lru.New[string, *Matcher](matcherCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create ignore matcher cache: %w", err)
	}

	rs := &Ruleset{
		root:        root,
		enabled:     enabled,
		rootMatcher: NewMatcher(),
		cache:       cache,
	}

	if !enabled {
		return rs, nil
	}

	// Global scope. Absent files are silently skipped.
	if global := globalIgnorePath(); global != "" {
		if err := rs.rootMatcher.AddFile(global, ""); err != nil {
			return nil, err
		}
	}

	// Repository scope at the root, then the local exclude scope.
	if err := rs.rootMatcher.AddFile(filepath.Join(root, ".gitignore"), ""); err != nil {
		return nil, err
	}
	if err := rs.rootMatcher.AddFile(filepath.Join(root, ".git", "info", "exclude"), ""); err != nil {
		return nil, err
	}

	return rs, nil
}

// Enabled reports whether ignore rules are being honored.
func (rs *Ruleset) Enabled() bool { return rs.enabled }

// Ignored reports whether relPath (relative to the walk root) is excluded
// by any ignore scope. Nested .gitignore files along the path are
// consulted, closest to the root first.
func (rs *Ruleset) Ignored(relPath string, isDir bool) bool {
	if !rs.enabled {
		return false
	}

	relPath = filepath.ToSlash(relPath)
	if rs.rootMatcher.Match(relPath, isDir) {
		return true
	}

	// Walk ancestor directories looking for nested .gitignore files.
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return false
	}
	parts := strings.Split(dir, "/")
	base := ""
	for _, part := range parts {
		if base == "" {
			base = part
		} else {
			base = base + "/" + part
		}
		if m := rs.matcherFor(base); m != nil && m.Match(relPath, isDir) {
			return true
		}
	}

	return false
}

// matcherFor returns the cached matcher for a directory's own .gitignore,
// parsing and caching it on first use. Returns nil when the directory has
// no .gitignore; that outcome is cached too, so repeated lookups in trees
// without nested ignore files stay stat-free.
func (rs *Ruleset) matcherFor(relDir string) *Matcher {
	absDir := filepath.Join(rs.root, filepath.FromSlash(relDir))

	rs.cacheMu.RLock()
	m, ok := rs.cache.Get(absDir)
	rs.cacheMu.RUnlock()
	if ok {
		return m
	}

	path := filepath.Join(absDir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		parsed := NewMatcher()
		if err := parsed.AddFile(path, relDir); err == nil {
			m = parsed
		}
	}

	rs.cacheMu.Lock()
	rs.cache.Add(absDir, m)
	rs.cacheMu.Unlock()

	return m
}

// globalIgnorePath locates the user's global ignore file. Checks
// $XDG_CONFIG_HOME/git/ignore then ~/.config/git/ignore, the default
// locations git consults when core.excludesFile is unset.
func globalIgnorePath() string {
	// When XDG_CONFIG_HOME is set git does not fall back to ~/.config.
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "git", "ignore")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
