package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everfind/everfind/internal/filter"
)

// buildTree writes files into dir; keys are slash-separated relative
// paths, values are file contents.
func buildTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// collect runs a walk and records the relative paths handed to the
// callback.
func collect(t *testing.T, opts Options) (Stats, []string) {
	t.Helper()

	var mu sync.Mutex
	var paths []string
	stats, err := Walk(context.Background(), opts, func(e Entry) error {
		mu.Lock()
		paths = append(paths, e.Path)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	return stats, paths
}

func TestWalkVisitsAllFiles(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"a.txt":         "a",
		"sub/b.txt":     "b",
		"sub/deep/c.go": "c",
	})

	stats, paths := collect(t, Options{Root: dir})

	assert.Equal(t, uint64(3), stats.Seen)
	assert.Equal(t, uint64(3), stats.Processed)
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt", "sub/deep/c.go"}, paths)
}

func TestWalkSerialMode(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})

	stats, paths := collect(t, Options{Root: dir, Workers: 1})
	assert.Equal(t, uint64(2), stats.Seen)
	assert.Len(t, paths, 2)
}

func TestWalkReportsProgress(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"a.txt":     "a",
		"b.txt":     "b",
		"sub/c.txt": "c",
	})

	var mu sync.Mutex
	var counts []uint64
	opts := Options{Root: dir, Progress: func(n uint64) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	}}

	stats, _ := collect(t, opts)

	assert.Len(t, counts, 3)
	// Each notification carries the running total; the highest equals
	// the final processed count.
	var max uint64
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	assert.Equal(t, stats.Processed, max)
}

func TestWalkMissingRootIsFatal(t *testing.T) {
	_, err := Walk(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")}, func(Entry) error { return nil })
	require.Error(t, err)
}

func TestWalkFileRootIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Walk(context.Background(), Options{Root: path}, func(Entry) error { return nil })
	require.Error(t, err)
}

func TestWalkAppliesFilter(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"keep.txt":           "small",
		"skip.log":           "skipped by path",
		"node_modules/x.js":  "excluded dir",
		"sub/node_modules/y": "excluded dir nested",
		"sub/keep2.txt":      "ok",
	})

	f := filter.New(nil, nil, []string{"node_modules"}, []string{"skip.log"})
	stats, paths := collect(t, Options{Root: dir, Filter: f})

	assert.Equal(t, uint64(2), stats.Seen)
	assert.ElementsMatch(t, []string{"keep.txt", "sub/keep2.txt"}, paths)
}

func TestWalkSizeBounds(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"tiny.txt": "ab",                    // 2 bytes
		"big.txt":  "0123456789formoredata", // > 10 bytes
	})

	min := int64(5)
	f := filter.New(&min, nil, nil, nil)
	stats, paths := collect(t, Options{Root: dir, Filter: f})

	assert.Equal(t, uint64(1), stats.Seen)
	assert.Equal(t, []string{"big.txt"}, paths)
}

func TestWalkHonorsIgnoreRules(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir()) // keep the host's global gitignore out
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		".gitignore":       "*.log\n",
		"a.txt":            "hello world",
		"error.log":        "ignored",
		".git/ignored.txt": "hello",
	})

	stats, paths := collect(t, Options{Root: dir, HonorIgnoreRules: true})

	// .gitignore itself is a regular file and not ignored.
	assert.ElementsMatch(t, []string{".gitignore", "a.txt"}, paths)
	assert.Equal(t, uint64(2), stats.Seen)
}

func TestWalkIgnoreRulesDisabledVisitsHidden(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		".gitignore":       "*.log\n",
		"error.log":        "not ignored when disabled",
		".git/ignored.txt": "visited when disabled",
		".hidden/h.txt":    "hidden dirs too",
	})

	stats, paths := collect(t, Options{Root: dir})

	assert.Equal(t, uint64(4), stats.Seen)
	assert.Contains(t, paths, "error.log")
	assert.Contains(t, paths, ".git/ignored.txt")
	assert.Contains(t, paths, ".hidden/h.txt")
}

func TestWalkCallbackErrorIsIsolated(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
	})

	var mu sync.Mutex
	var succeeded []string
	stats, err := Walk(context.Background(), Options{Root: dir}, func(e Entry) error {
		if e.Path == "b.txt" {
			return fmt.Errorf("simulated failure")
		}
		mu.Lock()
		succeeded = append(succeeded, e.Path)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), stats.Seen)
	assert.Equal(t, uint64(2), stats.Processed)
	assert.ElementsMatch(t, []string{"a.txt", "c.txt"}, succeeded)
}

func TestWalkSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir, map[string]string{"real.txt": "data"})
	require.NoError(t, os.Symlink(
		filepath.Join(dir, "real.txt"),
		filepath.Join(dir, "link.txt"),
	))

	stats, paths := collect(t, Options{Root: dir})
	assert.Equal(t, uint64(1), stats.Seen)
	assert.Equal(t, []string{"real.txt"}, paths)
}

func TestWalkCancellation(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 200; i++ {
		files[fmt.Sprintf("d%d/f%d.txt", i%20, i)] = "x"
	}
	buildTree(t, dir, files)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the walk starts

	stats, err := Walk(ctx, Options{Root: dir}, func(Entry) error { return nil })
	require.Error(t, err)
	assert.Zero(t, stats.Processed)
}

func TestWalkCountsMatchAcrossParallelism(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 120; i++ {
		files[fmt.Sprintf("d%d/f%d.txt", i%8, i)] = "content"
	}
	buildTree(t, dir, files)

	for _, workers := range []int{1, 2, 8} {
		stats, _ := collect(t, Options{Root: dir, Workers: workers})
		assert.Equal(t, uint64(120), stats.Seen, "workers=%d", workers)
		assert.Equal(t, uint64(120), stats.Processed, "workers=%d", workers)
	}
}
