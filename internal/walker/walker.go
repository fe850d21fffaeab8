// Package walker provides parallel, ignore-aware filesystem traversal.
// A fixed pool of goroutines visits independent subtrees concurrently,
// applies the file filter and ignore rules, and invokes a per-file
// callback for every accepted regular file. No ordering is guaranteed
// between files discovered in different subtrees.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/everfind/everfind/internal/errors"
	"github.com/everfind/everfind/internal/filter"
	"github.com/everfind/everfind/internal/ignore"
	"github.com/everfind/everfind/internal/logging"
)

// Entry describes one accepted file handed to the callback.
type Entry struct {
	// Path is relative to the walk root, slash-separated.
	Path string
	// AbsPath is the absolute filesystem path.
	AbsPath string
	// Size is the file size in bytes.
	Size int64
}

// Callback is invoked once per accepted file, concurrently from multiple
// worker goroutines. A returned error is logged and isolated to that
// file; it is never retried and never stops the traversal.
type Callback func(Entry) error

// Stats are the final traversal counts, valid only after Walk returns.
type Stats struct {
	// Seen counts files accepted by the filter.
	Seen uint64
	// Processed counts files whose callback returned nil.
	Processed uint64
}

// Options configures a walk.
type Options struct {
	// Root is the directory to traverse.
	Root string
	// Filter rejects files by path, directory name, or size. Nil means
	// accept everything.
	Filter *filter.Filter
	// HonorIgnoreRules enables gitignore-style exclusion (global,
	// repository, and local-exclude scope). When false every file,
	// including hidden ones, is visited.
	HonorIgnoreRules bool
	// Workers is the traversal goroutine count. Zero or negative means
	// one worker per CPU; callers wanting serial traversal pass 1.
	Workers int
	// Log receives skip events and recovered per-entry errors. Nil means
	// no logging.
	Log logging.ScanLogger
	// Progress, when non-nil, receives the running processed-file count
	// as callbacks complete. Called concurrently from worker goroutines.
	Progress func(processed uint64)
}

// walk carries the shared state of one traversal.
type walk struct {
	root     string
	filt     *filter.Filter
	rules    *ignore.Ruleset
	log      logging.ScanLogger
	cb       Callback
	progress func(uint64)
	group    *errgroup.Group
	ctx      context.Context
	seen     atomic.Uint64
	procd    atomic.Uint64
	gitDir   bool // skip .git directories (ignore rules honored)
}

// Walk traverses the tree rooted at opts.Root. It returns the final
// counts once every worker has drained its subtree. Only a missing or
// non-directory root is fatal; per-entry failures are logged through
// opts.Log and traversal continues.
//
// Cancelling ctx aborts the remainder of the walk; the returned counts
// then reflect only the work finished before cancellation, alongside the
// context's error.
func Walk(ctx context.Context, opts Options, cb Callback) (Stats, error) {
	absRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return Stats{}, errors.New(errors.ErrCodeRootNotFound, fmt.Sprintf("cannot resolve root %s", opts.Root), err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return Stats{}, errors.New(errors.ErrCodeRootNotFound, fmt.Sprintf("cannot access root %s", absRoot), err).
			WithSuggestion("check that the search path exists")
	}
	if !info.IsDir() {
		return Stats{}, errors.New(errors.ErrCodeRootNotFound, fmt.Sprintf("root path is not a directory: %s", absRoot), nil)
	}

	rules, err := ignore.NewRuleset(absRoot, opts.HonorIgnoreRules)
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	filt := opts.Filter
	if filt == nil {
		filt = filter.New(nil, nil, nil, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	w := &walk{
		root:     absRoot,
		filt:     filt,
		rules:    rules,
		log:      log,
		cb:       cb,
		progress: opts.Progress,
		group:    g,
		ctx:      gctx,
		gitDir:   opts.HonorIgnoreRules,
	}

	g.Go(func() error { return w.scanDir("") })
	err = g.Wait()

	stats := Stats{Seen: w.seen.Load(), Processed: w.procd.Load()}
	return stats, err
}

// scanDir visits one directory. Subdirectories are handed to free pool
// slots when available and descended inline otherwise, which bounds
// parallelism at the pool size without ever blocking a worker.
func (w *walk) scanDir(relDir string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	absDir := filepath.Join(w.root, filepath.FromSlash(relDir))
	entries, err := os.ReadDir(absDir)
	if err != nil {
		// Permission denied or the directory vanished mid-scan.
		w.log.LogError(string(errors.CategoryIO), relDir, "cannot list directory", err.Error())
		return nil
	}

	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		rel := name
		if relDir != "" {
			rel = relDir + "/" + name
		}

		if entry.IsDir() {
			w.enterDir(rel, name)
			continue
		}
		w.visitFile(rel, entry)
	}

	return nil
}

// enterDir prunes excluded and ignored directories, then descends.
func (w *walk) enterDir(rel, name string) {
	if w.gitDir && name == ".git" {
		return
	}
	if w.filt.IsDirExcluded(name) {
		if w.log.Enabled() {
			w.log.LogFile(rel, 0, "skipped (directory excluded)")
		}
		return
	}
	if w.rules.Ignored(rel, true) {
		if w.log.Enabled() {
			w.log.LogFile(rel, 0, "skipped (ignore rules)")
		}
		return
	}

	sub := rel
	if !w.group.TryGo(func() error { return w.scanDir(sub) }) {
		// Pool saturated; keep going on this worker.
		_ = w.scanDir(sub)
	}
}

// visitFile applies ignore rules and the filter, then runs the callback.
func (w *walk) visitFile(rel string, entry os.DirEntry) {
	// Symlinks and other non-regular files are never searched.
	if !entry.Type().IsRegular() {
		return
	}

	info, err := entry.Info()
	if err != nil {
		w.log.LogError(string(errors.CategoryIO), rel, "cannot stat file", err.Error())
		return
	}
	size := info.Size()

	if w.rules.Ignored(rel, false) {
		if w.log.Enabled() {
			w.log.LogFile(rel, size, "skipped (ignore rules)")
		}
		return
	}
	if !w.filt.ShouldProcess(rel, size) {
		if w.log.Enabled() {
			reason := "skipped (size)"
			if w.filt.IsPathExcluded(rel) {
				reason = "skipped (path excluded)"
			}
			w.log.LogFile(rel, size, reason)
		}
		return
	}

	w.seen.Add(1)
	if w.log.Enabled() {
		w.log.LogFile(rel, size, "processing")
	}

	e := Entry{Path: rel, AbsPath: filepath.Join(w.root, filepath.FromSlash(rel)), Size: size}
	if err := w.cb(e); err != nil {
		w.log.LogError(string(errors.CategoryIO), rel, "file processing failed", err.Error())
		return
	}
	n := w.procd.Add(1)
	if w.progress != nil {
		w.progress(n)
	}
}
