// Package engine wires pattern compilation, filesystem traversal, CPU
// throttling, and per-file search into one run. Worker goroutines push
// matches onto a bounded channel; a single aggregator drains it, keeps
// the global counts, and streams results to the caller in discovery
// order within each file.
package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/everfind/everfind/internal/filter"
	"github.com/everfind/everfind/internal/logging"
	"github.com/everfind/everfind/internal/monitor"
	"github.com/everfind/everfind/internal/pattern"
	"github.com/everfind/everfind/internal/search"
	"github.com/everfind/everfind/internal/walker"
)

// DefaultResultBuffer is the capacity of the match channel between the
// search workers and the aggregator.
const DefaultResultBuffer = 100

// Options configures a single search run.
type Options struct {
	// Root is the directory to search.
	Root string
	// Pattern is the raw pattern text as typed by the user.
	Pattern string
	// Kind selects how Pattern is interpreted.
	Kind pattern.Kind

	// MinSize and MaxSize bound file sizes in bytes. Nil means unbounded.
	MinSize *int64
	MaxSize *int64
	// ExcludedDirs are directory names pruned anywhere in the tree.
	ExcludedDirs []string
	// ExcludedPaths are file paths or basenames never searched.
	ExcludedPaths []string
	// HonorIgnoreRules enables gitignore-style exclusion.
	HonorIgnoreRules bool

	// Workers is the traversal and search goroutine count. Zero means
	// one per CPU; 1 forces a serial scan.
	Workers int
	// ContextLines is the number of surrounding lines captured around
	// each match.
	ContextLines int
	// ResultBuffer overrides the match channel capacity when positive.
	ResultBuffer int

	// Monitor configures CPU sampling and throttling.
	Monitor monitor.Config

	// OnResult receives every match, called from the aggregator
	// goroutine only. Nil means matches are counted but not reported.
	OnResult func(search.Result)

	// OnProgress receives the running searched-file count as files
	// complete, called concurrently from worker goroutines. Nil
	// disables progress reporting.
	OnProgress func(processed uint64)

	// Log receives scan progress and recovered errors. Nil disables
	// scan logging.
	Log logging.ScanLogger
}

// Summary is the outcome of one completed run.
type Summary struct {
	// Start is when the run began.
	Start time.Time
	// Duration is the total wall time of the run.
	Duration time.Duration
	// TotalFiles counts files accepted for searching.
	TotalFiles uint64
	// ProcessedFiles counts files searched without error.
	ProcessedFiles uint64
	// MatchedFiles counts distinct files with at least one match.
	MatchedFiles uint64
	// TotalMatches counts matching lines across all files.
	TotalMatches uint64
	// CPU is the monitor state at the end of the run.
	CPU monitor.Status
}

// Run executes a complete search and blocks until every worker and the
// aggregator have finished. A pattern or root error is returned
// immediately; per-file errors are logged and excluded from the
// processed count. Cancelling ctx stops the traversal and returns the
// counts accumulated so far together with the context's error.
func Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()

	m, err := pattern.Compile(opts.Pattern, opts.Kind)
	if err != nil {
		return Summary{}, err
	}

	filt := filter.New(opts.MinSize, opts.MaxSize, opts.ExcludedDirs, opts.ExcludedPaths)

	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	mon := monitor.New(opts.Monitor, log)
	mon.Start()
	defer mon.Stop()

	buffer := opts.ResultBuffer
	if buffer <= 0 {
		buffer = DefaultResultBuffer
	}
	results := make(chan search.Result, buffer)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log.Enabled() {
		log.LogMessage("scan started: root=" + opts.Root + " pattern=" + opts.Pattern + " kind=" + opts.Kind.String())
	}

	// Single aggregator; it is the only reader of the channel and the
	// only caller of OnResult, so the caller never needs locking.
	agg := &aggregator{onResult: opts.OnResult, matched: make(map[string]struct{})}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			agg.consume(r)
		}
	}()

	stats, walkErr := walker.Walk(ctx, walker.Options{
		Root:             opts.Root,
		Filter:           filt,
		HonorIgnoreRules: opts.HonorIgnoreRules,
		Workers:          workers,
		Log:              log,
		Progress:         opts.OnProgress,
	}, func(e walker.Entry) error {
		mon.ApplyThrottle()
		found, err := search.InFile(e.AbsPath, m, opts.ContextLines)
		if err != nil {
			return err
		}
		for i := range found {
			found[i].Path = e.Path
			select {
			case results <- found[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	close(results)
	<-done

	summary := Summary{
		Start:          start,
		Duration:       time.Since(start),
		TotalFiles:     stats.Seen,
		ProcessedFiles: stats.Processed,
		MatchedFiles:   uint64(len(agg.matched)),
		TotalMatches:   agg.total,
		CPU:            mon.Status(),
	}
	if log.Enabled() {
		log.LogMessage(summary.logLine())
	}
	return summary, walkErr
}

func (s Summary) logLine() string {
	return "scan finished: " + s.Duration.Round(time.Millisecond).String()
}

// aggregator accumulates match counts. It runs on a single goroutine,
// so its fields need no synchronization.
type aggregator struct {
	onResult func(search.Result)
	matched  map[string]struct{}
	total    uint64
}

func (a *aggregator) consume(r search.Result) {
	a.matched[r.Path] = struct{}{}
	a.total++
	if a.onResult != nil {
		a.onResult(r)
	}
}
