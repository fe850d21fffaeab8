// Package profiling captures CPU, heap, and execution-trace profiles
// for one search run.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options selects which profiles to capture. Empty paths are skipped.
type Options struct {
	// CPUPath receives a CPU profile covering the whole run.
	CPUPath string
	// HeapPath receives a heap snapshot taken at the end of the run.
	HeapPath string
	// TracePath receives an execution trace covering the whole run.
	TracePath string
}

func (o Options) enabled() bool {
	return o.CPUPath != "" || o.HeapPath != "" || o.TracePath != ""
}

// Session is an in-progress profiling capture. Stop must be called to
// flush the profile files.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins the profiles requested in opts. It returns nil when no
// profile was requested, which callers treat as a no-op session.
func Start(opts Options) (*Session, error) {
	if !opts.enabled() {
		return nil, nil
	}

	s := &Session{opts: opts}

	if opts.CPUPath != "" {
		f, err := os.Create(opts.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if opts.TracePath != "" {
		f, err := os.Create(opts.TracePath)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}

	return s, nil
}

// Stop ends the capture and writes the heap snapshot if one was
// requested. Safe to call on a nil session.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}

	s.stopCPU()

	if s.traceFile != nil {
		trace.Stop()
		_ = s.traceFile.Close()
		s.traceFile = nil
	}

	if s.opts.HeapPath != "" {
		return writeHeap(s.opts.HeapPath)
	}
	return nil
}

func (s *Session) stopCPU() {
	if s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuFile.Close()
	s.cpuFile = nil
}

// writeHeap snapshots live allocations. GC runs first so the profile
// reflects reachable memory rather than garbage.
func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}
