// Package monitor provides the CPU load monitor that throttles scan
// workers. A background goroutine samples average CPU utilization across
// all logical cores once per interval and compares it to a configured
// threshold; workers call ApplyThrottle in their hot path, which sleeps
// for a configured delay only while the threshold is exceeded.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/everfind/everfind/internal/logging"
)

// DefaultInterval is how often the sampler reads CPU usage.
const DefaultInterval = time.Second

// logEvery limits how often the sampler writes a usage line to the scan
// log while running.
const logEvery = 5 * time.Second

// SampleFunc reads average CPU utilization (0-100) across all logical
// cores over the given interval. Injectable for tests.
type SampleFunc func(ctx context.Context, interval time.Duration) (float64, error)

// systemSample reads real CPU usage via gopsutil. The call blocks for
// the interval and returns the system-wide average.
func systemSample(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu samples returned")
	}
	return percents[0], nil
}

// Config holds monitor tunables.
type Config struct {
	// Threshold is the CPU usage percentage above which workers throttle.
	Threshold float64
	// Delay is how long ApplyThrottle sleeps while throttling is active.
	Delay time.Duration
	// Interval is the sampling period. Zero means DefaultInterval.
	Interval time.Duration
}

// Status is an immutable snapshot of the monitor's shared state.
type Status struct {
	CPUUsage   float64
	Threshold  float64
	Throttling bool
	Running    bool
}

// String renders the status in the summary-line format.
func (s Status) String() string {
	state := "normal"
	if s.Throttling {
		state = "throttling"
	}
	out := fmt.Sprintf("CPU %.1f%%/%.1f%% (%s)", s.CPUUsage, s.Threshold, state)
	if !s.Running {
		out += " [stopped]"
	}
	return out
}

// Monitor samples CPU usage in the background and exposes a throttle
// decision through atomic state. The state machine is
// Stopped -> Running -> Stopped; Start is idempotent while running and
// Stop is a best-effort signal that does not wait for the final tick.
type Monitor struct {
	cfg    Config
	sample SampleFunc
	log    logging.ScanLogger

	// usage stores CPU percent * 100 so it fits an integer atomic.
	usage      atomic.Uint64
	throttling atomic.Bool
	running    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithSampleFunc replaces the CPU sampler. Used by tests.
func WithSampleFunc(fn SampleFunc) Option {
	return func(m *Monitor) { m.sample = fn }
}

// New creates a stopped Monitor.
func New(cfg Config, log logging.ScanLogger, opts ...Option) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	m := &Monitor{
		cfg:    cfg,
		sample: systemSample,
		log:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the background sampling loop. Calling Start on a
// running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running.Store(true)

	go m.loop(ctx)

	if m.log.Enabled() {
		m.log.LogMessage(fmt.Sprintf("cpu monitor started: threshold %.1f%%, delay %s",
			m.cfg.Threshold, m.cfg.Delay))
	}
}

// Stop signals the sampling loop to exit. It does not wait for the
// loop's final tick.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		return
	}
	m.cancel()
	m.running.Store(false)

	if m.log.Enabled() {
		m.log.LogMessage("cpu monitor stopped")
	}
}

// loop samples until cancelled. Each tick stores the usage value and
// recomputes the throttle flag.
func (m *Monitor) loop(ctx context.Context) {
	lastLog := time.Now()

	for {
		usage, err := m.sample(ctx, m.cfg.Interval)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// A failed sample leaves the previous decision in place.
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.Interval):
			}
			continue
		}

		m.usage.Store(uint64(usage * 100))
		throttle := usage > m.cfg.Threshold
		m.throttling.Store(throttle)

		if m.log.Enabled() && time.Since(lastLog) >= logEvery {
			state := "normal"
			if throttle {
				state = "throttling"
			}
			m.log.LogMessage(fmt.Sprintf("cpu usage %.1f%% (threshold %.1f%%) - %s",
				usage, m.cfg.Threshold, state))
			lastLog = time.Now()
		}
	}
}

// CPUUsage returns the most recently sampled usage percentage.
func (m *Monitor) CPUUsage() float64 {
	return float64(m.usage.Load()) / 100
}

// ShouldThrottle reports whether the last sample exceeded the threshold.
func (m *Monitor) ShouldThrottle() bool {
	return m.throttling.Load()
}

// ApplyThrottle sleeps for the configured delay when throttling is
// indicated, and returns immediately otherwise. This is the sole
// backpressure mechanism on the per-file hot path; the sleep is
// deliberately coarse.
func (m *Monitor) ApplyThrottle() {
	if m.ShouldThrottle() {
		time.Sleep(m.cfg.Delay)
	}
}

// Status returns a snapshot of the monitor state.
func (m *Monitor) Status() Status {
	return Status{
		CPUUsage:   m.CPUUsage(),
		Threshold:  m.cfg.Threshold,
		Throttling: m.ShouldThrottle(),
		Running:    m.running.Load(),
	}
}
