package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressInterval rate-limits redraws so hot scan loops do not spend
// their time writing to the terminal.
const progressInterval = 100 * time.Millisecond

var progressFrames = []string{"|", "/", "-", "\\"}

// Progress renders a live scanned-file counter while a scan runs. It
// stays silent when the writer is not a terminal, so piped and scripted
// runs see no control sequences. Update is safe to call concurrently
// from walker goroutines.
type Progress struct {
	w        io.Writer
	enabled  bool
	interval time.Duration

	mu    sync.Mutex
	last  time.Time
	frame int
	drawn bool
}

// NewProgress creates a Progress writing to w, typically stderr.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, enabled: isTerminal(w), interval: progressInterval}
}

// Update redraws the counter with the number of files searched so far.
func (p *Progress) Update(processed uint64) {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if p.drawn && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.drawn = true
	frame := progressFrames[p.frame%len(progressFrames)]
	p.frame++
	_, _ = fmt.Fprintf(p.w, "\r\x1b[K%s searched %d files", frame, processed)
}

// Done erases the counter line. Safe to call when nothing was drawn.
func (p *Progress) Done() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawn {
		return
	}
	p.drawn = false
	_, _ = fmt.Fprint(p.w, "\r\x1b[K")
}
