package scanner

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressTracker prints a periodic "\rlabel: done/total" line while a phase runs.
// A nil tracker is valid and does nothing.
type ProgressTracker struct {
	out       io.Writer
	label     string
	total     int64
	processed atomic.Int64
	errors    atomic.Int64
	ticker    *time.Ticker
	done      chan struct{}
	mu        sync.Mutex
	stopped   bool
}

// NewProgressTracker starts reporting to out every interval
func NewProgressTracker(out io.Writer, label string, total int, interval time.Duration) *ProgressTracker {
	tracker := &ProgressTracker{
		out:    out,
		label:  label,
		total:  int64(total),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}

	go tracker.displayProgress()

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if !p.stopped {
				p.print()
			}
			p.mu.Unlock()
		}
	}
}

func (p *ProgressTracker) print() {
	if errs := p.errors.Load(); errs > 0 {
		fmt.Fprintf(p.out, "\r%s: %d/%d (Errors: %d)", p.label, p.processed.Load(), p.total, errs)
	} else {
		fmt.Fprintf(p.out, "\r%s: %d/%d", p.label, p.processed.Load(), p.total)
	}
}

// Done records one processed item
func (p *ProgressTracker) Done(ok bool) {
	if p == nil {
		return
	}
	p.processed.Add(1)
	if !ok {
		p.errors.Add(1)
	}
}

// Processed returns the number of items recorded so far
func (p *ProgressTracker) Processed() int {
	if p == nil {
		return 0
	}
	return int(p.processed.Load())
}

// Errors returns the number of failed items recorded so far
func (p *ProgressTracker) Errors() int {
	if p == nil {
		return 0
	}
	return int(p.errors.Load())
}

// Stop ends the progress tracking and prints the final line
func (p *ProgressTracker) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.ticker.Stop()
	close(p.done)
	p.print()
	fmt.Fprintln(p.out)
}
