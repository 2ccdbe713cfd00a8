package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const progressWidth = 30

// ProgressReporter reports progress over a batch of documents.
type ProgressReporter interface {
	// Start begins a batch of total documents.
	Start(total int)
	// Done records one finished document; a non-nil err counts as a failure
	// and is printed above the bar.
	Done(file string, err error)
	Finish()
}

// BatchProgress renders a single-line bar with a running failure count.
type BatchProgress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	done    int
	failed  int
	started time.Time
}

// NewProgressReporter returns a reporter writing to w, or os.Stderr when w
// is nil.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &BatchProgress{w: w}
}

func (p *BatchProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total, p.done, p.failed = total, 0, 0
	p.started = time.Now()
	p.draw()
}

func (p *BatchProgress) Done(file string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done < p.total {
		p.done++
	}
	if err != nil {
		p.failed++
		fmt.Fprintf(p.w, "\r\033[K✗ %s: %v\n", file, err)
	}
	p.draw()
}

func (p *BatchProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
}

// draw redraws the bar in place. Callers hold p.mu.
func (p *BatchProgress) draw() {
	if p.total == 0 {
		return
	}

	filled := progressWidth * p.done / p.total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressWidth-filled)

	var rate float64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	fmt.Fprintf(p.w, "\r[%s] %d/%d documents, %d failed, %.1f files/s",
		bar, p.done, p.total, p.failed, rate)
}
