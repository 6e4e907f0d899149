// Package progressbar implements functionality of printing a progress
// bar over training iterations to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar implements a concurrent progress bar which redraws itself
// every updateEvery from its own goroutine. Increment may be called
// from any goroutine.
type ProgressBar struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	max     int
	current int
	start   time.Time

	updateEvery time.Duration
	done        chan struct{}
	finished    chan struct{}
	closed      bool
}

// NewProgressBar returns a new progress bar that is width characters
// wide and reaches 100% after max calls to Increment. Nothing is drawn
// until Display is called.
func NewProgressBar(out io.Writer, width, max int,
	updateEvery time.Duration) *ProgressBar {
	if max < 1 {
		max = 1
	}
	if updateEvery <= 0 {
		updateEvery = time.Second
	}
	return &ProgressBar{
		out:         out,
		width:       width,
		max:         max,
		updateEvery: updateEvery,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
}

// Increment increments the internal progress counter
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.max {
		p.current++
	}
}

// Current returns the number of increments so far
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Display starts redrawing the progress bar. It should only be called
// once.
func (p *ProgressBar) Display() {
	p.mu.Lock()
	p.start = time.Now()
	p.mu.Unlock()

	go func() {
		defer close(p.finished)
		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()

		for {
			select {
			case <-tick.C:
				p.draw()
			case <-p.done:
				return
			}
		}
	}()
}

// Close draws the final state of the progress bar and stops redrawing
func (p *ProgressBar) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := !p.start.IsZero()
	p.mu.Unlock()

	close(p.done)
	if started {
		<-p.finished
	}
	p.draw()
	fmt.Fprintln(p.out)
}

func (p *ProgressBar) draw() {
	p.mu.Lock()
	bar := render(p.width, p.current, p.max, time.Since(p.start))
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r\033[K%v", bar)
}

// render returns a single line progress bar
func render(width, current, max int, elapsed time.Duration) string {
	var bar strings.Builder
	bar.WriteString("|")

	filled := current * width / max
	bar.WriteString(strings.Repeat("█", filled))
	bar.WriteString(strings.Repeat(" ", width-filled))

	fmt.Fprintf(&bar, "| [%.2f%% | %d/%d | elapsed: %v]",
		float64(current)/float64(max)*100, current, max,
		elapsed.Truncate(time.Second))
	return bar.String()
}
