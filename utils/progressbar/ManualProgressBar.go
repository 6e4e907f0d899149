package progressbar

import (
	"fmt"
	"io"
	"time"
)

// ManualProgressBar implements a progress bar that is only redrawn
// when Display is called. ManualProgressBar is not safe for concurrent
// use.
type ManualProgressBar struct {
	out     io.Writer
	width   int
	max     int
	current int
	start   time.Time
}

// NewManualProgressBar returns a new ManualProgressBar
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	if max < 1 {
		max = 1
	}
	return &ManualProgressBar{
		out:   out,
		width: width,
		max:   max,
		start: time.Now(),
	}
}

// Increment increments the internal progress counter and redraws the
// progress bar
func (p *ManualProgressBar) Increment() {
	if p.current < p.max {
		p.current++
	}
	p.Display()
}

// Display draws the progress bar
func (p *ManualProgressBar) Display() {
	fmt.Fprintf(p.out, "\r\033[K%v",
		render(p.width, p.current, p.max, time.Since(p.start)))
}

// Close moves the cursor past the progress bar
func (p *ManualProgressBar) Close() {
	fmt.Fprintln(p.out)
}
