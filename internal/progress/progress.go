// Package progress renders per-file sync progress on a terminal line.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/input-output-hk/sync-dir-s3/s3types"
)

const barWidth = 30

// Bar is a ProgressTracker that redraws a single line on every tick.
type Bar struct {
	mu      sync.Mutex
	out     io.Writer
	model   progress.Model
	total   int
	current int
	done    bool
}

var _ s3types.ProgressTracker = (*Bar)(nil)

// NewBar creates a bar for total entries writing to out.
func NewBar(out io.Writer, total int) *Bar {
	b := &Bar{
		out:   out,
		total: total,
		model: progress.New(
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
			progress.WithFillCharacters('#', '-'),
		),
	}
	b.render()
	return b
}

// Tick advances the bar by one entry.
func (b *Bar) Tick(_ s3types.FileEntry, _ s3types.Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if b.current < b.total {
		b.current++
	}
	b.render()
}

// Complete finishes the line.
func (b *Bar) Complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	fmt.Fprintln(b.out)
}

// Current returns the number of ticks seen.
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Bar) render() {
	percent := 1.0
	if b.total > 0 {
		percent = float64(b.current) / float64(b.total)
	}
	fmt.Fprintf(b.out, "\rsyncing [%s] %d of %d", b.model.ViewAs(percent), b.current, b.total)
}

// Nop discards progress. It is used in quiet mode.
type Nop struct{}

func (Nop) Tick(s3types.FileEntry, s3types.Outcome) {}

func (Nop) Complete() {}
