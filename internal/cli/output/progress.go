package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar displays completed operations against a known total.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	last    int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar for total operations.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
		last:  -1,
	}
}

// Increment records n more completed operations. The bar is redrawn only
// when the displayed percentage changes.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	if pct := p.percent(); pct != p.last {
		p.last = pct
		p.render()
	}
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) percent() int {
	if p.total <= 0 {
		return 100
	}
	pct := int(p.current * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (p *ProgressBar) render() {
	pct := p.percent()
	filled := p.width * pct / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3d%% (%d/%d)", p.title, bar, pct, p.current, p.total)
}
