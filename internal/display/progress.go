package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const progressWidth = 80

// Progress draws a single \r-overwritten status line on a terminal. When
// disabled every method is a no-op, so callers need not check for a TTY.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	enabled bool
	drawn   bool
}

// NewProgress returns a progress line for total items. enabled should be
// false when w is not a terminal.
func NewProgress(w io.Writer, label string, total int, enabled bool) *Progress {
	return &Progress{w: w, label: label, total: total, enabled: enabled && total > 0}
}

// Update redraws the line with the current counts and the last file name.
func (p *Progress) Update(done, failed int, name string) {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	status := fmt.Sprintf("  %s [%d/%d] %d%% ", p.label, done, p.total, done*100/p.total)
	if failed > 0 {
		status += fmt.Sprintf("(%d failed) ", failed)
	}
	const maxName = 40
	if r := []rune(name); len(r) > maxName {
		name = string(r[:maxName-1]) + "…"
	}
	status += name
	if n := len([]rune(status)); n < progressWidth {
		status += strings.Repeat(" ", progressWidth-n)
	}
	fmt.Fprintf(p.w, "\r%s", status)
	p.drawn = true
}

// Clear erases the line so regular log output starts on a clean row.
func (p *Progress) Clear() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawn {
		return
	}
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", progressWidth))
	p.drawn = false
}
