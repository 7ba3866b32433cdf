package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// PhaseLine shows the current startup phase on a single, redrawn terminal
// line with a spinner and the time spent in the phase. Done phases can be
// printed permanently above it with Println.
type PhaseLine struct {
	w       io.Writer
	mu      sync.Mutex
	phase   string
	detail  string
	since   time.Time
	stop    chan struct{}
	stopped bool
	now     func() time.Time
}

// NewPhaseLine starts redrawing to w every 100ms until Stop.
func NewPhaseLine(w io.Writer) *PhaseLine {
	pl := &PhaseLine{w: w, stop: make(chan struct{}), now: time.Now}
	pl.since = pl.now()
	go pl.loop()
	return pl
}

// Set switches to phase and restarts the phase timer.
func (pl *PhaseLine) Set(phase, detail string) {
	pl.mu.Lock()
	pl.phase, pl.detail = phase, detail
	pl.since = pl.now()
	pl.mu.Unlock()
}

// Println clears the spinner line and writes msg on its own line.
func (pl *PhaseLine) Println(msg string) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	fmt.Fprintf(pl.w, "\r\033[K%s\n", msg)
}

// Stop clears the line and ends the redraw loop. Safe to call twice.
func (pl *PhaseLine) Stop() {
	pl.mu.Lock()
	if pl.stopped {
		pl.mu.Unlock()
		return
	}
	pl.stopped = true
	close(pl.stop)
	fmt.Fprint(pl.w, "\r\033[K")
	pl.mu.Unlock()
}

func (pl *PhaseLine) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for tick := 0; ; tick++ {
		select {
		case <-pl.stop:
			return
		case <-ticker.C:
		}
		pl.mu.Lock()
		if !pl.stopped && pl.phase != "" {
			fmt.Fprintf(pl.w, "\r\033[K%s %s", spinnerFrames[tick%len(spinnerFrames)], pl.render())
		}
		pl.mu.Unlock()
	}
}

func (pl *PhaseLine) render() string {
	s := StatusStyle(pl.phase).Render(pl.phase)
	if pl.detail != "" {
		s += " " + pl.detail
	}
	return fmt.Sprintf("%s (%s)", s, FormatElapsed(pl.now().Sub(pl.since)))
}

// FormatElapsed renders d compactly: 850ms, 2.5s, 42s, 3m07s.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
