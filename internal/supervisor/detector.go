package supervisor

import (
	"bytes"
	"sync"
)

// ReadyMarker appears in server output once the world has loaded and the
// server accepts connections.
const ReadyMarker = "]: Done"

// ReadyDetector is an io.Writer that watches a stream for a marker and
// calls onReady exactly once, the first time the marker is seen. After
// firing, or after Detach, writes are accepted and discarded.
type ReadyDetector struct {
	mu       sync.Mutex
	marker   []byte
	buf      []byte
	onReady  func()
	fired    bool
	detached bool
}

// NewReadyDetector watches for marker. An empty marker uses ReadyMarker.
func NewReadyDetector(marker string, onReady func()) *ReadyDetector {
	if marker == "" {
		marker = ReadyMarker
	}
	return &ReadyDetector{marker: []byte(marker), onReady: onReady}
}

func (d *ReadyDetector) Write(p []byte) (int, error) {
	d.mu.Lock()
	if d.fired || d.detached {
		d.mu.Unlock()
		return len(p), nil
	}
	d.buf = append(d.buf, p...)
	if !bytes.Contains(d.buf, d.marker) {
		// Only a marker-length tail can still complete a match.
		if keep := len(d.marker) - 1; len(d.buf) > keep {
			d.buf = append(d.buf[:0], d.buf[len(d.buf)-keep:]...)
		}
		d.mu.Unlock()
		return len(p), nil
	}
	d.fired = true
	d.buf = nil
	cb := d.onReady
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
	return len(p), nil
}

// Detach stops detection without firing.
func (d *ReadyDetector) Detach() {
	d.mu.Lock()
	d.detached = true
	d.buf = nil
	d.mu.Unlock()
}

// Fired reports whether the marker has been seen.
func (d *ReadyDetector) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}
