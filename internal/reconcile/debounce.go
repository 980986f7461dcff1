package reconcile

import (
	"sync"
	"time"
)

// DefaultWindow is the coalescing window for change bursts. One transaction
// write touches many edge rows at once; without coalescing each row change
// would trigger its own re-fetch.
const DefaultWindow = 500 * time.Millisecond

// Debouncer coalesces triggers within a window into a single flush call.
// The first trigger arms the timer; triggers that land inside the window are
// absorbed. Flush runs on the timer goroutine.
type Debouncer struct {
	window time.Duration
	flush  func()

	mu    sync.Mutex
	timer *time.Timer
	armed bool
}

// NewDebouncer creates a debouncer calling flush at most once per window.
func NewDebouncer(window time.Duration, flush func()) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, flush: flush}
}

// Trigger requests a flush. Calls while the window is open coalesce.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed {
		return
	}
	d.armed = true
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.armed = false
		d.mu.Unlock()
		d.flush()
	})
}

// Stop cancels any pending flush.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}
