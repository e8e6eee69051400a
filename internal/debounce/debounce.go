// Package debounce delays bursts of calls so that only the latest one runs.
package debounce

import (
	"sync"
	"time"

	"ytissues/internal/debug"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDelay is the quiet period used for query assist requests.
const DefaultDelay = 150 * time.Millisecond

// Debouncer wraps producers so that only the most recent one in a burst
// runs. It is safe for concurrent use.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel chan struct{}
}

// New returns a debouncer with the given delay; non-positive delays use
// DefaultDelay.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Delay reports the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Decorate registers a new call and returns a command that waits for the
// delay and then runs producer. If another call is decorated before the
// delay elapses, the returned command yields nil without running producer.
func (d *Debouncer) Decorate(producer func() tea.Msg) tea.Cmd {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.cancel != nil {
		close(d.cancel)
	}
	cancel := make(chan struct{})
	d.cancel = cancel
	d.mu.Unlock()

	return func() tea.Msg {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-cancel:
			debug.Logf("debounce: call %d superseded", gen)
			return nil
		case <-timer.C:
		}
		if !d.isLatest(gen) {
			return nil
		}
		return producer()
	}
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.cancel != nil {
		close(d.cancel)
		d.cancel = nil
	}
}

func (d *Debouncer) isLatest(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == gen
}
