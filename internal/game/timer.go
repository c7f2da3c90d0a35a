package game

import (
	"sync"
	"time"
)

// deadline is a cancellable scheduled callback owning at most one pending
// firing. Arming a new callback invalidates any prior one: the sequence
// number is bumped on every Arm/Cancel and a firing whose captured sequence
// no longer matches is a no-op. Callbacks run outside the deadline lock, so
// they must re-check any session-level guard (phase, question index) under
// the session's own lock before acting.
type deadline struct {
	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// Arm schedules fn after delay, replacing any pending callback.
func (d *deadline) Arm(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(delay, func() {
		if !d.current(seq) {
			return
		}
		fn()
	})
}

// Cancel invalidates any pending callback.
func (d *deadline) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *deadline) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == seq
}
