package pipe

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

func newDeadLine(clock clock.Clock) *deadline { return &deadline{clock: clock} }

type deadline struct {
	clock clock.Clock
	m     sync.Mutex

	timer *clock.Timer
	t     time.Time
}

// set replaces the deadline. onExceed is called once the deadline passes,
// right away if it already has. It is never called with d.m held.
func (d *deadline) set(t time.Time, onExceed func()) {
	d.m.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.t = t

	if t.IsZero() {
		// zero value means no limit.
		d.m.Unlock()
		onExceed() // let waiters re-check a deadline that was just lifted.
		return
	}

	wait := d.clock.Until(t)
	if wait > 0 {
		d.timer = d.clock.AfterFunc(wait, onExceed)
	}
	d.m.Unlock()

	if wait <= 0 {
		onExceed()
	}
}

func (d *deadline) exceeded() bool {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t.IsZero() {
		return false
	}

	return d.clock.Until(d.t) <= 0
}

func (d *deadline) stop() {
	d.m.Lock()
	defer d.m.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
