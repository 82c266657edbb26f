package nudge

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts wall time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending delayed callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Task is a cancellable delayed call. Arming it again replaces the pending
// call, so only the most recently armed callback can run.
type Task struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewTask creates a task scheduled on clock.
func NewTask(clock Clock) *Task {
	return &Task{clock: clock}
}

// Arm schedules f to run after d, cancelling any pending call.
func (t *Task) Arm(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			// Lost a race with Arm or Cancel.
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		f()
	})
}

// Cancel drops the pending call. It reports whether one was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := t.timer != nil
	t.stopLocked()
	t.gen++
	return pending
}

// Pending reports whether a call is armed and has not yet run.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// FakeClock is a manually advanced Clock. Callbacks run synchronously on
// the goroutine calling Advance, in due-time order.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*fakeTimer
}

// NewFakeClock returns a FakeClock reading now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f at Now()+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ft := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.tasks = append(c.tasks, ft)
	return ft
}

// Advance moves virtual time forward by d, running every callback that
// falls due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.popDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of callbacks not yet run or stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *FakeClock) popDueLocked(target time.Time) *fakeTimer {
	if len(c.tasks) == 0 {
		return nil
	}
	sort.SliceStable(c.tasks, func(i, j int) bool {
		if !c.tasks[i].at.Equal(c.tasks[j].at) {
			return c.tasks[i].at.Before(c.tasks[j].at)
		}
		return c.tasks[i].seq < c.tasks[j].seq
	})
	first := c.tasks[0]
	if first.at.After(target) {
		return nil
	}
	c.tasks = c.tasks[1:]
	return first
}

func (c *FakeClock) remove(ft *fakeTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tasks {
		if t == ft {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	seq   int
	f     func()
}

func (t *fakeTimer) Stop() bool {
	return t.clock.remove(t)
}
