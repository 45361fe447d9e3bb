// Package coordinator provides the single mutex/condition-variable pair
// that guards the Timetable (spec section 4.4).  Every reader and writer of
// the timetable goes through a Coordinator; nobody holds a pointer into its
// internals.
package coordinator

import (
	"sync"
	"time"

	"github.com/brandondube/thermod/timetable"
)

// Coordinator owns the single live Timetable value and the condition
// variable the control loop waits on.  The zero value is not usable; use
// New.
type Coordinator struct {
	mu    sync.Mutex
	cond  *sync.Cond
	table timetable.Timetable
}

// New creates a Coordinator seeded with the given initial Timetable.
func New(initial timetable.Timetable) *Coordinator {
	c := &Coordinator{table: initial}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Get returns a copy of the current Timetable.  Because Timetable is an
// immutable value type, the caller cannot affect the Coordinator's state
// through the returned value.
func (c *Coordinator) Get() timetable.Timetable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// Mutate runs fn against the current Timetable and, if fn succeeds, swaps
// the result in and broadcasts to any waiters.  fn is expected to be one of
// timetable.Apply, timetable.Load-then-replace, or similar -- it receives
// the current value and returns the next one.  If fn returns an error, the
// Coordinator's state is left untouched and no broadcast happens.
func (c *Coordinator) Mutate(fn func(timetable.Timetable) (timetable.Timetable, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.table)
	if err != nil {
		return err
	}
	c.table = next
	c.cond.Broadcast()
	return nil
}

// Wait blocks until either the condition is broadcast (a mutation was
// accepted, or Notify was called directly) or timeout elapses, whichever
// comes first.  It returns the Timetable observed at wake time.
//
// This bridges a blocking OS thread (the control loop) with the Coordinator
// the same condition variable the event-driven control surface notifies
// through Mutate/Notify -- sync.Cond.Broadcast is safe to call from any
// goroutine, so no additional channel plumbing is needed to cross that
// scheduling boundary.
func (c *Coordinator) Wait(timeout time.Duration) timetable.Timetable {
	c.mu.Lock()
	defer c.mu.Unlock()

	// sync.Cond has no timeout API of its own, so a timer fires the same
	// broadcast a real mutation would, waking the single Cond.Wait below
	// either way.
	timer := time.AfterFunc(timeout, c.Notify)
	defer timer.Stop()

	c.cond.Wait()
	return c.table
}

// Notify wakes anything blocked in Wait without changing the Timetable.
// Used by shutdown to guarantee bounded wake-up latency (spec section 5).
func (c *Coordinator) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cond.Broadcast()
}
