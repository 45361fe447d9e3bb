// Package statusbus implements the single-producer/many-consumer rendezvous
// described in spec section 4.7: the Control Loop offers the latest
// ThermodStatus and every consumer currently parked on Wait receives it and
// departs; late consumers park for the next one.  It never queues
// snapshots -- only the edge matters.
package statusbus

import (
	"sync"
	"time"

	"github.com/brandondube/thermod/timetable"
)

// Status is an immutable snapshot of the daemon's state at one instant.
type Status struct {
	Timestamp          time.Time
	Mode               timetable.Mode
	ActuatorOn         bool
	CurrentTemperature float64
	TargetTemperature  float64
	Error              string
	Explain            string
}

// Bus fans the latest Status out to any goroutines parked in Wait.  The
// zero value is not usable; use New.
type Bus struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
	last Status
}

// New creates a ready-to-use Bus.
func New() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish offers status to every consumer currently parked in Wait and
// bumps the generation counter so consumers that arrive afterward park for
// the next Publish instead of replaying this one.  Publishing with no
// parked consumers is a no-op beyond recording the snapshot.
func (b *Bus) Publish(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = s
	b.gen++
	b.cond.Broadcast()
}

// Last returns the most recently published Status without waiting.  ok is
// false if Publish has never been called, in which case the control
// surface falls back to reading the Thermometer/Actuator directly.
func (b *Bus) Last() (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.gen > 0
}

// Wait parks until the next Publish after the call, or until cancel fires,
// and returns the published Status.  The ok return is false only when
// cancelled before any snapshot arrived.  A nil cancel never fires.
func (b *Bus) Wait(cancel <-chan struct{}) (Status, bool) {
	b.mu.Lock()
	startGen := b.gen

	// sync.Cond has no channel-based wake; a watcher goroutine turns a
	// cancel signal into the same Broadcast a real Publish would send, so
	// the Cond.Wait below always wakes one way or another.
	stopWatch := make(chan struct{})
	if cancel != nil {
		go func() {
			select {
			case <-cancel:
				b.mu.Lock()
				b.cond.Broadcast()
				b.mu.Unlock()
			case <-stopWatch:
			}
		}()
	}

	for b.gen == startGen {
		select {
		case <-cancel:
			close(stopWatch)
			b.mu.Unlock()
			return Status{}, false
		default:
		}
		b.cond.Wait()
	}
	close(stopWatch)
	s := b.last
	b.mu.Unlock()
	return s, true
}
