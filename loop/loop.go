// Package loop implements the periodic control loop from spec section 4.5:
// it couples the Thermometer, the Timetable (via the Coordinator) and the
// Actuator, publishing a ThermodStatus snapshot every tick.
package loop

import (
	"log"
	"sync"
	"time"

	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/coordinator"
	"github.com/brandondube/thermod/statusbus"
	"github.com/brandondube/thermod/therr"
	"github.com/brandondube/thermod/thermometer"
)

// State is one of the three Control Loop lifecycle states.
type State int

// The three Control Loop states.
const (
	Running State = iota
	Stopping
	Stopped
)

// maxConsecutiveUnexpectedErrors is the escalation threshold from spec
// section 4.5: three consecutive unexpected errors is a fatal condition.
const maxConsecutiveUnexpectedErrors = 3

// FatalError is returned by Run when the loop escalates after three
// consecutive unexpected errors.  Kind is the therr Kind carried by the last
// of those errors, or therr.Sensor when it carries none.  Sensor- and
// Actuator-kind errors are recovered by Run and never escalate, so Kind does
// not record whether the thermometer or the actuator produced the error.
type FatalError struct {
	Kind  therr.Kind
	Cause error
}

func (e *FatalError) Error() string {
	return "thermod: fatal, " + e.Kind.String() + ": " + e.Cause.Error()
}

func (e *FatalError) Unwrap() error { return e.Cause }

// Loop is the Control Loop: it owns nothing but references to its
// collaborators and its own run state.
type Loop struct {
	Coordinator *coordinator.Coordinator
	Thermometer thermometer.Thermometer
	Actuator    actuator.Actuator
	Bus         *statusbus.Bus
	Interval    time.Duration

	mu       sync.Mutex
	state    State
	onSince  time.Time // zero when the actuator is believed off
	stopCh   chan struct{}
}

// New builds a Loop in the Running state.
func New(c *coordinator.Coordinator, t thermometer.Thermometer, a actuator.Actuator, bus *statusbus.Bus, interval time.Duration) *Loop {
	return &Loop{
		Coordinator: c,
		Thermometer: t,
		Actuator:    a,
		Bus:         bus,
		Interval:    interval,
		state:       Running,
		stopCh:      make(chan struct{}),
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stop requests a graceful shutdown: the flag is only observed at a
// condition-wait wake, so Stop also notifies the Coordinator to guarantee
// bounded wake-up latency, per spec section 5.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state == Running {
		l.state = Stopping
	}
	l.mu.Unlock()
	close(l.stopCh)
	l.Coordinator.Notify()
}

func (l *Loop) stopRequested() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

// Run drives the loop until Stop is called or three consecutive unexpected
// errors escalate it to a fatal stop.  It is meant to be run on its own
// goroutine (or as the daemon's main goroutine); it returns a *FatalError
// only on escalation, nil on a clean Stop.
func (l *Loop) Run() error {
	consecutiveUnexpected := 0
	for {
		if l.stopRequested() {
			l.shutdown()
			return nil
		}

		err := l.tick()
		if err == nil {
			consecutiveUnexpected = 0
		} else if kind, ok := therr.KindOf(err); ok && (kind == therr.Sensor || kind == therr.Actuator) {
			// recovered locally: logged, reflected in the published
			// status, retried next tick.
			log.Printf("thermod: control loop %v error: %v", kind, err)
			consecutiveUnexpected = 0
		} else {
			consecutiveUnexpected++
			log.Printf("thermod: unexpected control loop error (%d/%d): %v", consecutiveUnexpected, maxConsecutiveUnexpectedErrors, err)
			if consecutiveUnexpected >= maxConsecutiveUnexpectedErrors {
				fatalKind := therr.Sensor
				if k, ok := therr.KindOf(err); ok {
					fatalKind = k
				}
				l.shutdown()
				return &FatalError{Kind: fatalKind, Cause: err}
			}
		}

		l.Coordinator.Wait(l.Interval)
	}
}

func (l *Loop) tick() error {
	now := time.Now()
	temp, err := l.Thermometer.Temperature()
	if err != nil {
		l.Bus.Publish(statusbus.Status{
			Timestamp: now,
			ActuatorOn: l.Actuator.IsOn(),
			Error:     "sensor",
			Explain:   err.Error(),
		})
		return err
	}

	tt := l.Coordinator.Get()
	actuatorOn := l.Actuator.IsOn()
	onSince := l.currentOnSince(actuatorOn)

	active, err := tt.ShouldBeActive(temp, actuatorOn, onSince, now)
	if err != nil {
		return err
	}

	target, _ := tt.TargetTemperature(now)

	if active && !actuatorOn {
		if err := l.Actuator.SwitchOn(); err != nil {
			l.Bus.Publish(statusbus.Status{
				Timestamp: now, Mode: tt.Mode(), ActuatorOn: actuatorOn,
				CurrentTemperature: temp, TargetTemperature: target,
				Error: "actuator", Explain: err.Error(),
			})
			return err
		}
		l.recordOnSince(now)
		actuatorOn = true
	} else if !active && actuatorOn {
		if err := l.Actuator.SwitchOff(); err != nil {
			l.Bus.Publish(statusbus.Status{
				Timestamp: now, Mode: tt.Mode(), ActuatorOn: actuatorOn,
				CurrentTemperature: temp, TargetTemperature: target,
				Error: "actuator", Explain: err.Error(),
			})
			return err
		}
		l.recordOnSince(time.Time{})
		actuatorOn = false
	}

	l.Bus.Publish(statusbus.Status{
		Timestamp:          now,
		Mode:               tt.Mode(),
		ActuatorOn:         actuatorOn,
		CurrentTemperature: temp,
		TargetTemperature:  target,
	})
	return nil
}

func (l *Loop) currentOnSince(actuatorOn bool) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !actuatorOn {
		return time.Time{}
	}
	return l.onSince
}

func (l *Loop) recordOnSince(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSince = t
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.state = Stopping
	l.mu.Unlock()

	err := l.Actuator.SwitchOff() // best-effort release
	l.Bus.Publish(statusbus.Status{
		Timestamp:  time.Now(),
		ActuatorOn: false,
		Error:      shutdownErrText(err),
	})

	l.mu.Lock()
	l.state = Stopped
	l.mu.Unlock()
}

func shutdownErrText(err error) string {
	if err == nil {
		return ""
	}
	return "actuator"
}
