// Package actuator implements the binary on/off device the control loop
// drives: a heater or a cooler relay.  Actuator itself is agnostic of which
// -- Sense carries the heating/cooling distinction as configuration rather
// than as a pair of subtypes.
package actuator

import (
	"sync"
	"time"

	"github.com/brandondube/thermod/therr"
)

// Sense distinguishes a heating actuator (switched on when too cold) from a
// cooling one (switched on when too hot).  The timetable's decision
// function itself is sense-agnostic; Sense only documents intent and is
// consulted by the control surface when rendering status text.
type Sense int

// The two senses an Actuator may be configured with.
const (
	SenseHeating Sense = iota
	SenseCooling
)

// Actuator switches a binary device on and off and reports its observed
// state.  switch_on/switch_off are idempotent at the hardware level --
// implementations must succeed on a redundant call.
type Actuator interface {
	SwitchOn() error
	SwitchOff() error
	Status() (bool, error)
	IsOn() bool
	SwitchOffTime() time.Time
}

// state is embedded by every Actuator implementation in this package: it
// tracks the cached on/off value and the last observed off-transition time,
// both behind a mutex since the control loop and the control surface's
// diagnostics reads may race.
type state struct {
	mu            sync.Mutex
	cachedOn      bool
	everChecked   bool
	switchOffTime time.Time
}

func (s *state) isOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedOn
}

func (s *state) switchOffTimeAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchOffTime
}

func (s *state) recordOn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedOn = true
	s.everChecked = true
}

func (s *state) recordOff(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedOn = false
	s.everChecked = true
	s.switchOffTime = now
}

func (s *state) setCached(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedOn = on
	s.everChecked = true
}

func (s *state) hasChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.everChecked
}

// isOnWithFallthrough implements the IsOn contract shared by every variant:
// the cached value is returned once a status has been observed, but the
// very first call always falls through to a real Status query.
func isOnWithFallthrough(s *state, status func() (bool, error)) bool {
	if !s.hasChecked() {
		if on, err := status(); err == nil {
			s.setCached(on)
		}
	}
	return s.isOn()
}

func actuatorErr(explain string) error {
	return therr.New(therr.Actuator, explain)
}

func wrapActuatorErr(cause error, explain string) error {
	return therr.Wrap(therr.Actuator, cause, explain)
}
