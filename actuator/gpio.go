package actuator

import (
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// GPIORelay drives one or more GPIO pins to either an active-high or
// active-low "on" level, per spec section 4.2 variant (b).  Pin numbers
// are restricted to [0, 27].
type GPIORelay struct {
	pins       []gpio.PinIO
	activeHigh bool

	state
}

// NewGPIORelay initializes periph's host drivers (once per process is
// fine -- host.Init is idempotent) and resolves pinNumbers by their BCM
// number via gpioreg.ByName.
func NewGPIORelay(pinNumbers []int, activeHigh bool) (*GPIORelay, error) {
	if _, err := host.Init(); err != nil {
		return nil, wrapActuatorErr(err, "initializing periph host drivers")
	}
	pins := make([]gpio.PinIO, 0, len(pinNumbers))
	for _, n := range pinNumbers {
		if n < 0 || n > 27 {
			return nil, actuatorErr("GPIO pin number out of range [0,27]")
		}
		p := gpioreg.ByName(gpioName(n))
		if p == nil {
			return nil, actuatorErr("GPIO pin not found")
		}
		pins = append(pins, p)
	}
	if len(pins) == 0 {
		return nil, actuatorErr("GPIO relay requires at least one pin")
	}
	return &GPIORelay{pins: pins, activeHigh: activeHigh}, nil
}

func gpioName(n int) string {
	// periph resolves plain BCM numbers by their decimal string.
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if n < 10 {
		return string(digits[n])
	}
	return string(digits[n/10]) + string(digits[n%10])
}

func (g *GPIORelay) level(on bool) gpio.Level {
	if on == g.activeHigh {
		return gpio.High
	}
	return gpio.Low
}

// SwitchOn drives every pin to its configured "on" level.
func (g *GPIORelay) SwitchOn() error {
	lvl := g.level(true)
	for _, p := range g.pins {
		if err := p.Out(lvl); err != nil {
			return wrapActuatorErr(err, "driving GPIO pin on")
		}
	}
	g.recordOn()
	return nil
}

// SwitchOff drives every pin to its configured "off" level and records the
// transition time.
func (g *GPIORelay) SwitchOff() error {
	lvl := g.level(false)
	for _, p := range g.pins {
		if err := p.Out(lvl); err != nil {
			return wrapActuatorErr(err, "driving GPIO pin off")
		}
	}
	g.recordOff(time.Now())
	return nil
}

// Status reads the first pin's level, per spec section 4.2.
func (g *GPIORelay) Status() (bool, error) {
	lvl := g.pins[0].Read()
	on := (lvl == gpio.High) == g.activeHigh
	g.setCached(on)
	return on, nil
}

// IsOn returns the cached state, falling through to Status on the first
// call.
func (g *GPIORelay) IsOn() bool {
	return isOnWithFallthrough(&g.state, g.Status)
}

// SwitchOffTime returns the last observed off transition, or the zero time
// if the relay has never been switched off.
func (g *GPIORelay) SwitchOffTime() time.Time {
	return g.switchOffTimeAt()
}
