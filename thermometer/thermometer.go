// Package thermometer implements the calibrated, smoothed temperature
// source the control loop samples every tick.  A Thermometer is just
// Temperature() -- everything else (scale conversion, glitch rejection,
// averaging, calibration) is a decorator wrapped around a raw sensor
// variant.  cmd/thermod stacks them outer-to-inner as scale adapter ->
// averaging -> similarity check -> raw sensor, so similarity checking and
// averaging operate on the sensor's native celsius readings.
package thermometer

import "github.com/brandondube/thermod/therr"

// Scale is the degree scale a Thermometer reports in.
type Scale int

// The two supported degree scales.
const (
	Celsius Scale = iota
	Fahrenheit
)

// Thermometer produces a single calibrated, smoothed temperature reading on
// demand.  Implementations return a *therr.Error of Kind Sensor on failure.
type Thermometer interface {
	Temperature() (float64, error)
}

// CToF converts celsius to fahrenheit.
func CToF(c float64) float64 { return 1.8*c + 32 }

// FToC converts fahrenheit to celsius.
func FToC(f float64) float64 { return (f - 32) / 1.8 }

func sensorErr(explain string) error {
	return therr.New(therr.Sensor, explain)
}

func wrapSensorErr(cause error, explain string) error {
	return therr.Wrap(therr.Sensor, cause, explain)
}
