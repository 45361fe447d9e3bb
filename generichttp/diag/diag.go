// Package diag exposes the bench/commissioning diagnostics mux from spec
// section 4.8: raw, read-only thermometer and actuator state, bypassing the
// timetable entirely.  It never mutates anything.
package diag

import (
	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/generichttp"
	"github.com/brandondube/thermod/thermometer"
	"goji.io"
	"goji.io/pat"
)

// Source is the pair of raw readings the diagnostics mux exposes.
type Source interface {
	RawTemperature() (float64, error)
	RawActuatorOn() (bool, error)
}

// Bench wires a bare Thermometer and Actuator into a Source, with no
// timetable or coordinator involved -- exactly what commissioning a new
// sensor/relay pair on the bench needs.
type Bench struct {
	Thermometer thermometer.Thermometer
	Actuator    actuator.Actuator
}

// RawTemperature reads the thermometer directly.
func (b Bench) RawTemperature() (float64, error) { return b.Thermometer.Temperature() }

// RawActuatorOn reads the actuator's live status, not its cache.
func (b Bench) RawActuatorOn() (bool, error) { return b.Actuator.Status() }

// RT builds the goji route table for Source: GET /temperature and
// GET /actuator.
func RT(s Source) generichttp.RouteTable {
	return generichttp.RouteTable{
		pat.Get("/temperature"): generichttp.GetFloat(s.RawTemperature),
		pat.Get("/actuator"):    generichttp.GetBool(s.RawActuatorOn),
	}
}

// Mux builds a standalone goji mux serving Source's diagnostics routes,
// suitable for mounting under /diag in the main router.
func Mux(s Source) *goji.Mux {
	mux := goji.NewMux()
	RT(s).Bind(mux)
	return mux
}
