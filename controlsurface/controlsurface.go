// Package controlsurface implements the daemon's HTTP control surface from
// spec section 4.6: settings, status, version and long-poll monitor
// endpoints, all serialized through a Coordinator. The goroutine-per-request
// model chi/net/http gives us is the idiomatic Go rendering of the single-
// threaded cooperative reactor the design note describes -- Timetable access
// stays fully serialized by the Coordinator's mutex no matter how many
// handler goroutines are in flight.
package controlsurface

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/coordinator"
	"github.com/brandondube/thermod/statusbus"
	"github.com/brandondube/thermod/thermometer"
)

// Surface holds everything a control-surface handler needs to read or
// mutate daemon state.
type Surface struct {
	Coordinator *coordinator.Coordinator
	Bus         *statusbus.Bus
	Thermometer thermometer.Thermometer
	Actuator    actuatorStatus
	Sense       actuator.Sense
	Version     string
}

// actuatorStatus is the slice of actuator.Actuator the status endpoint
// needs -- just enough to build a ThermodStatus snapshot on demand, without
// pulling in the whole Actuator interface (switching is the Control Loop's
// job, never the control surface's).
type actuatorStatus interface {
	IsOn() bool
}

// Router builds the chi router serving every endpoint from spec section
// 4.6, mounted at the root so the caller decides where to nest it (e.g.
// under the Mainframe admin aggregator).
func (s *Surface) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/settings", s.getSettings)
	r.Post("/settings", s.postSettings)
	r.Get("/status/heating", s.getStatusHeating)
	r.Get("/version", s.getVersion)
	r.Get("/monitor", s.getMonitor)

	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)
	return r
}

// now is a seam for tests; production code always uses time.Now.
var now = time.Now
