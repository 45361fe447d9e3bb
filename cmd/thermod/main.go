// Command thermod is the daemon from spec section 4: it samples a
// Thermometer, consults a Timetable for the desired state, drives an
// Actuator, and exposes both the control surface and a bench diagnostics
// mux over HTTP.
package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"

	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/config"
	"github.com/brandondube/thermod/controlsurface"
	"github.com/brandondube/thermod/coordinator"
	"github.com/brandondube/thermod/generichttp/diag"
	"github.com/brandondube/thermod/loop"
	"github.com/brandondube/thermod/server"
	"github.com/brandondube/thermod/statusbus"
	"github.com/brandondube/thermod/therr"
	"github.com/brandondube/thermod/timetable"
)

// Version is the daemon version, typically injected via ldflags with git.
var Version = "1"

// Exit codes, per spec section 5's failure taxonomy.  0 and 1 are the
// usual success/generic-error codes; everything thermod-specific starts
// at 2 so a wrapping supervisor (systemd, etc.) can tell them apart.
const (
	exitOK = iota
	exitGeneric
	exitTimetableMissing
	exitTimetableInvalid
	exitSensorInit
	exitActuatorInit
	exitSocketInit
	exitRuntimeSensor
	exitRuntimeActuator
	exitShutdownActuator
	exitKeyboardInterrupt = 130
)

func root() {
	str := `thermod drives a thermostat over HTTP: a Thermometer, a Timetable
and an Actuator, coupled by a periodic control loop, with a JSON control
surface for reading and mutating the timetable.

Usage:
	thermod <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `thermod is configured via a YAML file, by default ` + config.FileName + ` in
the working directory.  mkconf writes the defaults to that file; conf
prints the configuration thermod would run with right now.

Thermometer.Variant selects "script", "filesystem" or "analog".
Actuator.Variant selects "script" or "gpio".  See each variant's fields
in the generated config for what it expects.

A missing config file is not an error -- thermod runs with defaults.
A missing or invalid timetable file on disk is: thermod refuses to
guess at a thermostat's setpoints.`
	fmt.Println(str)
}

func mkconf() {
	f, err := os.Create(config.FileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := config.WriteDefault(f); err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%+v\n", cfg)
}

func pversion() {
	fmt.Printf("thermod version %v\n", Version)
}

func run() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	tt, err := timetable.LoadFile(cfg.TimetablePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("thermod: no timetable at %s", cfg.TimetablePath)
			os.Exit(exitTimetableMissing)
		}
		log.Printf("thermod: invalid timetable at %s: %v", cfg.TimetablePath, err)
		os.Exit(exitTimetableInvalid)
	}

	if cfg.Debug && cfg.Thermometer.Variant == "script" {
		cfg.Thermometer.ScriptArgs = append(cfg.Thermometer.ScriptArgs, "--debug")
	}
	therm, err := buildThermometer(cfg.Thermometer)
	if err != nil {
		log.Printf("thermod: sensor init: %v", err)
		os.Exit(exitSensorInit)
	}
	therm = applyScale(therm, cfg.Scale)

	act, err := buildActuator(cfg.Actuator)
	if err != nil {
		log.Printf("thermod: actuator init: %v", err)
		os.Exit(exitActuatorInit)
	}
	if sa, ok := act.(*actuator.ScriptActuator); ok {
		sa.Debug = cfg.Debug
	}

	coord := coordinator.New(tt)
	bus := statusbus.New()
	interval := time.Duration(cfg.SamplingInterval * float64(time.Second))
	l := loop.New(coord, therm, act, bus, interval)

	stopWatch, err := config.WatchTimetable(cfg.TimetablePath, func() {
		err := coord.Mutate(func(timetable.Timetable) (timetable.Timetable, error) {
			return timetable.LoadFile(cfg.TimetablePath)
		})
		if err != nil {
			log.Printf("thermod: timetable reload: %v", err)
		}
	})
	if err != nil {
		log.Printf("thermod: timetable watch disabled: %v", err)
	} else {
		defer stopWatch()
	}

	surface := &controlsurface.Surface{
		Coordinator: coord,
		Bus:         bus,
		Thermometer: therm,
		Actuator:    act,
		Sense:       parseSense(cfg.Actuator.Sense),
		Version:     Version,
	}
	bench := diag.Bench{Thermometer: therm, Actuator: act}

	root := chi.NewRouter()
	root.Mount("/", surface.Router())
	root.Mount("/diag", diag.Mux(bench))

	mf := &server.Mainframe{}
	mf.Add(&server.Server{URLStem: "/", RouteTable: routeTableFor(surface)})
	mf.Add(&server.Server{URLStem: "/diag", RouteTable: routeTableFor(bench)})
	root.Get("/route-graph", mf.GraphHandler())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() { runErr <- l.Run() }()

	srv := &http.Server{Addr: cfg.Addr, Handler: root}
	srvErr := make(chan error, 1)
	go func() {
		log.Println("thermod: listening on", cfg.Addr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case s := <-sig:
		log.Printf("thermod: received %v, shutting down", s)
		l.Stop()
		<-runErr
		srv.Close()
		if st, ok := bus.Last(); ok && st.Error == "actuator" {
			log.Printf("thermod: actuator failed to release on shutdown: %s", st.Explain)
			os.Exit(exitShutdownActuator)
		}
		os.Exit(exitKeyboardInterrupt)
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("thermod: socket init: %v", err)
			l.Stop()
			<-runErr
			os.Exit(exitSocketInit)
		}
	case err := <-runErr:
		srv.Close()
		if err == nil {
			os.Exit(exitOK)
		}
		// loop.Run returns nil or a *FatalError.  Only an Actuator-kind
		// cause selects exitRuntimeActuator; every other cause exits with
		// exitRuntimeSensor.
		if k, ok := therr.KindOf(err); ok && k == therr.Actuator {
			log.Printf("thermod: runtime actuator failure: %v", err)
			os.Exit(exitRuntimeActuator)
		}
		log.Printf("thermod: runtime sensor failure: %v", err)
		os.Exit(exitRuntimeSensor)
	}
}

// routeTableFor builds a documentation-only RouteTable for the Mainframe's
// /route-graph listing -- the real handlers are already bound directly via
// surface.Router()/diag.Mux() above, so these entries are never dispatched
// through, only enumerated.
func routeTableFor(v interface{}) server.RouteTable {
	switch v.(type) {
	case *controlsurface.Surface:
		return server.RouteTable{
			"/settings":       nil,
			"/status/heating": nil,
			"/version":        nil,
			"/monitor":        nil,
		}
	case diag.Bench:
		return server.RouteTable{
			"/temperature": nil,
			"/actuator":    nil,
		}
	default:
		return server.RouteTable{}
	}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	if err := config.Setup(config.FileName); err != nil {
		log.Fatalf("config: %v", err)
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
