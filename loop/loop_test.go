package loop

import (
	"testing"
	"time"

	"github.com/brandondube/thermod/coordinator"
	"github.com/brandondube/thermod/statusbus"
	"github.com/brandondube/thermod/timetable"
)

type fakeThermometer struct {
	temp float64
	err  error
}

func (f *fakeThermometer) Temperature() (float64, error) { return f.temp, f.err }

type fakeActuator struct {
	on            bool
	switchOffTime time.Time
	failOn        bool
	failOff       bool
}

func (f *fakeActuator) SwitchOn() error {
	if f.failOn {
		return errTest
	}
	f.on = true
	return nil
}
func (f *fakeActuator) SwitchOff() error {
	if f.failOff {
		return errTest
	}
	f.on = false
	f.switchOffTime = time.Now()
	return nil
}
func (f *fakeActuator) Status() (bool, error)        { return f.on, nil }
func (f *fakeActuator) IsOn() bool                   { return f.on }
func (f *fakeActuator) SwitchOffTime() time.Time     { return f.switchOffTime }

type testErr struct{}

func (testErr) Error() string { return "boom" }

var errTest = testErr{}

func newTestLoop(t *testing.T, therm *fakeThermometer, act *fakeActuator) (*Loop, *coordinator.Coordinator) {
	t.Helper()
	tt, err := timetable.New(timetable.Anchors{T0: 20, TMin: 10, TMax: 25}, 0.5, 3600, "")
	if err != nil {
		t.Fatal(err)
	}
	tt, err = timetable.Apply(tt, timetable.WithMode(timetable.ModeOn))
	if err != nil {
		t.Fatal(err)
	}
	c := coordinator.New(tt)
	bus := statusbus.New()
	l := New(c, therm, act, bus, time.Second)
	return l, c
}

func TestTickSwitchesOnWhenModeOn(t *testing.T) {
	therm := &fakeThermometer{temp: 50}
	act := &fakeActuator{}
	l, _ := newTestLoop(t, therm, act)
	if err := l.tick(); err != nil {
		t.Fatal(err)
	}
	if !act.on {
		t.Error("mode=on must switch the actuator on regardless of temperature")
	}
}

func TestTickPropagatesSensorError(t *testing.T) {
	therm := &fakeThermometer{err: errTest}
	act := &fakeActuator{}
	l, _ := newTestLoop(t, therm, act)
	if err := l.tick(); err == nil {
		t.Fatal("expected sensor error to propagate")
	}
}

func TestRunEscalatesAfterThreeUnexpectedErrors(t *testing.T) {
	therm := &fakeThermometer{temp: 50}
	act := &fakeActuator{failOn: true}
	l, _ := newTestLoop(t, therm, act)
	l.Interval = time.Millisecond

	err := l.Run()
	fe, ok := err.(*FatalError)
	if !ok {
		t.Fatalf("expected *FatalError, got %T (%v)", err, err)
	}
	if l.State() != Stopped {
		t.Errorf("expected Stopped after escalation, got %v", l.State())
	}
	_ = fe
}

func TestStopEndsRunCleanly(t *testing.T) {
	therm := &fakeThermometer{temp: 50}
	act := &fakeActuator{}
	l, _ := newTestLoop(t, therm, act)
	l.Interval = 50 * time.Millisecond

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Stop()
	}()

	err := l.Run()
	if err != nil {
		t.Fatalf("expected a clean stop, got %v", err)
	}
	if l.State() != Stopped {
		t.Errorf("expected Stopped, got %v", l.State())
	}
}
