// Package timetable holds the weekly schedule data model: anchors, the
// 7x24x4 grid of target temperatures, the hysteresis/grace-time decision
// function, and the JSON schema that round-trips it to disk.
//
// Timetable is an immutable value.  Every mutating operation (Apply, Load)
// takes a Timetable and produces a new one; callers swap it into the
// Coordinator rather than mutating in place.  Because Schedule is a fixed
// [7][24][4]Temp array, copying a Timetable by value already deep-copies
// the schedule -- there is no need for an explicit clone/memento step.
package timetable

import (
	"math"
	"time"

	"github.com/brandondube/thermod/therr"
)

func graceDisabled(graceTime float64) bool {
	return math.IsInf(graceTime, 1)
}

// monotonicAfter returns a timestamp strictly after prev: wall-clock time
// if it has already advanced, or a single-nanosecond bump otherwise, so
// last_update_timestamp is strictly monotonic across accepted mutations
// even when two land in the same clock tick.
func monotonicAfter(prev time.Time) time.Time {
	now := time.Now()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

// Mode is one of the six modes a Timetable can be in.
type Mode string

// The six allowed modes.
const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
	ModeT0   Mode = "t0"
	ModeTMin Mode = "tmin"
	ModeTMax Mode = "tmax"
)

func (m Mode) valid() bool {
	switch m {
	case ModeAuto, ModeOn, ModeOff, ModeT0, ModeTMin, ModeTMax:
		return true
	}
	return false
}

// Anchors holds the three named reference temperatures.
type Anchors struct {
	T0   float64
	TMin float64
	TMax float64
}

func (a Anchors) resolve(name string) (float64, bool) {
	switch name {
	case "t0":
		return a.T0, true
	case "tmin":
		return a.TMin, true
	case "tmax":
		return a.TMax, true
	}
	return 0, false
}

// Temp is a schedule slot value: either a finite number, or the name of one
// of the three anchors, resolved at evaluation time rather than at storage
// time.
type Temp struct {
	anchor string // "" if this slot holds a literal number
	value  float64
}

// FromValue builds a Temp holding a literal, finite number.
func FromValue(v float64) Temp { return Temp{value: v} }

// FromAnchor builds a Temp that refers to one of "t0", "tmin", "tmax".
func FromAnchor(name string) Temp { return Temp{anchor: name} }

// Resolve returns the concrete temperature this slot represents given a set
// of anchors.
func (t Temp) Resolve(a Anchors) (float64, error) {
	if t.anchor == "" {
		return t.value, nil
	}
	v, ok := a.resolve(t.anchor)
	if !ok {
		return 0, therr.New(therr.Validation, "unknown anchor "+t.anchor)
	}
	return v, nil
}

// dayNames lists the canonical English day names in numeric order, index 0
// is sunday to match both time.Weekday and the "day numbers 0 and 7 both
// alias sunday" convention.
var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayIndex resolves a canonical day name to its numeric index in [0,6],
// sunday=0.  An unrecognized name yields ok=false.
func DayIndex(name string) (int, bool) {
	for i, n := range dayNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// DayNumberIndex resolves a day number (0-7, 0 and 7 both meaning sunday)
// to its index in [0,6].
func DayNumberIndex(n int) (int, bool) {
	if n == 7 {
		n = 0
	}
	if n < 0 || n > 6 {
		return 0, false
	}
	return n, true
}

// DayName returns the canonical name of the day at index idx (0=sunday).
func DayName(idx int) string { return dayNames[idx%7] }

// HourSlots holds the four 15-minute slots within one hour.
type HourSlots [4]Temp

// DaySchedule holds the 24 hours of one day.
type DaySchedule [24]HourSlots

// Schedule holds all seven days, indexed 0=sunday .. 6=saturday.
type Schedule [7]DaySchedule

// Timetable is the immutable, top-level schedule aggregate.  Every field is
// unexported except via accessors so external packages cannot mutate a live
// instance in place; the Coordinator owns the single writable copy.
type Timetable struct {
	mode         Mode
	anchors      Anchors
	schedule     Schedule
	differential float64
	graceTime    float64 // seconds; math.Inf(1) means disabled
	lastUpdate   time.Time
	filePath     string
}

// Mode returns the current mode.
func (t Timetable) Mode() Mode { return t.mode }

// Anchors returns the anchor temperatures.
func (t Timetable) Anchors() Anchors { return t.anchors }

// Differential returns the hysteresis band, in degrees.
func (t Timetable) Differential() float64 { return t.differential }

// GraceTime returns the maximum contiguous active time, in seconds.  May be
// +Inf.
func (t Timetable) GraceTime() float64 { return t.graceTime }

// LastUpdateTimestamp returns the time of the last accepted mutation.
func (t Timetable) LastUpdateTimestamp() time.Time { return t.lastUpdate }

// FilePath returns the on-disk backing store path.
func (t Timetable) FilePath() string { return t.filePath }

// Settings returns a serialized snapshot of t suitable for the control
// surface's GET /settings response.
func (t Timetable) Settings() ([]byte, error) { return t.Serialize() }

// New builds a fresh, validated Timetable with every slot set to the t0
// anchor and mode auto.  It is meant for tests and for mkconf-style
// bootstrapping; daemons normally start from LoadFile.
func New(anchors Anchors, differential, graceTime float64, filePath string) (Timetable, error) {
	var sched Schedule
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			for q := 0; q < 4; q++ {
				sched[d][h][q] = FromAnchor("t0")
			}
		}
	}
	t := Timetable{
		mode:         ModeAuto,
		anchors:      anchors,
		schedule:     sched,
		differential: differential,
		graceTime:    graceTime,
		filePath:     filePath,
	}
	if err := t.Validate(); err != nil {
		return Timetable{}, err
	}
	t.lastUpdate = monotonicAfter(t.lastUpdate)
	return t, nil
}

// Slot returns the Temp stored at (day, hour, quarter).  day is a canonical
// day name ("monday".."sunday"); hour is 0-23; quarter is 0-3.
func (t Timetable) Slot(day string, hour, quarter int) (Temp, error) {
	idx, ok := DayIndex(day)
	if !ok {
		return Temp{}, therr.New(therr.Validation, "unknown day "+day)
	}
	if hour < 0 || hour > 23 {
		return Temp{}, therr.New(therr.Validation, "hour out of range")
	}
	if quarter < 0 || quarter > 3 {
		return Temp{}, therr.New(therr.Validation, "quarter out of range")
	}
	return t.schedule[idx][hour][quarter], nil
}

// TargetTemperature returns the scheduled target at the given wall-clock
// moment, resolving mode and anchors exactly as ShouldBeActive does.
func (t Timetable) TargetTemperature(now time.Time) (float64, error) {
	switch t.mode {
	case ModeT0:
		return t.anchors.T0, nil
	case ModeTMin:
		return t.anchors.TMin, nil
	case ModeTMax:
		return t.anchors.TMax, nil
	default:
		// auto (and on/off, which ignore the target anyway, but we still
		// need to answer the question if asked directly)
		idx := int(now.Weekday())
		hour := now.Hour()
		quarter := now.Minute() / 15
		slot := t.schedule[idx][hour][quarter]
		return slot.Resolve(t.anchors)
	}
}

// ShouldBeActive is the decision function from spec section 4.3.
//
// currentTemp is the most recent thermometer reading.  actuatorOn is
// whether the actuator is currently on.  onSince is the time of the
// actuator's most recent off->on transition, tracked by the caller (see
// package loop); a zero onSince skips the grace-time check.  now is the
// wall-clock moment to evaluate at.
func (t Timetable) ShouldBeActive(currentTemp float64, actuatorOn bool, onSince time.Time, now time.Time) (bool, error) {
	switch t.mode {
	case ModeOff:
		return false, nil
	case ModeOn:
		return true, nil
	}

	target, err := t.TargetTemperature(now)
	if err != nil {
		return false, err
	}
	diff := t.differential

	var active bool
	if actuatorOn {
		active = currentTemp < target+diff/2
	} else {
		active = currentTemp <= target-diff/2
	}

	if active && actuatorOn && t.graceExceeded(onSince, now) {
		return false, nil
	}
	return active, nil
}

func (t Timetable) graceExceeded(onSince, now time.Time) bool {
	if graceDisabled(t.graceTime) {
		return false
	}
	if onSince.IsZero() {
		return false
	}
	return now.Sub(onSince).Seconds() >= t.graceTime
}
