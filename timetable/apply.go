package timetable

import (
	"math"

	"github.com/brandondube/thermod/therr"
)

// draft is the mutable working copy Apply operates on.  It mirrors
// Timetable's fields exactly; Apply freezes it back into a Timetable only
// after every Option has succeeded and the result validates.
type draft struct {
	mode         Mode
	anchors      Anchors
	schedule     Schedule
	differential float64
	graceTime    float64
	filePath     string
}

func (t Timetable) toDraft() draft {
	return draft{
		mode:         t.mode,
		anchors:      t.anchors,
		schedule:     t.schedule,
		differential: t.differential,
		graceTime:    t.graceTime,
		filePath:     t.filePath,
	}
}

// Option is a single named-field mutation, the statically-typed analogue of
// the "dynamic field setter" / apply(option, value) pattern described in
// the design notes.  Options are applied in the order given to Apply; the
// first one to fail aborts the whole transaction.
type Option func(*draft) error

// WithMode sets the operating mode.
func WithMode(m Mode) Option {
	return func(d *draft) error {
		if !m.valid() {
			return therr.New(therr.Validation, "invalid mode "+string(m))
		}
		d.mode = m
		return nil
	}
}

// WithAnchor sets one of the three named anchors ("t0", "tmin", "tmax").
func WithAnchor(name string, value float64) Option {
	return func(d *draft) error {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return therr.New(therr.Validation, "anchor must be finite")
		}
		switch name {
		case "t0":
			d.anchors.T0 = value
		case "tmin":
			d.anchors.TMin = value
		case "tmax":
			d.anchors.TMax = value
		default:
			return therr.New(therr.Validation, "unknown anchor "+name)
		}
		return nil
	}
}

// WithDifferential sets the hysteresis band, which must be in [0,1].
func WithDifferential(v float64) Option {
	return func(d *draft) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return therr.New(therr.Validation, "differential must be in [0,1]")
		}
		d.differential = v
		return nil
	}
}

// WithGraceTime sets the grace time in seconds.  Pass math.Inf(1) to
// disable the override.
func WithGraceTime(v float64) Option {
	return func(d *draft) error {
		if math.IsNaN(v) || v < 0 {
			return therr.New(therr.Validation, "grace_time must be >= 0")
		}
		d.graceTime = v
		return nil
	}
}

// WithFilePath sets the on-disk backing store path.  This is not part of
// the persisted JSON; it is plumbed through so Save() knows where to
// write.
func WithFilePath(p string) Option {
	return func(d *draft) error {
		d.filePath = p
		return nil
	}
}

// WithSlot sets a single schedule slot: Update(day, hour, quarter, temp)
// from spec section 4.3.
func WithSlot(day string, hour, quarter int, v Temp) Option {
	return func(d *draft) error {
		idx, ok := DayIndex(day)
		if !ok {
			return therr.New(therr.Validation, "unknown day "+day)
		}
		if hour < 0 || hour > 23 {
			return therr.New(therr.Validation, "hour out of range")
		}
		if quarter < 0 || quarter > 3 {
			return therr.New(therr.Validation, "quarter out of range")
		}
		d.schedule[idx][hour][quarter] = v
		return nil
	}
}

// Apply runs opts in order against t's state, producing a new, validated
// Timetable with a freshly bumped LastUpdateTimestamp.  If any Option
// fails, or the resulting state fails Validate, t is returned unchanged
// alongside the error -- nothing is ever partially applied, satisfying the
// transactional discipline from spec section 4.3.
func Apply(t Timetable, opts ...Option) (Timetable, error) {
	d := t.toDraft()
	for _, opt := range opts {
		if err := opt(&d); err != nil {
			return t, therr.Wrap(therr.Validation, err, "rejected mutation")
		}
	}
	next := Timetable{
		mode:         d.mode,
		anchors:      d.anchors,
		schedule:     d.schedule,
		differential: d.differential,
		graceTime:    d.graceTime,
		filePath:     d.filePath,
		lastUpdate:   t.lastUpdate,
	}
	if err := next.Validate(); err != nil {
		return t, therr.Wrap(therr.Validation, err, "invalid timetable after mutation")
	}
	next.lastUpdate = monotonicAfter(t.lastUpdate)
	return next, nil
}

// Validate checks every invariant from spec section 3.  A zero-value
// Timetable does not validate (mode is "").
func (t Timetable) Validate() error {
	if !t.mode.valid() {
		return therr.New(therr.Validation, "mode must be one of auto/on/off/t0/tmin/tmax")
	}
	for _, a := range []float64{t.anchors.T0, t.anchors.TMin, t.anchors.TMax} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return therr.New(therr.Validation, "anchors must be finite")
		}
	}
	if math.IsNaN(t.differential) || t.differential < 0 || t.differential > 1 {
		return therr.New(therr.Validation, "differential must be in [0,1]")
	}
	if math.IsNaN(t.graceTime) || t.graceTime < 0 {
		return therr.New(therr.Validation, "grace_time must be >= 0")
	}
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			for q := 0; q < 4; q++ {
				slot := t.schedule[day][hour][q]
				if slot.anchor == "" {
					if math.IsNaN(slot.value) || math.IsInf(slot.value, 0) {
						return therr.New(therr.Validation, "schedule slots must be finite numbers or anchor names")
					}
					continue
				}
				if _, ok := t.anchors.resolve(slot.anchor); !ok {
					return therr.New(therr.Validation, "schedule slot refers to unknown anchor "+slot.anchor)
				}
			}
		}
	}
	return nil
}

