package timetable

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/brandondube/thermod/therr"
)

// wireSlot decodes any of: a JSON number, a numeric string, or one of the
// anchor name strings, per spec section 6.
type wireSlot Temp

func (w *wireSlot) UnmarshalJSON(b []byte) error {
	var asNum float64
	if err := json.Unmarshal(b, &asNum); err == nil {
		*w = wireSlot(FromValue(asNum))
		return nil
	}
	var asStr string
	if err := json.Unmarshal(b, &asStr); err != nil {
		return therr.New(therr.Validation, "schedule slot must be a number or string")
	}
	if f, err := strconv.ParseFloat(asStr, 64); err == nil {
		*w = wireSlot(FromValue(f))
		return nil
	}
	switch asStr {
	case "t0", "tmin", "tmax":
		*w = wireSlot(FromAnchor(asStr))
		return nil
	}
	return therr.New(therr.Validation, "schedule slot string must be numeric or an anchor name, got "+asStr)
}

func (w wireSlot) MarshalJSON() ([]byte, error) {
	t := Temp(w)
	if t.anchor != "" {
		return json.Marshal(t.anchor)
	}
	if math.IsNaN(t.value) || math.IsInf(t.value, 0) {
		return nil, therr.New(therr.Validation, "refusing to serialize a non-finite schedule value")
	}
	return json.Marshal(t.value)
}

type wireHour [4]wireSlot

type wireDay map[string]wireHour

type wireTemperatures struct {
	T0   float64 `json:"t0"`
	TMin float64 `json:"tmin"`
	TMax float64 `json:"tmax"`
}

type wireGraceTime float64

func (g *wireGraceTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = wireGraceTime(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return therr.New(therr.Validation, "grace_time must be a number or null")
	}
	*g = wireGraceTime(f)
	return nil
}

func (g wireGraceTime) MarshalJSON() ([]byte, error) {
	f := float64(g)
	if math.IsInf(f, 1) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

var hourKeys = func() [24]string {
	var out [24]string
	for i := range out {
		out[i] = fmt.Sprintf("h%02d", i)
	}
	return out
}()

type wireRoot struct {
	Mode         Mode                    `json:"mode"`
	Differential float64                 `json:"differential"`
	GraceTime    wireGraceTime           `json:"grace_time"`
	Temperatures wireTemperatures        `json:"temperatures"`
	Timetable    map[string]wireDay      `json:"timetable"`
}

var knownTopLevelKeys = map[string]bool{
	"mode": true, "differential": true, "grace_time": true,
	"temperatures": true, "timetable": true,
}

// Load validates blob against the persisted schema (spec section 6) and
// returns a brand-new Timetable.  filePath is attached to the result for
// subsequent Save calls; it is not part of the JSON wire format.  On schema
// failure, the error is a *therr.Error of Kind Validation and nothing about
// the caller's existing state is touched.
func Load(blob []byte, filePath string) (Timetable, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return Timetable{}, therr.Wrap(therr.Validation, err, "invalid JSON")
	}
	for k := range raw {
		if !knownTopLevelKeys[k] {
			return Timetable{}, therr.New(therr.Validation, "unknown top-level key "+k)
		}
	}
	for k := range knownTopLevelKeys {
		if _, ok := raw[k]; !ok {
			return Timetable{}, therr.New(therr.Validation, "missing required key "+k)
		}
	}

	var root wireRoot
	if err := json.Unmarshal(blob, &root); err != nil {
		return Timetable{}, therr.Wrap(therr.Validation, err, "malformed timetable body")
	}

	var sched Schedule
	for _, name := range dayNames {
		wd, ok := root.Timetable[name]
		if !ok {
			return Timetable{}, therr.New(therr.Validation, "missing day "+name)
		}
		idx, _ := DayIndex(name)
		for h := 0; h < 24; h++ {
			wh, ok := wd[hourKeys[h]]
			if !ok {
				return Timetable{}, therr.New(therr.Validation, "missing hour "+hourKeys[h]+" for "+name)
			}
			for q := 0; q < 4; q++ {
				sched[idx][h][q] = Temp(wh[q])
			}
		}
	}
	for name := range root.Timetable {
		if _, ok := DayIndex(name); !ok {
			return Timetable{}, therr.New(therr.Validation, "unknown day "+name)
		}
	}

	next := Timetable{
		mode: root.Mode,
		anchors: Anchors{
			T0:   root.Temperatures.T0,
			TMin: root.Temperatures.TMin,
			TMax: root.Temperatures.TMax,
		},
		schedule:     sched,
		differential: root.Differential,
		graceTime:    float64(root.GraceTime),
		filePath:     filePath,
	}
	if err := next.Validate(); err != nil {
		return Timetable{}, err
	}
	next.lastUpdate = monotonicAfter(next.lastUpdate)
	return next, nil
}

// Serialize renders t to the persisted JSON schema from spec section 6.
func (t Timetable) Serialize() ([]byte, error) {
	root := wireRoot{
		Mode:         t.mode,
		Differential: t.differential,
		GraceTime:    wireGraceTime(t.graceTime),
		Temperatures: wireTemperatures{T0: t.anchors.T0, TMin: t.anchors.TMin, TMax: t.anchors.TMax},
		Timetable:    make(map[string]wireDay, 7),
	}
	for idx, name := range dayNames {
		wd := make(wireDay, 24)
		for h := 0; h < 24; h++ {
			var wh wireHour
			for q := 0; q < 4; q++ {
				wh[q] = wireSlot(t.schedule[idx][h][q])
			}
			wd[hourKeys[h]] = wh
		}
		root.Timetable[name] = wd
	}
	return json.Marshal(root)
}
