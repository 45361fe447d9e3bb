package controlsurface

import (
	"bytes"
	"encoding/json"
	"log"
	"math"

	"github.com/brandondube/thermod/therr"
	"github.com/brandondube/thermod/timetable"
)

// orderedObject decodes a JSON object while preserving its key order, since
// spec section 4.6 requires multi-field POST bodies to be applied "in
// iteration order" inside one transaction -- a plain map[string]json.
// RawMessage would discard that order.
func orderedObject(blob []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, therr.Wrap(therr.Validation, err, "invalid JSON")
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, therr.New(therr.Validation, "request body must be a JSON object")
	}

	var keys []string
	vals := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, therr.Wrap(therr.Validation, err, "invalid JSON")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, therr.New(therr.Validation, "object keys must be strings")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, therr.Wrap(therr.Validation, err, "invalid JSON")
		}
		keys = append(keys, key)
		vals[key] = raw
	}
	return keys, vals, nil
}

// buildOptions turns the recognized single-field keys into timetable
// Options, in the order they appeared in the request body.  Unrecognized
// keys are ignored with a logged warning, matching spec section 4.6.
// recognized is false if nothing in the body mapped to an Option, which
// callers must treat as a 400.  A malformed value for a recognized field
// (e.g. mode as a number) fails fast here, before any transaction starts --
// the in-memory state is untouched either way, so the outcome is identical
// to letting Apply reject it.
func buildOptions(keys []string, vals map[string]json.RawMessage) (opts []timetable.Option, recognized bool, err error) {
	for _, key := range keys {
		raw := vals[key]
		switch key {
		case "mode":
			var m string
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, true, therr.New(therr.Validation, "mode must be a string")
			}
			opts = append(opts, timetable.WithMode(timetable.Mode(m)))
			recognized = true
		case "t0", "tmin", "tmax":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, true, therr.New(therr.Validation, key+" must be a number")
			}
			opts = append(opts, timetable.WithAnchor(key, v))
			recognized = true
		case "differential":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, true, therr.New(therr.Validation, "differential must be a number")
			}
			opts = append(opts, timetable.WithDifferential(v))
			recognized = true
		case "grace_time":
			gt, gerr := decodeGraceTime(raw)
			if gerr != nil {
				return nil, true, gerr
			}
			opts = append(opts, timetable.WithGraceTime(gt))
			recognized = true
		default:
			log.Printf("controlsurface: ignoring unrecognized settings field %q", key)
		}
	}
	return opts, recognized, nil
}

func decodeGraceTime(raw json.RawMessage) (float64, error) {
	if string(raw) == "null" {
		return math.Inf(1), nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, therr.New(therr.Validation, "grace_time must be a number or null")
	}
	return v, nil
}
