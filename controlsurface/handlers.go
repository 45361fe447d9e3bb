package controlsurface

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/statusbus"
	"github.com/brandondube/thermod/therr"
	"github.com/brandondube/thermod/timetable"
)

const jsonContentType = "application/json; charset=utf-8"

func writeJSONBody(w http.ResponseWriter, lastModified interface{ Format(string) string }, body []byte) {
	w.Header().Set("Content-Type", jsonContentType)
	w.Header().Set("Connection", "close")
	if lastModified != nil {
		w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// getSettings implements GET /settings.
func (s *Surface) getSettings(w http.ResponseWriter, r *http.Request) {
	t := s.Coordinator.Get()
	blob, err := t.Serialize()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBody(w, t.LastUpdateTimestamp(), blob)
}

// postSettings implements POST /settings: either a full settings blob
// (load+save) or one or more recognized single-field updates applied, in
// request order, inside a single transaction.
func (s *Surface) postSettings(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		writeErrBody(w, http.StatusBadRequest, "validation", "unable to read request body: "+err.Error())
		return
	}

	keys, vals, err := orderedObject(body)
	if err != nil {
		writeErrBody(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	if raw, ok := vals["settings"]; ok {
		s.postFullSettings(w, raw)
		return
	}

	opts, recognized, err := buildOptions(keys, vals)
	if err != nil {
		writeError(w, err)
		return
	}
	if !recognized {
		writeErrBody(w, http.StatusBadRequest, "validation", "request body contained no recognized settings fields")
		return
	}

	var next timetable.Timetable
	err = s.Coordinator.Mutate(func(cur timetable.Timetable) (timetable.Timetable, error) {
		n, err := timetable.Apply(cur, opts...)
		if err != nil {
			return cur, err
		}
		next = n
		return n, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.saveAndRespond(w, next)
}

func (s *Surface) postFullSettings(w http.ResponseWriter, raw json.RawMessage) {
	current := s.Coordinator.Get()
	var next timetable.Timetable
	err := s.Coordinator.Mutate(func(timetable.Timetable) (timetable.Timetable, error) {
		n, err := timetable.Load(raw, current.FilePath())
		if err != nil {
			return timetable.Timetable{}, err
		}
		next = n
		return n, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.saveAndRespond(w, next)
}

// saveAndRespond persists next and replies with the new settings, or with a
// 503 persistence error if the save failed -- the in-memory mutation has
// already landed in the Coordinator either way, per spec section 4.3.
func (s *Surface) saveAndRespond(w http.ResponseWriter, next timetable.Timetable) {
	if err := next.Save(); err != nil {
		writeError(w, err)
		return
	}
	s.Coordinator.Notify()

	blob, err := next.Serialize()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBody(w, next.LastUpdateTimestamp(), blob)
}

type heatingStatusWire struct {
	Timestamp          string  `json:"timestamp"`
	Mode               string  `json:"mode"`
	Sense              string  `json:"sense"`
	ActuatorOn         bool    `json:"actuator_on"`
	CurrentTemperature float64 `json:"current_temperature"`
	TargetTemperature  float64 `json:"target_temperature"`
	Error              string  `json:"error,omitempty"`
	Explain            string  `json:"explain,omitempty"`
}

func senseString(s actuator.Sense) string {
	if s == actuator.SenseCooling {
		return "cooling"
	}
	return "heating"
}

func (s *Surface) wireFromStatus(st statusbus.Status) heatingStatusWire {
	return heatingStatusWire{
		Timestamp:          st.Timestamp.Format(http.TimeFormat),
		Mode:               string(st.Mode),
		Sense:              senseString(s.Sense),
		ActuatorOn:         st.ActuatorOn,
		CurrentTemperature: st.CurrentTemperature,
		TargetTemperature:  st.TargetTemperature,
		Error:              st.Error,
		Explain:            st.Explain,
	}
}

// getStatusHeating implements GET /status/heating: a one-shot read of the
// Control Loop's last published snapshot.  An actuator error reflected in
// that snapshot is surfaced as 503, per spec section 4.6's error mapping;
// everything else, including a sensor error, is reported in the 200 body.
func (s *Surface) getStatusHeating(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Bus.Last()
	if !ok {
		st = s.liveStatus()
	}
	if st.Error == "actuator" {
		writeError(w, therr.New(therr.Actuator, st.Explain))
		return
	}
	blob, err := json.Marshal(s.wireFromStatus(st))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBody(w, st.Timestamp, blob)
}

// liveStatus builds a ThermodStatus directly from the Thermometer and
// Actuator, for the rare case where a GET /status/heating request races the
// Control Loop's very first tick and the Status Bus has nothing published
// yet.
func (s *Surface) liveStatus() statusbus.Status {
	t := s.Coordinator.Get()
	at := now()
	target, _ := t.TargetTemperature(at)
	st := statusbus.Status{Timestamp: at, Mode: t.Mode(), ActuatorOn: s.Actuator.IsOn(), TargetTemperature: target}
	temp, err := s.Thermometer.Temperature()
	if err != nil {
		st.Error = "sensor"
		st.Explain = err.Error()
		return st
	}
	st.CurrentTemperature = temp
	return st
}

// getVersion implements GET /version.
func (s *Surface) getVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", jsonContentType)
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(struct {
		Version string `json:"version"`
	}{s.Version})
}

// getMonitor implements GET /monitor: park on the Status Bus until the next
// published snapshot, or until the client disconnects.
func (s *Surface) getMonitor(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Bus.Wait(r.Context().Done())
	if !ok {
		return // client went away before a snapshot arrived
	}
	blob, err := json.Marshal(s.wireFromStatus(st))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBody(w, st.Timestamp, blob)
}
