package controlsurface

import (
	"encoding/json"
	"net/http"

	"github.com/brandondube/thermod/therr"
)

// errBody is the wire shape of every error response, per spec section 4.6.
type errBody struct {
	Error   string `json:"error"`
	Explain string `json:"explain"`
}

func writeErrBody(w http.ResponseWriter, status int, short, explain string) {
	w.Header().Set("Content-Type", jsonContentType)
	w.Header().Set("Connection", "close")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errBody{Error: short, Explain: explain})
}

// writeError translates err into the spec section 4.6 error->HTTP mapping
// and writes the response.  Invalid JSON and schema/value violations are
// therr.Validation (400); persistence failures are therr.Persistence and
// carry a Retry-After hint with the in-memory mutation retained; a
// therr.Transaction failure and everything else is a 500 with the in-memory
// state already rolled back by Coordinator.Mutate never having applied it.
func writeError(w http.ResponseWriter, err error) {
	kind, ok := therr.KindOf(err)
	if !ok {
		writeErrBody(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	switch kind {
	case therr.Validation:
		writeErrBody(w, http.StatusBadRequest, "validation", err.Error())
	case therr.Transaction:
		writeErrBody(w, http.StatusInternalServerError, "transaction", err.Error())
	case therr.Persistence:
		w.Header().Set("Retry-After", "5")
		writeErrBody(w, http.StatusServiceUnavailable, "persistence", err.Error())
	case therr.Actuator:
		w.Header().Set("Retry-After", "5")
		writeErrBody(w, http.StatusServiceUnavailable, "actuator", err.Error())
	case therr.Sensor:
		writeErrBody(w, http.StatusInternalServerError, "sensor", err.Error())
	default:
		writeErrBody(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeErrBody(w, http.StatusNotFound, "not-found", "no such endpoint: "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrBody(w, http.StatusNotImplemented, "method-not-supported", r.Method+" is not supported on "+r.URL.Path)
}
