// Package generichttp provides small, reusable building blocks for exposing
// scalar readings over HTTP and for indexing the routes a mux serves, used
// by the diagnostics sub-application (spec section 4.8).
package generichttp

import (
	"encoding/json"
	"fmt"
	"go/types"
	"net/http"
	"sort"
	"strings"

	"github.com/brandondube/thermod/util"
	"goji.io"
	"goji.io/pat"
)

// FloatT is a struct with a single F64 field.
type FloatT struct {
	F64 float64 `json:"f64"`
}

// BoolT is a struct with a single Bool field.
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload holds the single scalar value a diagnostics handler
// returns, tagged with its type so EncodeAndRespond knows which wire
// struct to use.
type HumanPayload struct {
	Bool  bool
	Float float64
	T     types.BasicKind
}

// EncodeAndRespond writes hp to w as JSON, choosing the wire struct by hp.T.
func (hp *HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	var err error
	switch hp.T {
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	}
	if err != nil {
		fstr := fmt.Sprintf("error encoding %+v to JSON, %q", hp, err)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// GetFloat calls a float-getting function and returns the response as JSON
// {"f64": value}.
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Float64, Float: f}
		hp.EncodeAndRespond(w, r)
	}
}

// GetBool calls a bool-getting function and returns the response as JSON
// {"bool": value}.
func GetBool(fcn func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Bool, Bool: b}
		hp.EncodeAndRespond(w, r)
	}
}

// HTTPer is an interface which allows types to yield their route tables for
// processing.
type HTTPer interface {
	RT() RouteTable
}

// RouteTable maps goji patterns to handler funcs.
type RouteTable map[*pat.Pattern]http.HandlerFunc

// Endpoints returns the endpoints in the route table.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, len(rt))
	idx := 0
	for key := range rt {
		routes[idx] = key.String()
		idx++
	}
	routes = util.UniqueString(routes)
	sort.Strings(routes)
	return routes
}

// EndpointsHTTP returns a function that encodes the endpoint list to a
// ResponseWriter.
func (rt RouteTable) EndpointsHTTP() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		endpts := rt.Endpoints()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(endpts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// Bind calls HandleFunc for each route in the table on the given mux. It
// also binds the /endpoints route if it is not in the table already.
func (rt RouteTable) Bind(mux *goji.Mux) {
	for ptrn, meth := range rt {
		mux.HandleFunc(ptrn, meth)
	}
	pg := pat.Get("/endpoints")
	for ptrn := range rt {
		if ptrn.String() == pg.String() {
			return
		}
	}
	mux.HandleFunc(pg, rt.EndpointsHTTP())
}

// SubMuxSanitize takes any string and ensures it begins with / and ends
// with /*.
func SubMuxSanitize(str string) string {
	if !strings.HasPrefix(str, "/") {
		str = "/" + str
	}
	if !strings.HasSuffix(str, "/") {
		str += "/"
	}
	if !strings.HasSuffix(str, "*") {
		str += "*"
	}
	return str
}
