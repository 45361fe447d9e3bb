// Package server provides the small admin layer that sits above the
// control surface and the diagnostics mux: a file-serving helper and a
// route-graph aggregator so an operator can ask the daemon what it exposes
// without reading the source.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi"
)

// ReplyWithFile replies to the client request by serving the given file name
// out of fldr.  No route in the daemon is bound to it.
func ReplyWithFile(w http.ResponseWriter, r *http.Request, fn string, fldr string) {
	filePath, err := filepath.Abs(filepath.Join(fldr, fn))
	if err != nil {
		fstr := fmt.Sprintf("unable to compute abspath of file %s %s %s", fldr, fn, err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		fstr := fmt.Sprintf("source file missing %s", filePath)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		fstr := fmt.Sprintf("error retrieving source file stats %s", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, fn, stat.ModTime(), f)
}

// RouteTable maps a path (relative to a Server's URLStem) to its handler.
type RouteTable map[string]http.HandlerFunc

// Endpoints lists the endpoints in a RouteTable.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, k)
	}
	return routes
}

// A Server holds a named RouteTable mounted at URLStem.
type Server struct {
	RouteTable RouteTable
	URLStem    string
}

// BindRoutes mounts s's routes under s.URLStem on mux.
func (s *Server) BindRoutes(mux chi.Router) {
	mux.Route(s.URLStem, func(r chi.Router) {
		for route, handler := range s.RouteTable {
			r.Get(route, handler)
		}
	})
}

// ListRoutes returns the endpoints this server answers, relative to its
// URLStem.
func (s *Server) ListRoutes() []string {
	return s.RouteTable.Endpoints()
}

// Mainframe aggregates every Server the daemon exposes (the control
// surface, the diagnostics mux) so a single admin endpoint can describe
// the whole route graph.
type Mainframe struct {
	nodes []*Server
}

// Add registers a Server with the Mainframe.
func (m *Mainframe) Add(s *Server) {
	m.nodes = append(m.nodes, s)
}

// RouteGraph returns a non-recursive, depth-1 map of URL stems to endpoints.
func (m *Mainframe) RouteGraph() map[string][]string {
	routes := make(map[string][]string)
	for _, s := range m.nodes {
		routes[s.URLStem] = s.ListRoutes()
	}
	return routes
}

// GraphHandler returns a handler serving the route graph as JSON, for
// mounting directly without also re-binding every member Server's routes
// (useful when those routes are already bound on the real mux and this is
// only a documentation-entries listing).
func (m *Mainframe) GraphHandler() http.HandlerFunc {
	return m.graphHandler
}

func (m *Mainframe) graphHandler(w http.ResponseWriter, r *http.Request) {
	graph := m.RouteGraph()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(graph); err != nil {
		fstr := fmt.Sprintf("error encoding route graph to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// BindRoutes mounts every member Server on mux, plus a /route-graph admin
// endpoint summarizing all of them.
func (m *Mainframe) BindRoutes(mux chi.Router) {
	for _, s := range m.nodes {
		s.BindRoutes(mux)
	}
	mux.Get("/route-graph", m.graphHandler)
}
