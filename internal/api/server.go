// Package api serves the placement engine over HTTP: heatmap and joint
// searches, stored fleets and the run history.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/broadside/internal/config"
	"github.com/banshee-data/broadside/internal/db"
	"github.com/banshee-data/broadside/internal/fleet"
	"github.com/banshee-data/broadside/internal/httputil"
	"github.com/banshee-data/broadside/internal/monitoring"
	"github.com/banshee-data/broadside/internal/placement"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxEchoLayouts caps the layouts a joint response may list.
const maxEchoLayouts = 1000

type Server struct {
	db     *db.DB
	cfg    *config.EngineConfig
	search *placement.SearchConfig
}

func NewServer(store *db.DB, cfg *config.EngineConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyEngineConfig()
	}
	return &Server{
		db:     store,
		cfg:    cfg,
		search: placement.SearchConfigFromEngine(cfg),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/heatmap", s.handleHeatmap)
	mux.HandleFunc("POST /api/joint", s.handleJoint)
	mux.HandleFunc("GET /api/heatmap/chart", s.handleChart)
	mux.HandleFunc("GET /api/fleets", s.listFleets)
	mux.HandleFunc("POST /api/fleets", s.saveFleet)
	mux.HandleFunc("GET /api/fleets/{id}", s.getFleet)
	mux.HandleFunc("DELETE /api/fleets/{id}", s.deleteFleet)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/config", s.showConfig)
	return mux
}

// writeStoreError maps store errors onto 404 or 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	monitoring.Logf("store error: %v", err)
	httputil.InternalServerError(w, "database error")
}

type configResponse struct {
	BoardHeight     int                 `json:"board_height"`
	BoardWidth      int                 `json:"board_width"`
	Mode            string              `json:"mode"`
	MaxJointLayouts int                 `json:"max_joint_layouts"`
	JointTimeBudget string              `json:"joint_time_budget"`
	Fleet           []config.FleetEntry `json:"fleet"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	fleetEntries := s.cfg.GetFleet()
	if len(fleetEntries) == 0 {
		for _, spec := range fleet.DefaultSpecs() {
			fleetEntries = append(fleetEntries, config.FleetEntry{Name: spec.Name, Size: spec.Size, Orientation: spec.Orientation})
		}
	}
	httputil.WriteJSONOK(w, configResponse{
		BoardHeight:     s.cfg.GetBoardHeight(),
		BoardWidth:      s.cfg.GetBoardWidth(),
		Mode:            s.search.Mode.String(),
		MaxJointLayouts: s.search.MaxLayouts,
		JointTimeBudget: s.search.TimeBudget.String(),
		Fleet:           fleetEntries,
	})
}

func (s *Server) listFleets(w http.ResponseWriter, r *http.Request) {
	fleets, err := s.db.ListFleets()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if fleets == nil {
		fleets = []*fleet.Fleet{}
	}
	httputil.WriteJSONOK(w, fleets)
}

func (s *Server) saveFleet(w http.ResponseWriter, r *http.Request) {
	var f fleet.Fleet
	if err := httputil.DecodeJSON(w, r, &f); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if f.Name == "" {
		httputil.BadRequest(w, "fleet name is required")
		return
	}
	if err := f.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.db.SaveFleet(&f); err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, f)
}

func (s *Server) getFleet(w http.ResponseWriter, r *http.Request) {
	f, err := s.db.GetFleet(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, f)
}

func (s *Server) deleteFleet(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteFleet(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.db.ListRuns(limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}
