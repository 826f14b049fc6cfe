package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/db"
	"github.com/banshee-data/broadside/internal/fleet"
	"github.com/banshee-data/broadside/internal/heatmap"
	"github.com/banshee-data/broadside/internal/httputil"
	"github.com/banshee-data/broadside/internal/monitoring"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/shape"
)

// searchRequest is the body of POST /api/heatmap and POST /api/joint.
// Pieces come from the first of Records, Specs or FleetID that is set,
// else the configured fleet. A missing board is an all-Unknown board of
// the configured size.
type searchRequest struct {
	Board      *board.Board   `json:"board,omitempty"`
	Mode       string         `json:"mode,omitempty"`
	FleetID    string         `json:"fleet_id,omitempty"`
	Specs      []fleet.Spec   `json:"specs,omitempty"`
	Records    []fleet.Record `json:"records,omitempty"`
	MaxLayouts *int           `json:"max_layouts,omitempty"`
	TimeBudget string         `json:"time_budget,omitempty"`
	Layouts    int            `json:"layouts,omitempty"`
}

// resolved is a validated searchRequest.
type resolved struct {
	board   *board.Board
	pieces  []shape.Piece
	fleetID string
	search  placement.SearchConfig
	layouts int
}

type requestError struct{ error }

func (s *Server) resolve(req *searchRequest) (*resolved, error) {
	out := &resolved{board: req.Board, search: *s.search, layouts: req.Layouts}
	if out.board == nil {
		b, err := board.New(s.cfg.GetBoardHeight(), s.cfg.GetBoardWidth())
		if err != nil {
			return nil, requestError{err}
		}
		out.board = b
	}

	if req.Mode != "" {
		m, err := placement.ParseMode(req.Mode)
		if err != nil {
			return nil, requestError{err}
		}
		out.search.WithMode(m)
	}
	if req.MaxLayouts != nil {
		out.search.WithMaxLayouts(tighten(*req.MaxLayouts, s.search.MaxLayouts))
	}
	if req.TimeBudget != "" {
		d, err := time.ParseDuration(req.TimeBudget)
		if err != nil {
			return nil, requestError{fmt.Errorf("time_budget: %w", err)}
		}
		out.search.WithTimeBudget(tighten(d, s.search.TimeBudget))
	}
	if err := out.search.Validate(); err != nil {
		return nil, requestError{err}
	}
	if req.Layouts < 0 || req.Layouts > maxEchoLayouts {
		return nil, requestError{fmt.Errorf("layouts must be between 0 and %d", maxEchoLayouts)}
	}

	var err error
	switch {
	case len(req.Records) > 0:
		out.pieces, err = fleet.RecordPieces(req.Records)
	case len(req.Specs) > 0:
		f := &fleet.Fleet{Name: "request", Specs: req.Specs}
		out.pieces, err = f.Pieces()
	case req.FleetID != "":
		var f *fleet.Fleet
		if f, err = s.db.GetFleet(req.FleetID); err != nil {
			return nil, err
		}
		out.fleetID = f.ID
		out.pieces, err = f.Pieces()
	default:
		var f *fleet.Fleet
		if f, err = fleet.FromConfig(s.cfg); err == nil {
			out.pieces, err = f.Pieces()
		}
	}
	if err != nil {
		return nil, requestError{err}
	}
	return out, nil
}

// tighten applies a requested search limit without lifting the server's
// own: zero (no limit) and anything above limit become limit when the
// server sets one. Negative values pass through for Validate to reject.
func tighten[T int | time.Duration](requested, limit T) T {
	if limit > 0 && (requested == 0 || requested > limit) {
		return limit
	}
	return requested
}

// decodeSearch reads and resolves a search request, writing the error
// response itself when it fails.
func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (*resolved, bool) {
	var req searchRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return nil, false
	}
	res, err := s.resolve(&req)
	var reqErr requestError
	switch {
	case err == nil:
		return res, true
	case errors.As(err, &reqErr):
		httputil.BadRequest(w, err.Error())
	default:
		writeStoreError(w, err)
	}
	return nil, false
}

// cellScore is a suggested next target.
type cellScore struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Score float64 `json:"score"`
}

func best(m mat.Matrix, v board.View) *cellScore {
	cell, score, ok := heatmap.BestIn(m, v)
	if !ok {
		return nil
	}
	return &cellScore{Row: cell.Row, Col: cell.Col, Score: score}
}

type heatmapResponse struct {
	RunID string `json:"run_id"`
	*heatmap.Report
	Best *cellScore `json:"best,omitempty"`
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	res, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	start := time.Now()
	report := heatmap.NewReport(res.board, res.pieces, res.search.Mode)
	elapsed := monitoring.Timed("heatmap", start)

	run := &db.Run{
		Kind:      db.KindHeatmap,
		FleetID:   res.fleetID,
		Board:     res.board.String(),
		Mode:      res.search.Mode.String(),
		Total:     report.Total(),
		ElapsedMs: elapsed.Milliseconds(),
	}
	if !s.record(w, run, report) {
		return
	}
	httputil.WriteJSONOK(w, heatmapResponse{RunID: run.RunID, Report: report, Best: best(report.ExpectedMatrix(), res.board)})
}

type jointResponse struct {
	RunID   string            `json:"run_id"`
	Heatmap *heatmap.Heatmap  `json:"heatmap"`
	Outcome placement.Outcome `json:"outcome"`
	Best    *cellScore        `json:"best,omitempty"`
	Layouts [][]fleet.Record  `json:"layouts,omitempty"`
}

func (s *Server) handleJoint(w http.ResponseWriter, r *http.Request) {
	res, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	search := placement.NewJointSearch(res.board, res.pieces, res.search.Options()...)
	h, wd := res.board.Dims()
	acc := heatmap.NewAccumulator(h, wd)
	resp := jointResponse{}
	for l := range search.Layouts(r.Context()) {
		acc.AddLayout(l)
		if len(resp.Layouts) < res.layouts {
			records := make([]fleet.Record, len(l))
			for i, p := range l {
				records[i] = fleet.FromPlacement(p)
			}
			resp.Layouts = append(resp.Layouts, records)
		}
	}
	resp.Heatmap = acc.Heatmap()
	resp.Outcome = search.Outcome()
	resp.Best = best(resp.Heatmap.Matrix(), res.board)
	monitoring.Logf("joint search: %d layouts, %d nodes, reason %s in %v",
		resp.Outcome.Layouts, resp.Outcome.Nodes, resp.Outcome.Reason, resp.Outcome.Elapsed)

	run := &db.Run{
		Kind:      db.KindJoint,
		FleetID:   res.fleetID,
		Board:     res.board.String(),
		Mode:      res.search.Mode.String(),
		Total:     resp.Heatmap.Total(),
		Truncated: resp.Outcome.Truncated,
		Reason:    resp.Outcome.Reason.String(),
		ElapsedMs: resp.Outcome.Elapsed.Milliseconds(),
	}
	if !s.record(w, run, resp.Heatmap) {
		return
	}
	resp.RunID = run.RunID
	httputil.WriteJSONOK(w, resp)
}

// record stores run with result as its heatmap JSON.
func (s *Server) record(w http.ResponseWriter, run *db.Run, result interface{}) bool {
	data, err := json.Marshal(result)
	if err != nil {
		httputil.InternalServerError(w, "failed to encode result")
		return false
	}
	run.Heatmap = data
	if err := s.db.RecordRun(run); err != nil {
		writeStoreError(w, err)
		return false
	}
	return true
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("run")
	if id == "" {
		httputil.BadRequest(w, "run is required")
		return
	}
	run, err := s.db.GetRun(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var (
		hm    *heatmap.Heatmap
		title string
	)
	switch run.Kind {
	case db.KindJoint:
		hm = &heatmap.Heatmap{}
		if err := json.Unmarshal(run.Heatmap, hm); err != nil {
			httputil.InternalServerError(w, "stored heatmap is unreadable")
			return
		}
		title = "Joint occupancy"
	default:
		var result heatmap.Report
		if err := json.Unmarshal(run.Heatmap, &result); err != nil {
			httputil.InternalServerError(w, "stored heatmap is unreadable")
			return
		}
		i := 0
		if v := q.Get("piece"); v != "" {
			if i, err = strconv.Atoi(v); err != nil {
				httputil.BadRequest(w, "piece must be an integer")
				return
			}
		}
		if i < 0 || i >= len(result.Pieces) {
			httputil.BadRequest(w, fmt.Sprintf("piece must be between 0 and %d", len(result.Pieces)-1))
			return
		}
		hm = result.Pieces[i].Heatmap
		title = fmt.Sprintf("Occupancy of %s", result.Pieces[i].Name)
	}

	switch q.Get("format") {
	case "png":
		w.Header().Set("Content-Type", "image/png")
		if err := hm.WritePNG(w, title); err != nil {
			monitoring.Logf("failed to write chart png: %v", err)
		}
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := hm.RenderHTML(w, title); err != nil {
			monitoring.Logf("failed to render chart: %v", err)
		}
	default:
		httputil.BadRequest(w, "format must be html or png")
	}
}
