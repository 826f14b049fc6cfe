package heatmap

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/shape"
)

// PerPiece aggregates each piece independently over all its orientations,
// one heatmap per piece in input order.
func PerPiece(v board.View, pieces []shape.Piece, mode placement.Mode) []*Heatmap {
	out := make([]*Heatmap, len(pieces))
	for i, piece := range pieces {
		out[i] = Aggregate(v, placement.EnumeratePiece(piece, v, mode))
		tracef("piece %q: %d placements", piece.Name, out[i].Total())
	}
	return out
}

// Expected sums the per-piece probabilities: the expected number of
// pieces covering each cell when pieces are placed independently. Values
// may exceed 1, so the result is a plain matrix rather than a Heatmap.
func Expected(v board.View, pieces []shape.Piece, mode placement.Mode) *mat.Dense {
	h, w := v.Dims()
	return sum(h, w, PerPiece(v, pieces, mode))
}

func sum(height, width int, maps []*Heatmap) *mat.Dense {
	out := mat.NewDense(height, width, nil)
	for _, hm := range maps {
		out.Add(out, hm.Matrix())
	}
	return out
}

// Named is one piece's heatmap.
type Named struct {
	Name    string   `json:"name"`
	Heatmap *Heatmap `json:"heatmap"`
}

// Report is the per-piece breakdown of a board together with the expected
// counts, in the form stored for heatmap runs.
type Report struct {
	Pieces   []Named     `json:"pieces"`
	Expected [][]float64 `json:"expected"`
}

// NewReport runs PerPiece and Expected in one pass.
func NewReport(v board.View, pieces []shape.Piece, mode placement.Mode) *Report {
	per := PerPiece(v, pieces, mode)
	r := &Report{Pieces: make([]Named, len(per))}
	for i, hm := range per {
		r.Pieces[i] = Named{Name: pieces[i].Name, Heatmap: hm}
	}
	h, w := v.Dims()
	r.Expected = denseRows(sum(h, w, per))
	return r
}

// Total is the number of placements across all pieces.
func (r *Report) Total() int {
	n := 0
	for _, p := range r.Pieces {
		n += p.Heatmap.Total()
	}
	return n
}

// ExpectedMatrix returns the expected counts as a matrix.
func (r *Report) ExpectedMatrix() *mat.Dense {
	if len(r.Expected) == 0 || len(r.Expected[0]) == 0 {
		return nil
	}
	m := mat.NewDense(len(r.Expected), len(r.Expected[0]), nil)
	for i, row := range r.Expected {
		m.SetRow(i, row)
	}
	return m
}

func denseRows(m *mat.Dense) [][]float64 {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for r := range out {
		out[r] = append([]float64(nil), m.RawRowView(r)...)
	}
	return out
}
