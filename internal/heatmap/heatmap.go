// Package heatmap turns placement streams into per-cell occupancy
// probabilities and renders them as PNG or interactive HTML.
package heatmap

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/placement"
)

// Accumulator counts, per cell, how many aggregated items cover it. It
// accepts single placements or whole layouts, one item per call.
type Accumulator struct {
	counts *mat.Dense
	total  int
}

// NewAccumulator returns an empty accumulator for a height×width board.
// Both dimensions must be positive.
func NewAccumulator(height, width int) *Accumulator {
	return &Accumulator{counts: mat.NewDense(height, width, nil)}
}

// Add counts one placement. Cells off the board are ignored.
func (a *Accumulator) Add(p placement.Placement) {
	a.cover(p)
	a.total++
}

// AddLayout counts one joint layout: every cell covered by any of its
// placements gains one, and the total gains one.
func (a *Accumulator) AddLayout(l placement.Layout) {
	for _, p := range l {
		a.cover(p)
	}
	a.total++
}

func (a *Accumulator) cover(p placement.Placement) {
	h, w := a.counts.Dims()
	p.Each(func(c board.Coordinate) {
		if c.Row < 0 || c.Row >= h || c.Col < 0 || c.Col >= w {
			return
		}
		a.counts.Set(c.Row, c.Col, a.counts.At(c.Row, c.Col)+1)
	})
}

// Total is the number of items added so far.
func (a *Accumulator) Total() int { return a.total }

// Heatmap snapshots the current counts. Later additions do not affect it.
func (a *Accumulator) Heatmap() *Heatmap {
	return &Heatmap{counts: mat.DenseCopyOf(a.counts), total: a.total}
}

// Aggregate drains a placement sequence into a heatmap sized to v.
func Aggregate(v board.View, seq iter.Seq[placement.Placement]) *Heatmap {
	acc := NewAccumulator(v.Dims())
	for p := range seq {
		acc.Add(p)
	}
	diagf("aggregated %d placements", acc.total)
	return acc.Heatmap()
}

// AggregateLayouts drains a joint layout sequence into a heatmap sized to v.
func AggregateLayouts(v board.View, seq iter.Seq[placement.Layout]) *Heatmap {
	acc := NewAccumulator(v.Dims())
	for l := range seq {
		acc.AddLayout(l)
	}
	diagf("aggregated %d layouts", acc.total)
	return acc.Heatmap()
}

// Heatmap holds per-cell cover counts and the number of items counted.
// Probabilities are count / max(1, total), so an empty aggregation reads
// as all zeros.
type Heatmap struct {
	counts *mat.Dense
	total  int
}

// Dims returns the board height and width.
func (h *Heatmap) Dims() (height, width int) { return h.counts.Dims() }

// Total is the number of placements or layouts aggregated.
func (h *Heatmap) Total() int { return h.total }

// Count is the raw cover count of a cell.
func (h *Heatmap) Count(row, col int) int { return int(h.counts.At(row, col)) }

// At returns the occupancy probability of a cell.
func (h *Heatmap) At(row, col int) float64 {
	return h.counts.At(row, col) / h.denominator()
}

func (h *Heatmap) denominator() float64 {
	return float64(max(1, h.total))
}

// Matrix returns the probabilities as a new matrix.
func (h *Heatmap) Matrix() *mat.Dense {
	var m mat.Dense
	m.Scale(1/h.denominator(), h.counts)
	return &m
}

// Rows returns the probabilities as a row-major grid.
func (h *Heatmap) Rows() [][]float64 {
	return denseRows(h.Matrix())
}

// Max is the largest cell probability.
func (h *Heatmap) Max() float64 {
	return floats.Max(h.Matrix().RawMatrix().Data)
}

// Best returns the Unknown cell of v with the highest probability, the
// first in row-major order on ties. ok is false when no Unknown cell
// inside the heatmap scores above zero.
func (h *Heatmap) Best(v board.View) (cell board.Coordinate, p float64, ok bool) {
	return BestIn(h.Matrix(), v)
}

// BestIn is Best over any per-cell score matrix, such as the one returned
// by Expected.
func BestIn(m mat.Matrix, v board.View) (cell board.Coordinate, score float64, ok bool) {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			coord := board.Coordinate{Row: r, Col: c}
			if !v.InBounds(coord) || v.At(coord) != board.Unknown {
				continue
			}
			// score starts at 0, so zero cells are never suggested
			if x := m.At(r, c); x > score {
				cell, score, ok = coord, x, true
			}
		}
	}
	return cell, score, ok
}

type heatmapJSON struct {
	Height int         `json:"height"`
	Width  int         `json:"width"`
	Total  int         `json:"total"`
	Rows   [][]float64 `json:"rows"`
}

// MarshalJSON encodes the dimensions, total and probability rows.
func (h *Heatmap) MarshalJSON() ([]byte, error) {
	height, width := h.Dims()
	return json.Marshal(heatmapJSON{Height: height, Width: width, Total: h.total, Rows: h.Rows()})
}

// UnmarshalJSON restores a heatmap written by MarshalJSON. Counts are
// recovered from the probabilities and total.
func (h *Heatmap) UnmarshalJSON(data []byte) error {
	var in heatmapJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Height <= 0 || in.Width <= 0 || len(in.Rows) != in.Height {
		return fmt.Errorf("heatmap: bad dimensions %dx%d with %d rows", in.Height, in.Width, len(in.Rows))
	}
	if in.Total < 0 {
		return fmt.Errorf("heatmap: negative total %d", in.Total)
	}
	counts := mat.NewDense(in.Height, in.Width, nil)
	scale := float64(max(1, in.Total))
	for r, row := range in.Rows {
		if len(row) != in.Width {
			return fmt.Errorf("heatmap: row %d has width %d, want %d", r, len(row), in.Width)
		}
		for c, p := range row {
			counts.Set(r, c, math.Round(p*scale))
		}
	}
	h.counts, h.total = counts, in.Total
	return nil
}
