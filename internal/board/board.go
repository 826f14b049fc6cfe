// Package board holds the revealed state of a rectangular game board.
//
// A Board is the only mutable value in the engine's data model. It is owned
// by the caller, mutated between computations with Mark, and read (never
// written) by the placement and heatmap packages.
package board

import (
	"errors"
	"fmt"
)

// CellState is what has been revealed about one cell.
type CellState int

const (
	Unknown CellState = iota
	Hit
	Miss
)

func (s CellState) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Valid reports whether s is one of the three defined states.
func (s CellState) Valid() bool {
	return s == Unknown || s == Hit || s == Miss
}

// Coordinate is an absolute board position.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(r%d, c%d)", c.Row, c.Col)
}

var (
	// ErrOutOfBounds is returned when a coordinate lies outside the board.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrInvalidInput is returned for malformed dimensions, states or text.
	ErrInvalidInput = errors.New("invalid board input")
)

// CoordinateError reports a coordinate rejected by a board operation.
type CoordinateError struct {
	Coord         Coordinate
	Height, Width int
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("coordinate %v outside %dx%d board", e.Coord, e.Height, e.Width)
}

func (e *CoordinateError) Unwrap() error { return ErrOutOfBounds }

// View is the read-only surface the engine needs from a board.
type View interface {
	Dims() (height, width int)
	InBounds(c Coordinate) bool
	At(c Coordinate) CellState
}

// Board is a height×width grid of cell states, row-major.
type Board struct {
	height int
	width  int
	cells  []CellState
}

// New returns an all-Unknown board.
func New(height, width int) (*Board, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidInput, height, width)
	}
	return &Board{
		height: height,
		width:  width,
		cells:  make([]CellState, height*width),
	}, nil
}

// Dims returns the board height and width.
func (b *Board) Dims() (height, width int) {
	return b.height, b.width
}

// InBounds reports whether c lies on the board.
func (b *Board) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.height && c.Col >= 0 && c.Col < b.width
}

// At returns the state at c. Out-of-bounds coordinates read as Unknown;
// callers that care check InBounds first.
func (b *Board) At(c Coordinate) CellState {
	if !b.InBounds(c) {
		return Unknown
	}
	return b.cells[c.Row*b.width+c.Col]
}

// Mark sets the state at c.
func (b *Board) Mark(c Coordinate, s CellState) error {
	if !b.InBounds(c) {
		return &CoordinateError{Coord: c, Height: b.height, Width: b.width}
	}
	if !s.Valid() {
		return fmt.Errorf("%w: unknown cell state %d", ErrInvalidInput, int(s))
	}
	b.cells[c.Row*b.width+c.Col] = s
	return nil
}

// Count returns how many cells are in state s.
func (b *Board) Count(s CellState) int {
	n := 0
	for _, v := range b.cells {
		if v == s {
			n++
		}
	}
	return n
}

// Hits returns every Hit coordinate in row-major order.
func (b *Board) Hits() []Coordinate {
	return b.coordsWith(Hit)
}

// Misses returns every Miss coordinate in row-major order.
func (b *Board) Misses() []Coordinate {
	return b.coordsWith(Miss)
}

func (b *Board) coordsWith(s CellState) []Coordinate {
	var out []Coordinate
	for i, v := range b.cells {
		if v == s {
			out = append(out, Coordinate{Row: i / b.width, Col: i % b.width})
		}
	}
	return out
}

// Clone returns an independent copy, for callers that want a snapshot to
// hand to a computation while they keep editing the original.
func (b *Board) Clone() *Board {
	cells := make([]CellState, len(b.cells))
	copy(cells, b.cells)
	return &Board{height: b.height, width: b.width, cells: cells}
}
