package placement

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/banshee-data/broadside/internal/board"
)

var (
	// ErrOverlap is returned when two placements of a layout share a cell.
	ErrOverlap = errors.New("placements overlap")
	// ErrIllegalPlacement is returned when a placement leaves the board or
	// lies on a miss.
	ErrIllegalPlacement = errors.New("illegal placement")
)

// OverlapError names the two pieces that collide and one shared cell.
type OverlapError struct {
	A, B string
	Cell board.Coordinate
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s and %s both cover %v", e.A, e.B, e.Cell)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// Overlaps reports whether a and b cover at least one common cell. Shapes
// are compared cell by cell, so an L nested in another L's bounding box
// does not overlap unless a cell is actually shared.
func Overlaps(a, b Placement) bool {
	_, ok := sharedCell(a, b)
	return ok
}

func sharedCell(a, b Placement) (board.Coordinate, bool) {
	cells := mapset.New[board.Coordinate]()
	a.Each(func(c board.Coordinate) { cells.Put(c) })

	var (
		shared board.Coordinate
		found  bool
	)
	b.Each(func(c board.Coordinate) {
		if !found && cells.Has(c) {
			shared, found = c, true
		}
	})
	return shared, found
}

// CheckLayout validates a joint assignment supplied from outside the
// search: every placement NonConflicting on v and no two sharing a cell.
func CheckLayout(v board.View, layout Layout) error {
	val := NewValidator(v, NonConflicting)
	owner := make(map[board.Coordinate]string)
	for _, p := range layout {
		if !val.Legal(p) {
			return fmt.Errorf("%w: %v", ErrIllegalPlacement, p)
		}
		var clash *OverlapError
		p.Each(func(c board.Coordinate) {
			if clash != nil {
				return
			}
			if other, ok := owner[c]; ok {
				clash = &OverlapError{A: other, B: p.Piece, Cell: c}
				return
			}
			owner[c] = p.Piece
		})
		if clash != nil {
			return clash
		}
	}
	return nil
}
