package placement

import (
	"iter"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/shape"
)

// Enumerate yields every placement of s legal on v under mode. Anchors are
// scanned row-major and only over positions where the shape's bounding box
// fits, so the scan is O(height × width × shape size). Each call to the
// returned sequence starts a fresh scan; the caller may stop early.
func Enumerate(s shape.Shape, v board.View, mode Mode) iter.Seq[Placement] {
	return enumerate(s.Name(), s, v, mode)
}

// EnumeratePiece yields the legal placements of every orientation of
// piece, orientations in the piece's order, each scanned row-major.
func EnumeratePiece(piece shape.Piece, v board.View, mode Mode) iter.Seq[Placement] {
	return func(yield func(Placement) bool) {
		for _, o := range piece.Orientations {
			for p := range enumerate(piece.Name, o, v, mode) {
				if !yield(p) {
					return
				}
			}
		}
	}
}

func enumerate(name string, s shape.Shape, v board.View, mode Mode) iter.Seq[Placement] {
	return func(yield func(Placement) bool) {
		val := NewValidator(v, mode)
		height, width := v.Dims()
		rows, cols := s.Bounds()
		for r := 0; r+rows <= height; r++ {
			for c := 0; c+cols <= width; c++ {
				p := Placement{Piece: name, Shape: s, Anchor: board.Coordinate{Row: r, Col: c}}
				if !val.Legal(p) {
					continue
				}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Collect drains a placement sequence into a slice.
func Collect(seq iter.Seq[Placement]) []Placement {
	var out []Placement
	for p := range seq {
		out = append(out, p)
	}
	return out
}
