package shape

import "fmt"

// Piece is one hidden object: a name and the orientations it may take.
// Orientation order is the order enumeration visits them in.
type Piece struct {
	Name         string
	Orientations []Shape
}

// NewPiece builds a Piece, dropping orientations whose cell sets equal an
// earlier one (a square's horizontal and vertical forms, for example).
func NewPiece(name string, orientations ...Shape) (Piece, error) {
	if len(orientations) == 0 {
		return Piece{}, invalid("orientations", name, "piece needs at least one orientation")
	}
	unique := make([]Shape, 0, len(orientations))
	for _, o := range orientations {
		if o.Size() == 0 {
			return Piece{}, invalid("orientation", name, "zero-value shape")
		}
		dup := false
		for _, u := range unique {
			if u.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, o)
		}
	}
	return Piece{Name: name, Orientations: unique}, nil
}

// LinePiece is a straight object of the given size restricted to the
// listed orientations. With no orientations both are allowed, horizontal
// first.
func LinePiece(name string, size int, orientations ...Orientation) (Piece, error) {
	if len(orientations) == 0 {
		orientations = []Orientation{Horizontal, Vertical}
	}
	shapes := make([]Shape, 0, len(orientations))
	for _, o := range orientations {
		s, err := NewLine(name, size, o)
		if err != nil {
			return Piece{}, fmt.Errorf("piece %q: %w", name, err)
		}
		shapes = append(shapes, s)
	}
	return NewPiece(name, shapes...)
}

// Single wraps one fixed shape as a piece named after it.
func Single(s Shape) Piece {
	return Piece{Name: s.Name(), Orientations: []Shape{s}}
}

// Singles wraps each shape as its own fixed-orientation piece.
func Singles(shapes ...Shape) []Piece {
	out := make([]Piece, len(shapes))
	for i, s := range shapes {
		out[i] = Single(s)
	}
	return out
}

// MaxSize is the largest cell count over the piece's orientations.
func (p Piece) MaxSize() int {
	n := 0
	for _, o := range p.Orientations {
		if o.Size() > n {
			n = o.Size()
		}
	}
	return n
}
