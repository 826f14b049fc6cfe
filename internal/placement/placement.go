package placement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/shape"
)

// Mode selects the legality policy.
type Mode int

const (
	// NonConflicting: every cell in bounds and none marked Miss.
	NonConflicting Mode = iota
	// FullyConsistent: NonConflicting, and every Hit left on the view is
	// covered by the placement.
	FullyConsistent
)

// ErrUnknownMode is returned by ParseMode for unrecognised tokens.
var ErrUnknownMode = errors.New("unknown placement mode")

func (m Mode) String() string {
	switch m {
	case NonConflicting:
		return "non_conflicting"
	case FullyConsistent:
		return "fully_consistent"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "non_conflicting" and "fully_consistent". Hyphens are
// treated as underscores; the empty string selects NonConflicting.
func ParseMode(token string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(token)), "-", "_") {
	case "", "non_conflicting":
		return NonConflicting, nil
	case "fully_consistent":
		return FullyConsistent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, token)
}

// MarshalText encodes the mode token.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode token.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Placement is a shape anchored at an absolute board position. The piece
// name identifies which object the placement belongs to.
type Placement struct {
	Piece  string           `json:"piece"`
	Shape  shape.Shape      `json:"-"`
	Anchor board.Coordinate `json:"anchor"`
}

// Each calls fn with every absolute cell the placement covers, row-major.
func (p Placement) Each(fn func(board.Coordinate)) {
	p.Shape.Each(func(o shape.Offset) {
		fn(board.Coordinate{Row: p.Anchor.Row + o.Row, Col: p.Anchor.Col + o.Col})
	})
}

// Cells returns the absolute cells the placement covers.
func (p Placement) Cells() []board.Coordinate {
	out := make([]board.Coordinate, 0, p.Shape.Size())
	p.Each(func(c board.Coordinate) { out = append(out, c) })
	return out
}

func (p Placement) String() string {
	return fmt.Sprintf("%s@%v", p.Piece, p.Anchor)
}

// Validator checks placements against one board snapshot. It counts the
// board's hits once so FullyConsistent checks stay O(shape size).
type Validator struct {
	view board.View
	mode Mode
	hits int
}

// NewValidator prepares a validator for v under mode.
func NewValidator(v board.View, mode Mode) *Validator {
	return &Validator{view: v, mode: mode, hits: countHits(v)}
}

func countHits(v board.View) int {
	h, w := v.Dims()
	n := 0
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if v.At(board.Coordinate{Row: r, Col: c}) == board.Hit {
				n++
			}
		}
	}
	return n
}

// Legal reports whether p is legal under the validator's mode.
func (val *Validator) Legal(p Placement) bool {
	covered, ok := val.scan(p)
	if !ok {
		return false
	}
	if val.mode == FullyConsistent {
		return covered == val.hits
	}
	return true
}

// scan walks p's cells once. ok is false if any cell is off the board or
// marked Miss; covered counts the Hit cells p lies on.
func (val *Validator) scan(p Placement) (covered int, ok bool) {
	ok = true
	p.Each(func(c board.Coordinate) {
		if !ok {
			return
		}
		if !val.view.InBounds(c) {
			ok = false
			return
		}
		switch val.view.At(c) {
		case board.Miss:
			ok = false
		case board.Hit:
			covered++
		}
	})
	return covered, ok
}

// IsLegal checks a single placement. Out-of-bounds placements are simply
// illegal, not errors.
func IsLegal(p Placement, v board.View, mode Mode) bool {
	return NewValidator(v, mode).Legal(p)
}
