package shape

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// Offset is a cell position relative to a shape's anchor.
type Offset struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (o Offset) String() string {
	return fmt.Sprintf("(%d,%d)", o.Row, o.Col)
}

// Orientation selects how a straight object of a given size is laid out.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// ParseOrientation accepts "horizontal"/"h" and "vertical"/"v", case
// insensitive. Anything else is rejected.
func ParseOrientation(token string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return 0, &InputError{Field: "orientation", Value: fmt.Sprintf("%q", token), Reason: "must be horizontal or vertical", Err: ErrUnknownOrientation}
}

// Shape is the footprint of one object in one orientation. The zero value
// is not a valid Shape; use New, NewLine or NewRect.
//
// Cells are kept sorted row-major so that two shapes with equal cell sets
// also have equal slices.
type Shape struct {
	name  string
	cells []Offset
	rows  int
	cols  int
}

// New validates cells and builds a Shape. Offsets must be non-negative,
// unique, 4-connected and include (0,0).
func New(name string, cells []Offset) (Shape, error) {
	if len(cells) == 0 {
		return Shape{}, invalid("cells", "[]", "shape needs at least one cell")
	}

	seen := mapset.New[Offset]()
	rows, cols := 0, 0
	for _, c := range cells {
		if c.Row < 0 || c.Col < 0 {
			return Shape{}, invalid("cell", c, "offsets must be non-negative")
		}
		if seen.Has(c) {
			return Shape{}, invalid("cell", c, "duplicate offset")
		}
		seen.Put(c)
		if c.Row+1 > rows {
			rows = c.Row + 1
		}
		if c.Col+1 > cols {
			cols = c.Col + 1
		}
	}
	if !seen.Has(Offset{}) {
		return Shape{}, invalid("cells", name, "shape must include offset (0,0)")
	}
	if !connected(seen, len(cells)) {
		return Shape{}, invalid("cells", name, "footprint is not connected")
	}

	sorted := make([]Offset, len(cells))
	copy(sorted, cells)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	return Shape{name: name, cells: sorted, rows: rows, cols: cols}, nil
}

// connected walks the footprint from (0,0) and reports whether every cell
// was reached.
func connected(cells mapset.Set[Offset], n int) bool {
	visited := mapset.New[Offset]()
	queue := []Offset{{}}
	visited.Put(Offset{})
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range [...]Offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			next := Offset{cur.Row + d.Row, cur.Col + d.Col}
			if cells.Has(next) && !visited.Has(next) {
				visited.Put(next)
				queue = append(queue, next)
			}
		}
	}
	return visited.Size() == n
}

// NewLine builds a straight object of the given size. Horizontal spans one
// row, vertical spans one column.
func NewLine(name string, size int, o Orientation) (Shape, error) {
	if size <= 0 {
		return Shape{}, invalid("size", size, "must be positive")
	}
	cells := make([]Offset, size)
	for i := range cells {
		switch o {
		case Horizontal:
			cells[i] = Offset{0, i}
		case Vertical:
			cells[i] = Offset{i, 0}
		default:
			return Shape{}, &InputError{Field: "orientation", Value: int(o), Reason: "must be horizontal or vertical", Err: ErrUnknownOrientation}
		}
	}
	return New(name, cells)
}

// NewRect builds a solid height×width rectangle.
func NewRect(name string, height, width int) (Shape, error) {
	if height <= 0 {
		return Shape{}, invalid("height", height, "must be positive")
	}
	if width <= 0 {
		return Shape{}, invalid("width", width, "must be positive")
	}
	cells := make([]Offset, 0, height*width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			cells = append(cells, Offset{r, c})
		}
	}
	return New(name, cells)
}

// MustNew is New for fixtures and tables; it panics on invalid cells.
func MustNew(name string, cells ...Offset) Shape {
	s, err := New(name, cells)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Shape) Name() string { return s.name }

// Size is the number of cells the shape covers.
func (s Shape) Size() int { return len(s.cells) }

// Bounds returns the number of rows and columns the shape spans.
func (s Shape) Bounds() (rows, cols int) { return s.rows, s.cols }

// Cells returns a copy of the sorted offsets.
func (s Shape) Cells() []Offset {
	out := make([]Offset, len(s.cells))
	copy(out, s.cells)
	return out
}

// Each calls fn for every offset in row-major order without copying.
func (s Shape) Each(fn func(Offset)) {
	for _, c := range s.cells {
		fn(c)
	}
}

// Transpose swaps rows and columns. A horizontal line transposes into the
// vertical line of the same size.
func (s Shape) Transpose() Shape {
	cells := make([]Offset, len(s.cells))
	for i, c := range s.cells {
		cells[i] = Offset{Row: c.Col, Col: c.Row}
	}
	// Transposition keeps (0,0), connectivity and non-negativity.
	t, _ := New(s.name, cells)
	return t
}

// Equal reports whether both shapes cover exactly the same offsets. Names
// are ignored.
func (s Shape) Equal(other Shape) bool {
	if len(s.cells) != len(other.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteString("[")
	for i, c := range s.cells {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(c.String())
	}
	b.WriteString("]")
	return b.String()
}
