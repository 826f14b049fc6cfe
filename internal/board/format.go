package board

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text glyphs. Space is accepted as Unknown on input.
const (
	GlyphUnknown = '.'
	GlyphHit     = 'X'
	GlyphMiss    = 'O'
)

// ANSI escape codes used by ColorString.
const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// Parse reads one line per row. Empty lines before the first row and
// after the last are ignored; a row of spaces is a row of Unknown cells.
// Every row must have the same width, and only '.', ' ', 'X' and 'O'
// (either case) are allowed.
func Parse(input string) (*Board, error) {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return FromRows(lines)
}

// FromRows builds a board from pre-split text rows.
func FromRows(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidInput)
	}
	width := len(rows[0])
	b, err := New(len(rows), width)
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidInput, r, len(row), width)
		}
		for c, ch := range []byte(row) {
			s, err := stateFromGlyph(ch)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			b.cells[r*width+c] = s
		}
	}
	return b, nil
}

func stateFromGlyph(ch byte) (CellState, error) {
	switch ch {
	case GlyphUnknown, ' ':
		return Unknown, nil
	case GlyphHit, 'x':
		return Hit, nil
	case GlyphMiss, 'o':
		return Miss, nil
	}
	return Unknown, fmt.Errorf("%w: unexpected glyph %q", ErrInvalidInput, ch)
}

func glyph(s CellState) byte {
	switch s {
	case Hit:
		return GlyphHit
	case Miss:
		return GlyphMiss
	default:
		return GlyphUnknown
	}
}

// Rows renders the board as text rows.
func (b *Board) Rows() []string {
	out := make([]string, b.height)
	buf := make([]byte, b.width)
	for r := 0; r < b.height; r++ {
		for c := 0; c < b.width; c++ {
			buf[c] = glyph(b.cells[r*b.width+c])
		}
		out[r] = string(buf)
	}
	return out
}

func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}

// ColorString renders the board with row/column indices, hits in red and
// misses in green, for terminal output.
func (b *Board) ColorString() string {
	rowDigits := len(strconv.Itoa(b.height - 1))
	colDigits := len(strconv.Itoa(b.width - 1))

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", rowDigits+1))
	for c := 0; c < b.width; c++ {
		fmt.Fprintf(&sb, " %*d", colDigits, c)
	}
	sb.WriteString("\n")
	for r := 0; r < b.height; r++ {
		fmt.Fprintf(&sb, "%*d ", rowDigits, r)
		for c := 0; c < b.width; c++ {
			g := string(glyph(b.cells[r*b.width+c]))
			switch b.cells[r*b.width+c] {
			case Hit:
				g = colorRed + g + colorReset
			case Miss:
				g = colorGreen + g + colorReset
			}
			fmt.Fprintf(&sb, " %*s", colDigits+len(g)-1, g)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FromGrid builds a board from integer rows: 0 unknown, 1 hit, 2 miss.
func FromGrid(grid [][]int) (*Board, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidInput)
	}
	width := len(grid[0])
	b, err := New(len(grid), width)
	if err != nil {
		return nil, err
	}
	for r, row := range grid {
		if len(row) != width {
			return nil, fmt.Errorf("%w: grid row %d has width %d, want %d", ErrInvalidInput, r, len(row), width)
		}
		for c, v := range row {
			s := CellState(v)
			if !s.Valid() {
				return nil, fmt.Errorf("%w: grid value %d at row %d col %d", ErrInvalidInput, v, r, c)
			}
			b.cells[r*width+c] = s
		}
	}
	return b, nil
}

// Grid returns the integer-row form accepted by FromGrid.
func (b *Board) Grid() [][]int {
	out := make([][]int, b.height)
	for r := range out {
		out[r] = make([]int, b.width)
		for c := range out[r] {
			out[r][c] = int(b.cells[r*b.width+c])
		}
	}
	return out
}

// MarshalJSON encodes the board as its text rows.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Rows())
}

// UnmarshalJSON accepts either text rows or an integer grid.
func (b *Board) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err == nil {
		parsed, err := FromRows(rows)
		if err != nil {
			return err
		}
		*b = *parsed
		return nil
	}
	var grid [][]int
	if err := json.Unmarshal(data, &grid); err != nil {
		return fmt.Errorf("%w: board must be text rows or an integer grid", ErrInvalidInput)
	}
	parsed, err := FromGrid(grid)
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}
