package shape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLine_SizeAndTranspose(t *testing.T) {
	t.Parallel()

	for size := 1; size <= 6; size++ {
		h, err := NewLine("ship", size, Horizontal)
		require.NoError(t, err)
		v, err := NewLine("ship", size, Vertical)
		require.NoError(t, err)

		assert.Equal(t, size, h.Size())
		assert.Equal(t, size, v.Size())
		assert.True(t, h.Transpose().Equal(v), "size %d: horizontal^T != vertical", size)
		assert.True(t, v.Transpose().Equal(h), "size %d: vertical^T != horizontal", size)

		rows, cols := h.Bounds()
		assert.Equal(t, 1, rows)
		assert.Equal(t, size, cols)
		rows, cols = v.Bounds()
		assert.Equal(t, size, rows)
		assert.Equal(t, 1, cols)
	}
}

func TestNewLine_RejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewLine("zero", 0, Horizontal)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))

	_, err = NewLine("diag", 3, Orientation(7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOrientation))
}

func TestNew_Invariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cells []Offset
	}{
		{"empty", nil},
		{"negative", []Offset{{0, 0}, {-1, 0}}},
		{"duplicate", []Offset{{0, 0}, {0, 0}}},
		{"no origin", []Offset{{0, 1}, {1, 1}}},
		{"disconnected", []Offset{{0, 0}, {0, 2}}},
		{"diagonal only", []Offset{{0, 0}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.name, tt.cells)
			require.Error(t, err)
			var ie *InputError
			assert.True(t, errors.As(err, &ie))
			assert.True(t, errors.Is(err, ErrInvalidShape))
		})
	}
}

func TestNew_SortsCellsRowMajor(t *testing.T) {
	t.Parallel()

	s, err := New("ell", []Offset{{1, 1}, {0, 0}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, []Offset{{0, 0}, {1, 0}, {1, 1}}, s.Cells())

	other := MustNew("other", Offset{1, 0}, Offset{1, 1}, Offset{0, 0})
	assert.True(t, s.Equal(other))
}

func TestEqual_ExactCellSets(t *testing.T) {
	t.Parallel()

	// Same bounding box, different footprint.
	ell := MustNew("ell", Offset{0, 0}, Offset{1, 0}, Offset{1, 1})
	jay := MustNew("jay", Offset{0, 0}, Offset{0, 1}, Offset{1, 1})
	assert.False(t, ell.Equal(jay))

	sq, err := NewRect("square", 2, 2)
	require.NoError(t, err)
	assert.True(t, sq.Equal(sq.Transpose()))
}

func TestParseOrientation(t *testing.T) {
	t.Parallel()

	o, err := ParseOrientation("Horizontal")
	require.NoError(t, err)
	assert.Equal(t, Horizontal, o)

	o, err = ParseOrientation(" v ")
	require.NoError(t, err)
	assert.Equal(t, Vertical, o)

	_, err = ParseOrientation("diagonal")
	assert.ErrorIs(t, err, ErrUnknownOrientation)
}

func TestNewPiece_DeduplicatesOrientations(t *testing.T) {
	t.Parallel()

	sq, err := NewRect("square", 2, 2)
	require.NoError(t, err)
	p, err := NewPiece("square", sq, sq.Transpose())
	require.NoError(t, err)
	assert.Len(t, p.Orientations, 1)

	line, err := LinePiece("cruiser", 3)
	require.NoError(t, err)
	require.Len(t, line.Orientations, 2)
	rows, _ := line.Orientations[0].Bounds()
	assert.Equal(t, 1, rows, "horizontal comes first")
	assert.Equal(t, 3, line.MaxSize())

	dot, err := LinePiece("dot", 1)
	require.NoError(t, err)
	assert.Len(t, dot.Orientations, 1)

	_, err = NewPiece("none")
	assert.ErrorIs(t, err, ErrInvalidShape)
}
