package board

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllUnknown(t *testing.T) {
	b, err := New(3, 4)
	require.NoError(t, err)

	h, w := b.Dims()
	assert.Equal(t, 3, h)
	assert.Equal(t, 4, w)
	assert.Equal(t, 12, b.Count(Unknown))
	assert.Empty(t, b.Hits())

	_, err = New(0, 4)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMark(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)

	require.NoError(t, b.Mark(Coordinate{1, 0}, Hit))
	require.NoError(t, b.Mark(Coordinate{0, 1}, Miss))
	assert.Equal(t, Hit, b.At(Coordinate{1, 0}))
	assert.Equal(t, Miss, b.At(Coordinate{0, 1}))
	assert.Equal(t, []Coordinate{{1, 0}}, b.Hits())
	assert.Equal(t, []Coordinate{{0, 1}}, b.Misses())

	err = b.Mark(Coordinate{2, 0}, Hit)
	require.Error(t, err)
	var ce *CoordinateError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, Coordinate{2, 0}, ce.Coord)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.ErrorIs(t, b.Mark(Coordinate{0, 0}, CellState(9)), ErrInvalidInput)
}

func TestClone_IsIndependent(t *testing.T) {
	b, err := New(1, 3)
	require.NoError(t, err)
	snap := b.Clone()
	require.NoError(t, b.Mark(Coordinate{0, 2}, Miss))
	assert.Equal(t, Unknown, snap.At(Coordinate{0, 2}))
}

func TestParse_RoundTrip(t *testing.T) {
	input := "\n..X\nO. \r\n"
	b, err := Parse(input)
	require.NoError(t, err)

	h, w := b.Dims()
	assert.Equal(t, 2, h)
	assert.Equal(t, 3, w)
	assert.Equal(t, Hit, b.At(Coordinate{0, 2}))
	assert.Equal(t, Miss, b.At(Coordinate{1, 0}))
	assert.Equal(t, "..X\nO..", b.String())
}

func TestParse_KeepsUnknownRowsOfSpaces(t *testing.T) {
	b, err := Parse("X  \n   \n  O\n")
	require.NoError(t, err)

	h, w := b.Dims()
	assert.Equal(t, 3, h)
	assert.Equal(t, 3, w)
	assert.Equal(t, Hit, b.At(Coordinate{0, 0}))
	assert.Equal(t, Miss, b.At(Coordinate{2, 2}))
	assert.Equal(t, 7, b.Count(Unknown))
	assert.Equal(t, "X..\n...\n..O", b.String())
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":       "\n\n",
		"ragged":      "...\n..",
		"glyph":       "..?",
		"inner blank": "...\n\n...",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestFromGrid(t *testing.T) {
	b, err := FromGrid([][]int{{0, 1}, {2, 0}})
	require.NoError(t, err)
	assert.Equal(t, ".X\nO.", b.String())
	assert.Equal(t, [][]int{{0, 1}, {2, 0}}, b.Grid())

	_, err = FromGrid([][]int{{0, 3}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = FromGrid([][]int{{0, 0}, {0}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJSON(t *testing.T) {
	b, err := Parse("X.\n.O")
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `["X.",".O"]`, string(data))

	var fromRows Board
	require.NoError(t, json.Unmarshal(data, &fromRows))
	assert.Equal(t, b.String(), fromRows.String())

	var fromGrid Board
	require.NoError(t, json.Unmarshal([]byte(`[[1,0],[0,2]]`), &fromGrid))
	assert.Equal(t, b.String(), fromGrid.String())

	var bad Board
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"rows":1}`), &bad), ErrInvalidInput)
}

func TestColorString(t *testing.T) {
	b, err := Parse("XO.")
	require.NoError(t, err)
	out := b.ColorString()
	assert.Contains(t, out, colorRed+"X"+colorReset)
	assert.Contains(t, out, colorGreen+"O"+colorReset)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}
