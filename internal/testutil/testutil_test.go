package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/broadside/internal/board"
)

func TestMustBoard_StripsIndent(t *testing.T) {
	b := MustBoard(t, `
		.X.
		O..
	`)
	h, w := b.Dims()
	assert.Equal(t, 2, h)
	assert.Equal(t, 3, w)
	assert.Equal(t, board.Hit, b.At(board.Coordinate{Row: 0, Col: 1}))
	assert.Equal(t, board.Miss, b.At(board.Coordinate{Row: 1, Col: 0}))
}

func TestMustBoard_KeepsRowsOfSpaces(t *testing.T) {
	b := MustBoard(t, "X  \n   \n  O")
	h, _ := b.Dims()
	assert.Equal(t, 3, h)
	assert.Equal(t, board.Miss, b.At(board.Coordinate{Row: 2, Col: 2}))
}

func TestMustLine(t *testing.T) {
	p := MustLine(t, "ship", 3)
	assert.Equal(t, "ship", p.Name)
	assert.Len(t, p.Orientations, 2)
	assert.Equal(t, 3, p.MaxSize())
}

func TestAssertGridNear(t *testing.T) {
	AssertGridNear(t, [][]float64{{0.5, 1}}, [][]float64{{0.5000001, 1}}, 1e-6)
}

func TestNewJSONRequest(t *testing.T) {
	req := NewJSONRequest(http.MethodPost, "/api/heatmap", `{}`)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}
