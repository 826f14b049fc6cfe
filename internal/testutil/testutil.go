// Package testutil provides shared test fixtures for boards, shapes and
// heatmap grids.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/shape"
)

// MustBoard parses a text board, failing the test on malformed input.
// Leading tabs on each row are stripped so fixtures can be written as
// indented raw strings; lines left empty are skipped.
func MustBoard(t testing.TB, text string) *board.Board {
	t.Helper()
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(line, "\t")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	b, err := board.FromRows(rows)
	if err != nil {
		t.Fatalf("MustBoard: %v", err)
	}
	return b
}

// MustLine builds a straight piece, failing the test on error.
func MustLine(t testing.TB, name string, size int, orientations ...shape.Orientation) shape.Piece {
	t.Helper()
	p, err := shape.LinePiece(name, size, orientations...)
	if err != nil {
		t.Fatalf("MustLine: %v", err)
	}
	return p
}

// AssertGridNear checks two probability grids cell by cell within tol.
func AssertGridNear(t testing.TB, want, got [][]float64, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("grid rows = %d, want %d", len(got), len(want))
	}
	for r := range want {
		if len(want[r]) != len(got[r]) {
			t.Fatalf("row %d width = %d, want %d", r, len(got[r]), len(want[r]))
		}
		for c := range want[r] {
			if math.Abs(want[r][c]-got[r][c]) > tol {
				t.Errorf("cell (%d,%d) = %.6f, want %.6f", r, c, got[r][c], want[r][c])
			}
		}
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewJSONRequest creates a test HTTP request with a JSON body.
func NewJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
