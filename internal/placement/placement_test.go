package placement

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/shape"
	"github.com/banshee-data/broadside/internal/testutil"
)

func at(r, c int) board.Coordinate { return board.Coordinate{Row: r, Col: c} }

func line(t *testing.T, name string, size int, o shape.Orientation) shape.Shape {
	t.Helper()
	s, err := shape.NewLine(name, size, o)
	require.NoError(t, err)
	return s
}

func anchors(ps []Placement) []board.Coordinate {
	out := make([]board.Coordinate, len(ps))
	for i, p := range ps {
		out[i] = p.Anchor
	}
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", NonConflicting},
		{"non_conflicting", NonConflicting},
		{"Fully-Consistent", FullyConsistent},
		{" fully_consistent ", FullyConsistent},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("strict")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestMode_TextRoundTrip(t *testing.T) {
	text, err := FullyConsistent.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "fully_consistent", string(text))

	var m Mode
	require.NoError(t, m.UnmarshalText(text))
	assert.Equal(t, FullyConsistent, m)
	assert.Error(t, m.UnmarshalText([]byte("loose")))
}

func TestPlacement_Cells(t *testing.T) {
	p := Placement{Piece: "v", Shape: line(t, "v", 3, shape.Vertical), Anchor: at(1, 2)}
	assert.Equal(t, []board.Coordinate{at(1, 2), at(2, 2), at(3, 2)}, p.Cells())
	assert.Equal(t, "v@(r1, c2)", p.String())
}

func TestIsLegal(t *testing.T) {
	b := testutil.MustBoard(t, `
		..X.
		.O..
	`)
	h2 := line(t, "h2", 2, shape.Horizontal)

	tests := []struct {
		name   string
		anchor board.Coordinate
		mode   Mode
		want   bool
	}{
		{"clear", at(0, 0), NonConflicting, true},
		{"on hit", at(0, 1), NonConflicting, true},
		{"on miss", at(1, 0), NonConflicting, false},
		{"off right edge", at(0, 3), NonConflicting, false},
		{"off bottom", at(2, 0), NonConflicting, false},
		{"negative anchor", at(-1, 0), NonConflicting, false},
		{"fully misses hit", at(0, 0), FullyConsistent, false},
		{"fully covers hit", at(0, 2), FullyConsistent, true},
		{"fully on miss", at(1, 1), FullyConsistent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Placement{Piece: "h2", Shape: h2, Anchor: tt.anchor}
			assert.Equal(t, tt.want, IsLegal(p, b, tt.mode))
		})
	}
}

func TestIsLegal_DoesNotMutateBoard(t *testing.T) {
	b := testutil.MustBoard(t, "X.O")
	before := b.String()
	IsLegal(Placement{Piece: "a", Shape: line(t, "a", 2, shape.Horizontal)}, b, FullyConsistent)
	assert.Equal(t, before, b.String())
}

func TestEnumerate_OneByThree(t *testing.T) {
	b, err := board.New(1, 3)
	require.NoError(t, err)

	got := Collect(Enumerate(line(t, "s", 3, shape.Horizontal), b, NonConflicting))
	require.Len(t, got, 1)
	assert.Equal(t, at(0, 0), got[0].Anchor)
}

func TestEnumerate_RowMajorOrder(t *testing.T) {
	b, err := board.New(3, 3)
	require.NoError(t, err)

	got := anchors(Collect(Enumerate(line(t, "s", 2, shape.Horizontal), b, NonConflicting)))
	want := []board.Coordinate{at(0, 0), at(0, 1), at(1, 0), at(1, 1), at(2, 0), at(2, 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("anchors mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerate_AllCellsInBounds(t *testing.T) {
	shapes := []shape.Shape{
		shape.MustNew("dot", shape.Offset{}),
		shape.MustNew("ell", shape.Offset{Row: 0, Col: 0}, shape.Offset{Row: 1, Col: 0}, shape.Offset{Row: 1, Col: 1}),
		shape.MustNew("tee", shape.Offset{Row: 0, Col: 0}, shape.Offset{Row: 0, Col: 1}, shape.Offset{Row: 0, Col: 2}, shape.Offset{Row: 1, Col: 1}),
	}
	dims := [][2]int{{1, 1}, {1, 5}, {4, 2}, {5, 5}, {7, 3}}
	for _, d := range dims {
		b, err := board.New(d[0], d[1])
		require.NoError(t, err)
		for _, s := range withTransposes(shapes) {
			for p := range Enumerate(s, b, NonConflicting) {
				for _, c := range p.Cells() {
					assert.True(t, b.InBounds(c), "%v on %dx%d covers %v", p, d[0], d[1], c)
				}
			}
		}
	}
}

func withTransposes(shapes []shape.Shape) []shape.Shape {
	out := append([]shape.Shape(nil), shapes...)
	for _, s := range shapes {
		out = append(out, s.Transpose())
	}
	return out
}

func TestEnumerate_NeverCoversMiss(t *testing.T) {
	b := testutil.MustBoard(t, `
		...
		.O.
		...
	`)
	piece := testutil.MustLine(t, "s", 3)

	got := Collect(EnumeratePiece(piece, b, NonConflicting))
	want := []board.Coordinate{at(0, 0), at(2, 0), at(0, 0), at(0, 2)}
	if diff := cmp.Diff(want, anchors(got)); diff != "" {
		t.Errorf("anchors mismatch (-want +got):\n%s", diff)
	}
	for _, p := range got {
		for _, c := range p.Cells() {
			assert.NotEqual(t, at(1, 1), c, "%v covers the miss", p)
		}
	}
}

func TestEnumerate_EarlyStopAndRestart(t *testing.T) {
	b, err := board.New(4, 4)
	require.NoError(t, err)
	seq := Enumerate(shape.MustNew("dot", shape.Offset{}), b, NonConflicting)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	assert.Len(t, Collect(seq), 16)
}

func TestEnumerate_ShapeLargerThanBoard(t *testing.T) {
	b, err := board.New(2, 2)
	require.NoError(t, err)
	assert.Empty(t, Collect(Enumerate(line(t, "s", 3, shape.Horizontal), b, NonConflicting)))
}

func TestEnumerate_FullyConsistent(t *testing.T) {
	b := testutil.MustBoard(t, "..X.")
	s := line(t, "s", 2, shape.Horizontal)

	assert.Len(t, Collect(Enumerate(s, b, NonConflicting)), 3)
	got := anchors(Collect(Enumerate(s, b, FullyConsistent)))
	assert.Equal(t, []board.Coordinate{at(0, 1), at(0, 2)}, got)

	apart := testutil.MustBoard(t, "X..X")
	assert.Empty(t, Collect(Enumerate(s, apart, FullyConsistent)))
}

func TestOverlaps(t *testing.T) {
	corner := shape.MustNew("corner",
		shape.Offset{Row: 0, Col: 0}, shape.Offset{Row: 1, Col: 0}, shape.Offset{Row: 2, Col: 0},
		shape.Offset{Row: 2, Col: 1}, shape.Offset{Row: 2, Col: 2})
	dot := shape.MustNew("dot", shape.Offset{})
	square, err := shape.NewRect("square", 2, 2)
	require.NoError(t, err)
	ell := shape.MustNew("ell", shape.Offset{Row: 0, Col: 0}, shape.Offset{Row: 0, Col: 1}, shape.Offset{Row: 1, Col: 1})

	a := Placement{Piece: "corner", Shape: corner, Anchor: at(0, 0)}

	tests := []struct {
		name string
		b    Placement
		want bool
	}{
		{"nested but disjoint", Placement{Piece: "dot", Shape: dot, Anchor: at(1, 1)}, false},
		{"nested ell disjoint", Placement{Piece: "ell", Shape: ell, Anchor: at(0, 1)}, false},
		{"partial overlap", Placement{Piece: "square", Shape: square, Anchor: at(1, 1)}, true},
		{"single shared corner", Placement{Piece: "dot", Shape: dot, Anchor: at(2, 2)}, true},
		{"far apart", Placement{Piece: "dot", Shape: dot, Anchor: at(5, 5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, a))
		})
	}
}

func TestCheckLayout(t *testing.T) {
	b := testutil.MustBoard(t, `
		....
		..O.
	`)
	h2 := line(t, "h2", 2, shape.Horizontal)
	v2 := line(t, "v2", 2, shape.Vertical)

	ok := Layout{
		{Piece: "a", Shape: h2, Anchor: at(0, 0)},
		{Piece: "b", Shape: v2, Anchor: at(0, 3)},
	}
	assert.NoError(t, CheckLayout(b, ok))
	assert.NoError(t, CheckLayout(b, nil))

	clash := Layout{
		{Piece: "a", Shape: h2, Anchor: at(0, 0)},
		{Piece: "b", Shape: v2, Anchor: at(0, 1)},
	}
	err := CheckLayout(b, clash)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlap)
	var oe *OverlapError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "a", oe.A)
	assert.Equal(t, "b", oe.B)
	assert.Equal(t, at(0, 1), oe.Cell)

	onMiss := Layout{{Piece: "a", Shape: h2, Anchor: at(1, 1)}}
	assert.ErrorIs(t, CheckLayout(b, onMiss), ErrIllegalPlacement)

	offBoard := Layout{{Piece: "a", Shape: h2, Anchor: at(0, 3)}}
	assert.ErrorIs(t, CheckLayout(b, offBoard), ErrIllegalPlacement)
}

func TestSetLogWriters(t *testing.T) {
	var ops, diag bytes.Buffer
	SetLogWriters(&ops, &diag, nil)
	defer SetLogWriters(nil, nil, nil)

	opsf("ops %d", 1)
	diagf("diag %d", 2)
	tracef("trace %d", 3)

	stamp := `\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d{6}`
	assert.Regexp(t, `^\[placement\] `+stamp+` ops 1\n$`, ops.String())
	assert.Regexp(t, `^\[placement\] `+stamp+` diag 2\n$`, diag.String())

	SetLogWriters(nil, nil, nil)
	opsf("muted")
	assert.NotContains(t, ops.String(), "muted")
}
