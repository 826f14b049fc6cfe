package fleet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/config"
	"github.com/banshee-data/broadside/internal/monitoring"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/shape"
)

func TestSpec_Piece(t *testing.T) {
	p, err := Spec{Name: "a", Size: 3}.Piece()
	require.NoError(t, err)
	assert.Len(t, p.Orientations, 2)

	p, err = Spec{Name: "b", Size: 4, Orientation: "v"}.Piece()
	require.NoError(t, err)
	require.Len(t, p.Orientations, 1)
	rows, cols := p.Orientations[0].Bounds()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 1, cols)

	// A single cell has one orientation after dedup.
	p, err = Spec{Name: "c", Size: 1}.Piece()
	require.NoError(t, err)
	assert.Len(t, p.Orientations, 1)
}

func TestSpec_Validate(t *testing.T) {
	assert.ErrorIs(t, Spec{Size: 2}.Validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Spec{Name: "a", Size: 0}.Validate(), ErrInvalidSpec)
	err := Spec{Name: "a", Size: 2, Orientation: "diagonal"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidSpec)
	assert.ErrorIs(t, err, shape.ErrUnknownOrientation)
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 6)
	sizes := make([]int, len(specs))
	for i, s := range specs {
		sizes[i] = s.Size
	}
	assert.Equal(t, []int{3, 4, 5, 3, 4, 5}, sizes)
	assert.Equal(t, "horizontal", specs[0].Orientation)
	assert.Equal(t, "vertical", specs[5].Orientation)
}

func TestFromConfig(t *testing.T) {
	f, err := FromConfig(config.EmptyEngineConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultSpecs(), f.Specs)
	_, err = uuid.Parse(f.ID)
	assert.NoError(t, err)

	f, err = FromConfig(&config.EngineConfig{Fleet: []config.FleetEntry{{Name: "x", Size: 2}}})
	require.NoError(t, err)
	assert.Equal(t, []Spec{{Name: "x", Size: 2}}, f.Specs)

	_, err = FromConfig(&config.EngineConfig{Fleet: []config.FleetEntry{{Name: "x", Size: -1}}})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	f, err = FromConfig(config.MustLoadDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultSpecs(), f.Specs)
}

func TestFleet_Editing(t *testing.T) {
	f := New("test", Spec{Name: "a", Size: 2})
	require.NoError(t, f.Add(Spec{Name: "b", Size: 3}))
	require.NoError(t, f.Add(Spec{Name: "c", Size: 4}))
	assert.ErrorIs(t, f.Add(Spec{Name: "bad"}), ErrInvalidSpec)

	require.NoError(t, f.Remove(1))
	assert.Equal(t, []Spec{{Name: "a", Size: 2}, {Name: "c", Size: 4}}, f.Specs)

	require.NoError(t, f.Replace(0, Spec{Name: "z", Size: 5, Orientation: "h"}))
	assert.Equal(t, "z", f.Specs[0].Name)

	assert.ErrorIs(t, f.Remove(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.Remove(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.Replace(5, Spec{Name: "q", Size: 1}), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.Replace(0, Spec{Name: "q"}), ErrInvalidSpec)
	assert.NoError(t, f.Validate())

	pieces, err := f.Pieces()
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, "z", pieces[0].Name)
	assert.Equal(t, 4, pieces[1].MaxSize())
}

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs("3, 4:v, cruiser:5, sub:2:horizontal")
	require.NoError(t, err)
	assert.Equal(t, []Spec{
		{Name: "ship-1", Size: 3},
		{Name: "ship-2", Size: 4, Orientation: "v"},
		{Name: "cruiser", Size: 5},
		{Name: "sub", Size: 2, Orientation: "horizontal"},
	}, specs)

	for _, bad := range []string{"", " , ", "x", "a:b:c:d", "3:diagonal", "a:0"} {
		_, err := ParseSpecs(bad)
		assert.ErrorIs(t, err, ErrInvalidSpec, bad)
	}
}

func TestRecord_Placement(t *testing.T) {
	r := Record{Name: "a", Height: 1, Width: 3, Position: [2]int{2, 1}}
	p, err := r.Placement()
	require.NoError(t, err)
	assert.Equal(t, board.Coordinate{Row: 2, Col: 1}, p.Anchor)
	assert.Equal(t, []board.Coordinate{{Row: 2, Col: 1}, {Row: 2, Col: 2}, {Row: 2, Col: 3}}, p.Cells())
	assert.Equal(t, r, FromPlacement(p))

	_, err = Record{Name: "a", Height: 0, Width: 1}.Placement()
	assert.ErrorIs(t, err, ErrInvalidSpec)
	_, err = Record{Name: "a", Height: 1, Width: 1, Position: [2]int{-1, 0}}.Placement()
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestLayout_CheckedAgainstBoard(t *testing.T) {
	b, err := board.New(4, 4)
	require.NoError(t, err)
	records := []Record{
		{Name: "a", Height: 1, Width: 3, Position: [2]int{0, 0}},
		{Name: "b", Height: 2, Width: 2, Position: [2]int{0, 2}},
	}
	l, err := Layout(records)
	require.NoError(t, err)
	assert.ErrorIs(t, placement.CheckLayout(b, l), placement.ErrOverlap)

	records[1].Position = [2]int{1, 2}
	l, err = Layout(records)
	require.NoError(t, err)
	assert.NoError(t, placement.CheckLayout(b, l))

	pieces, err := RecordPieces(records)
	require.NoError(t, err)
	assert.Len(t, pieces, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(nil)

	records, err := LoadFile(filepath.Join(t.TempDir(), "objects.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.json")
	records := []Record{
		{Name: "a", Height: 1, Width: 3, Position: [2]int{0, 0}},
		{Name: "b", Height: 4, Width: 1, Position: [2]int{2, 5}},
	}
	require.NoError(t, SaveFile(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"position": [`)

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestLoadFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err := LoadFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"name":"a","height":0,"width":1,"position":[0,0]}]`), 0o644))
	_, err = LoadFile(invalid)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestWriteLayouts(t *testing.T) {
	b, err := board.New(1, 2)
	require.NoError(t, err)
	dots := shape.Singles(shape.MustNew("a", shape.Offset{}), shape.MustNew("b", shape.Offset{}))
	layouts, _ := placement.CollectLayouts(context.Background(), placement.NewJointSearch(b, dots))

	var buf bytes.Buffer
	require.NoError(t, WriteLayouts(&buf, layouts))
	assert.Equal(t,
		"X, Y Coordinates: [(0, 0), (0, 1)]\nX, Y Coordinates: [(0, 1), (0, 0)]\n",
		buf.String())
}
