package fleet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/monitoring"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/shape"
)

// Record is a placed rectangular object as stored in objects.json.
// Position is [x, y] with x the row and y the column of the top-left cell.
type Record struct {
	Name     string `json:"name"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	Position [2]int `json:"position"`
}

// Validate checks dimensions are positive and the position non-negative.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	if r.Height <= 0 || r.Width <= 0 {
		return fmt.Errorf("%w: %q dimensions must be positive, got %dx%d", ErrInvalidSpec, r.Name, r.Height, r.Width)
	}
	if r.Position[0] < 0 || r.Position[1] < 0 {
		return fmt.Errorf("%w: %q position must be non-negative, got %v", ErrInvalidSpec, r.Name, r.Position)
	}
	return nil
}

// Shape returns the record's height×width rectangle.
func (r Record) Shape() (shape.Shape, error) {
	if err := r.Validate(); err != nil {
		return shape.Shape{}, err
	}
	return shape.NewRect(r.Name, r.Height, r.Width)
}

// Piece is the record's rectangle as a fixed-orientation piece.
func (r Record) Piece() (shape.Piece, error) {
	s, err := r.Shape()
	if err != nil {
		return shape.Piece{}, err
	}
	return shape.Single(s), nil
}

// Placement anchors the rectangle at the record's position.
func (r Record) Placement() (placement.Placement, error) {
	s, err := r.Shape()
	if err != nil {
		return placement.Placement{}, err
	}
	return placement.Placement{
		Piece:  r.Name,
		Shape:  s,
		Anchor: board.Coordinate{Row: r.Position[0], Col: r.Position[1]},
	}, nil
}

// FromPlacement records a placement by its bounding rectangle.
func FromPlacement(p placement.Placement) Record {
	rows, cols := p.Shape.Bounds()
	return Record{
		Name:     p.Piece,
		Height:   rows,
		Width:    cols,
		Position: [2]int{p.Anchor.Row, p.Anchor.Col},
	}
}

// Layout converts records into a joint layout in record order.
func Layout(records []Record) (placement.Layout, error) {
	out := make(placement.Layout, 0, len(records))
	for i, r := range records {
		p, err := r.Placement()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RecordPieces converts records into fixed-orientation pieces.
func RecordPieces(records []Record) ([]shape.Piece, error) {
	out := make([]shape.Piece, 0, len(records))
	for i, r := range records {
		p, err := r.Piece()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadFile reads records from a JSON file. A missing file is an empty list.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		monitoring.Logf("objects file %s not found; starting empty", path)
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read objects file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse objects file: %w", err)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// SaveFile writes records as indented JSON, replacing the file atomically.
func SaveFile(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode objects: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write objects file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace objects file: %w", err)
	}
	return nil
}

// WriteLayouts writes one "X, Y Coordinates" line per layout listing each
// placement's anchor as (row, col).
func WriteLayouts(w io.Writer, layouts []placement.Layout) error {
	for _, l := range layouts {
		coords := make([]string, len(l))
		for i, p := range l {
			coords[i] = fmt.Sprintf("(%d, %d)", p.Anchor.Row, p.Anchor.Col)
		}
		if _, err := fmt.Fprintf(w, "X, Y Coordinates: [%s]\n", strings.Join(coords, ", ")); err != nil {
			return fmt.Errorf("write layout: %w", err)
		}
	}
	return nil
}
