// Package fleet describes the set of hidden objects a search runs over:
// named specs for straight objects, and placed rectangular records in the
// objects.json file format.
package fleet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/broadside/internal/config"
	"github.com/banshee-data/broadside/internal/shape"
)

var (
	// ErrInvalidSpec is returned for specs or records that cannot become pieces.
	ErrInvalidSpec = errors.New("invalid fleet entry")
	// ErrIndexOutOfRange is returned by Remove and Replace.
	ErrIndexOutOfRange = errors.New("fleet index out of range")
)

// Spec is one straight object. An empty Orientation allows both.
type Spec struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Orientation string `json:"orientation,omitempty"`
}

// Validate checks the spec can be turned into a piece.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: %q size must be positive, got %d", ErrInvalidSpec, s.Name, s.Size)
	}
	if s.Orientation != "" {
		if _, err := shape.ParseOrientation(s.Orientation); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidSpec, s.Name, err)
		}
	}
	return nil
}

// Piece builds the spec's piece, horizontal before vertical when both are
// allowed.
func (s Spec) Piece() (shape.Piece, error) {
	if err := s.Validate(); err != nil {
		return shape.Piece{}, err
	}
	if s.Orientation == "" {
		return shape.LinePiece(s.Name, s.Size)
	}
	o, _ := shape.ParseOrientation(s.Orientation)
	return shape.LinePiece(s.Name, s.Size, o)
}

// Fleet is a named, ordered list of specs. Search order follows list order.
type Fleet struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Specs []Spec `json:"specs"`
}

// New returns a fleet with a fresh ID.
func New(name string, specs ...Spec) *Fleet {
	return &Fleet{ID: uuid.NewString(), Name: name, Specs: append([]Spec(nil), specs...)}
}

// DefaultSpecs is the standard six-object fleet: sizes 3, 4, 5, 3, 4, 5
// alternating horizontal and vertical.
func DefaultSpecs() []Spec {
	sizes := []int{3, 4, 5, 3, 4, 5}
	out := make([]Spec, len(sizes))
	for i, size := range sizes {
		o := shape.Horizontal
		if i%2 == 1 {
			o = shape.Vertical
		}
		out[i] = Spec{Name: fmt.Sprintf("ship-%d", i+1), Size: size, Orientation: o.String()}
	}
	return out
}

// FromConfig builds a fleet from the configured entries, falling back to
// DefaultSpecs when none are configured.
func FromConfig(cfg *config.EngineConfig) (*Fleet, error) {
	entries := cfg.GetFleet()
	if len(entries) == 0 {
		return New("default", DefaultSpecs()...), nil
	}
	f := New("configured")
	for _, e := range entries {
		if err := f.Add(Spec{Name: e.Name, Size: e.Size, Orientation: e.Orientation}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Validate checks every spec.
func (f *Fleet) Validate() error {
	for i, s := range f.Specs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("spec %d: %w", i, err)
		}
	}
	return nil
}

// Add appends a spec.
func (f *Fleet) Add(s Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.Specs = append(f.Specs, s)
	return nil
}

// Remove deletes the spec at index i.
func (f *Fleet) Remove(i int) error {
	if i < 0 || i >= len(f.Specs) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(f.Specs))
	}
	f.Specs = append(f.Specs[:i], f.Specs[i+1:]...)
	return nil
}

// Replace overwrites the spec at index i.
func (f *Fleet) Replace(i int, s Spec) error {
	if i < 0 || i >= len(f.Specs) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(f.Specs))
	}
	if err := s.Validate(); err != nil {
		return err
	}
	f.Specs[i] = s
	return nil
}

// Pieces converts the specs into pieces in fleet order.
func (f *Fleet) Pieces() ([]shape.Piece, error) {
	out := make([]shape.Piece, 0, len(f.Specs))
	for i, s := range f.Specs {
		p, err := s.Piece()
		if err != nil {
			return nil, fmt.Errorf("spec %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseSpecs reads a comma-separated list of specs. Each item is "size",
// "size:orientation", "name:size" or "name:size:orientation"; unnamed
// items are called ship-N after their position.
func ParseSpecs(list string) ([]Spec, error) {
	var out []Spec
	for i, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		spec := Spec{Name: fmt.Sprintf("ship-%d", i+1)}
		var sizeToken string
		switch len(parts) {
		case 1:
			sizeToken = parts[0]
		case 2:
			if _, err := strconv.Atoi(parts[0]); err == nil {
				sizeToken, spec.Orientation = parts[0], parts[1]
			} else {
				spec.Name, sizeToken = parts[0], parts[1]
			}
		case 3:
			spec.Name, sizeToken, spec.Orientation = parts[0], parts[1], parts[2]
		default:
			return nil, fmt.Errorf("%w: %q has too many fields", ErrInvalidSpec, item)
		}
		size, err := strconv.Atoi(sizeToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %q size is not a number", ErrInvalidSpec, item)
		}
		spec.Size = size
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidSpec)
	}
	return out, nil
}
