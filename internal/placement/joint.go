package placement

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/shape"
	"github.com/banshee-data/broadside/internal/timeutil"
)

// Layout is one placement per piece, in piece order, with no two
// placements sharing a cell.
type Layout []Placement

// TruncationReason says why a joint search stopped before exhausting the
// search space.
type TruncationReason int

const (
	ReasonNone TruncationReason = iota
	ReasonMaxLayouts
	ReasonTimeBudget
	ReasonCanceled
)

func (r TruncationReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMaxLayouts:
		return "max_layouts"
	case ReasonTimeBudget:
		return "time_budget"
	case ReasonCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MarshalText encodes the reason token.
func (r TruncationReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome summarises the most recent run of a JointSearch. Zero layouts
// with Truncated false means the pieces cannot all fit: a valid answer,
// not a failure.
type Outcome struct {
	Layouts   int              `json:"layouts"`
	Nodes     int              `json:"nodes"`
	Truncated bool             `json:"truncated"`
	Reason    TruncationReason `json:"reason"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
}

// Option configures a JointSearch.
type Option func(*searchOptions)

type searchOptions struct {
	mode       Mode
	maxLayouts int
	budget     time.Duration
	clock      timeutil.Clock
}

// WithMode selects the legality policy. FullyConsistent requires every hit
// on the board to be covered by the layout.
func WithMode(m Mode) Option {
	return func(o *searchOptions) { o.mode = m }
}

// WithMaxLayouts caps the number of layouts yielded. Zero or negative
// means unlimited.
func WithMaxLayouts(n int) Option {
	return func(o *searchOptions) { o.maxLayouts = n }
}

// WithTimeBudget caps wall time per run. Zero or negative means unlimited.
func WithTimeBudget(d time.Duration) Option {
	return func(o *searchOptions) { o.budget = d }
}

// WithClock replaces the clock used for the time budget.
func WithClock(c timeutil.Clock) Option {
	return func(o *searchOptions) { o.clock = c }
}

// JointSearch enumerates layouts of pieces on a board depth-first, pieces
// in input order, each piece's candidates in orientation then row-major
// anchor order.
//
// A JointSearch is not safe for concurrent runs; Outcome describes the
// last run of Layouts.
type JointSearch struct {
	view    board.View
	pieces  []shape.Piece
	opts    searchOptions
	outcome Outcome
}

// NewJointSearch prepares a search. The board is read when Layouts runs,
// not retained beyond the search value.
func NewJointSearch(v board.View, pieces []shape.Piece, opts ...Option) *JointSearch {
	o := searchOptions{mode: NonConflicting, clock: timeutil.RealClock{}}
	for _, fn := range opts {
		fn(&o)
	}
	if o.clock == nil {
		o.clock = timeutil.RealClock{}
	}
	ps := make([]shape.Piece, len(pieces))
	copy(ps, pieces)
	return &JointSearch{view: v, pieces: ps, opts: o}
}

// Outcome returns the summary of the most recent Layouts run.
func (s *JointSearch) Outcome() Outcome {
	return s.outcome
}

// candidate is a precomputed non-conflicting placement of one piece.
type candidate struct {
	p     Placement
	cells []int
	hits  int
}

// run holds the mutable state of one depth-first pass.
type run struct {
	s          *JointSearch
	ctx        context.Context
	width      int
	candidates [][]candidate
	capacity   []int // capacity[i] = max cells pieces i.. can still cover
	totalHits  int
	occupied   mapset.Set[int]
	explained  int
	chosen     Layout
	start      time.Time
	stopped    bool
}

// Layouts returns the lazy sequence of joint layouts. Each layout slice is
// freshly allocated and owned by the caller. Stopping iteration early is
// not truncation; exhausting a budget is, and is reported by Outcome.
func (s *JointSearch) Layouts(ctx context.Context) iter.Seq[Layout] {
	return func(yield func(Layout) bool) {
		r := s.prepare(ctx)
		switch {
		case s.opts.mode == FullyConsistent && r.totalHits > r.capacity[0]:
			diagf("joint search: %d hits exceed capacity %d of %d pieces", r.totalHits, r.capacity[0], len(s.pieces))
		case len(s.pieces) == 0:
			s.outcome.Layouts = 1
			yield(Layout{})
		default:
			r.place(0, yield)
		}
		s.outcome.Elapsed = s.opts.clock.Since(r.start)
		if s.outcome.Truncated {
			opsf("joint search truncated (%s) after %d layouts, %d nodes", s.outcome.Reason, s.outcome.Layouts, s.outcome.Nodes)
		} else {
			diagf("joint search: %d pieces, %d layouts, %d nodes", len(s.pieces), s.outcome.Layouts, s.outcome.Nodes)
		}
	}
}

func (s *JointSearch) prepare(ctx context.Context) *run {
	if ctx == nil {
		ctx = context.Background()
	}
	s.outcome = Outcome{}
	_, width := s.view.Dims()
	r := &run{
		s:          s,
		ctx:        ctx,
		width:      width,
		candidates: make([][]candidate, len(s.pieces)),
		capacity:   make([]int, len(s.pieces)+1),
		occupied:   mapset.New[int](),
		chosen:     make(Layout, 0, len(s.pieces)),
		start:      s.opts.clock.Now(),
	}

	val := NewValidator(s.view, NonConflicting)
	r.totalHits = val.hits
	for i, piece := range s.pieces {
		for p := range EnumeratePiece(piece, s.view, NonConflicting) {
			covered, _ := val.scan(p)
			c := candidate{p: p, hits: covered, cells: make([]int, 0, p.Shape.Size())}
			p.Each(func(cell board.Coordinate) {
				c.cells = append(c.cells, cell.Row*width+cell.Col)
			})
			r.candidates[i] = append(r.candidates[i], c)
		}
		tracef("piece %d %q: %d candidates", i, piece.Name, len(r.candidates[i]))
	}
	for i := len(s.pieces) - 1; i >= 0; i-- {
		r.capacity[i] = r.capacity[i+1] + s.pieces[i].MaxSize()
	}
	return r
}

// budgetExceeded checks cancellation and the time budget, recording the
// first reason found.
func (r *run) budgetExceeded() bool {
	if err := r.ctx.Err(); err != nil {
		r.truncate(ReasonCanceled)
		return true
	}
	if r.s.opts.budget > 0 && r.s.opts.clock.Since(r.start) > r.s.opts.budget {
		r.truncate(ReasonTimeBudget)
		return true
	}
	return false
}

func (r *run) truncate(reason TruncationReason) {
	r.s.outcome.Truncated = true
	r.s.outcome.Reason = reason
	r.stopped = true
}

// place tries every candidate of piece i that avoids occupied cells and
// recurses. It returns false once the run must stop.
func (r *run) place(i int, yield func(Layout) bool) bool {
	fully := r.s.opts.mode == FullyConsistent
	last := i == len(r.s.pieces)-1

	for _, c := range r.candidates[i] {
		r.s.outcome.Nodes++
		if r.budgetExceeded() {
			return false
		}
		if r.collides(c) {
			continue
		}
		remaining := r.totalHits - r.explained - c.hits
		if fully {
			if last && remaining != 0 {
				continue
			}
			if remaining > r.capacity[i+1] {
				continue
			}
		}

		if last {
			if limit := r.s.opts.maxLayouts; limit > 0 && r.s.outcome.Layouts >= limit {
				r.truncate(ReasonMaxLayouts)
				return false
			}
			r.s.outcome.Layouts++
			out := make(Layout, len(r.chosen)+1)
			copy(out, r.chosen)
			out[len(r.chosen)] = c.p
			if !yield(out) {
				r.stopped = true
				return false
			}
			continue
		}

		r.push(c)
		ok := r.place(i+1, yield)
		r.pop(c)
		if !ok {
			return false
		}
	}
	return !r.stopped
}

func (r *run) collides(c candidate) bool {
	for _, idx := range c.cells {
		if r.occupied.Has(idx) {
			return true
		}
	}
	return false
}

func (r *run) push(c candidate) {
	for _, idx := range c.cells {
		r.occupied.Put(idx)
	}
	r.explained += c.hits
	r.chosen = append(r.chosen, c.p)
}

func (r *run) pop(c candidate) {
	for _, idx := range c.cells {
		r.occupied.Remove(idx)
	}
	r.explained -= c.hits
	r.chosen = r.chosen[:len(r.chosen)-1]
}

// CollectLayouts drains a search into a slice and returns its outcome.
func CollectLayouts(ctx context.Context, s *JointSearch) ([]Layout, Outcome) {
	var out []Layout
	for l := range s.Layouts(ctx) {
		out = append(out, l)
	}
	return out, s.Outcome()
}
