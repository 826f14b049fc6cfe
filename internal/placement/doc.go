// Package placement owns legality, enumeration and joint search of object
// placements on a board.
//
// Responsibilities: validating one anchored shape against a board snapshot
// (Validator, IsLegal), lazily enumerating every legal placement of a shape
// or piece (Enumerate, EnumeratePiece), and depth-first search of
// mutually disjoint joint layouts with a result/time budget (JointSearch).
//
// Key types: Placement, Mode, Layout, JointSearch, Outcome.
//
// Dependency rule: placement may depend on board and shape, never on
// heatmap or any storage/transport package. Boards are only read.
package placement
