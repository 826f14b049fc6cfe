// Package shape owns object footprints: the relative cells one object
// covers in one orientation, and the pieces that group a name with its
// allowed orientations.
//
// Key types: Shape, Offset, Orientation, Piece.
//
// Dependency rule: shape depends on nothing else in this module. Board
// coordinates live in package board; package placement joins the two.
package shape
