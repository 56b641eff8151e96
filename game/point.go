// Package game holds the mutable board model the search walks over.
//
// A Game owns a flat Grid of cells and the list of players. Every mutation made
// during search has an exact inverse (TrySpeculativeMove/UndoMove,
// MarkPlayerDead/UnmarkPlayerDead), so callers can explore a position in place
// without cloning it. Mutations must be undone in strict LIFO order.
package game

import "fmt"

// Point is a board coordinate. (0,0) is the top-left cell and y grows downwards.
type Point struct {
	X int
	Y int
}

// Unset is the coordinate the referee reports for a player that has left the game.
var Unset = Point{X: -1, Y: -1}

func (p Point) IsUnset() bool {
	return p.X == -1 && p.Y == -1
}

func (p Point) String() string {
	return fmt.Sprintf("%d, %d", p.X, p.Y)
}

// CellIdx is the grid-local index of a cell: y*width + x.
type CellIdx int

// NoCell is returned where no cell exists.
const NoCell CellIdx = -1
