package game

import (
	"fmt"
	"strings"
)

// Dir is one of the four moves on the grid.
type Dir int8

// NoDir marks a player (or cell) with no direction yet.
const NoDir Dir = -1

const (
	Left Dir = iota
	Right
	Up
	Down
)

// Dirs lists every direction in canonical order.
var Dirs = [4]Dir{Left, Right, Up, Down}

var opposites = [4]Dir{
	Left:  Right,
	Right: Left,
	Up:    Down,
	Down:  Up,
}

var sides = [4][2]Dir{
	Left:  {Up, Down},
	Right: {Up, Down},
	Up:    {Left, Right},
	Down:  {Left, Right},
}

var dirWords = [4]string{
	Left:  "LEFT",
	Right: "RIGHT",
	Up:    "UP",
	Down:  "DOWN",
}

var dirGlyphs = [4]string{
	Left:  "←",
	Right: "→",
	Up:    "↑",
	Down:  "↓",
}

func (d Dir) Valid() bool {
	return d >= Left && d <= Down
}

// Opposite returns the reverse direction. NoDir maps to NoDir.
func (d Dir) Opposite() Dir {
	if !d.Valid() {
		return NoDir
	}
	return opposites[d]
}

// Sides returns the two directions perpendicular to d.
func (d Dir) Sides() [2]Dir {
	return sides[d]
}

// Delta returns the coordinate change of one step in d.
func (d Dir) Delta() (dx, dy int) {
	switch d {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	}
	return 0, 0
}

// Glyph is the single-character arrow used in board dumps.
func (d Dir) Glyph() string {
	if !d.Valid() {
		return "·"
	}
	return dirGlyphs[d]
}

// String returns the protocol word (LEFT, RIGHT, UP, DOWN).
func (d Dir) String() string {
	if !d.Valid() {
		return "NONE"
	}
	return dirWords[d]
}

// ParseDir parses a protocol word, case-insensitively.
func ParseDir(s string) (Dir, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, w := range dirWords {
		if w == s {
			return Dir(i), nil
		}
	}
	return NoDir, fmt.Errorf("unknown direction %q", s)
}

// DeriveDir returns the direction of a single step from prev to next.
func DeriveDir(prev, next Point) (Dir, error) {
	dx := next.X - prev.X
	dy := next.Y - prev.Y
	switch {
	case dx == -1 && dy == 0:
		return Left, nil
	case dx == 1 && dy == 0:
		return Right, nil
	case dx == 0 && dy == -1:
		return Up, nil
	case dx == 0 && dy == 1:
		return Down, nil
	}
	return NoDir, fmt.Errorf("no single step from (%v) to (%v): %w", prev, next, ErrNotAdjacent)
}
