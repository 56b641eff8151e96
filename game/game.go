package game

import (
	"errors"
	"fmt"
)

var (
	ErrOffGrid       = errors.New("outside grid")
	ErrOccupied      = errors.New("cell already occupied")
	ErrPlayerDead    = errors.New("player is dead")
	ErrNotAdjacent   = errors.New("not a single step")
	ErrNoDirection   = errors.New("player direction is unset")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrBadInput      = errors.New("inconsistent turn input")
	ErrIndexChanged  = errors.New("player index changed between turns")
)

// TurnInput is one turn record from the referee, in referee order.
type TurnInput struct {
	MyIdx     int
	Starts    []Point
	Positions []Point
}

// Game is the arena: the grid plus the players moving over it. Players are
// stored relative to this process, so index 0 is always our own agent.
type Game struct {
	Grid      *Grid
	Players   []*Player
	DeadCount int

	offset int
}

func New(width, height int) *Game {
	return &Game{Grid: NewGrid(width, height)}
}

// AddPlayer registers a player whose trail starts at p.
func (g *Game) AddPlayer(p Point) error {
	c, err := g.Grid.CellIdx(p)
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	if !g.Grid.IsEmpty(c, g.Players) {
		return fmt.Errorf("add player at (%v): %w", p, ErrOccupied)
	}
	g.Players = append(g.Players, newPlayer(c))
	return g.Grid.MarkTrail(c, len(g.Players)-1, g.Players)
}

func (g *Game) player(i int) (*Player, error) {
	if i < 0 || i >= len(g.Players) {
		return nil, fmt.Errorf("player %d of %d: %w", i, len(g.Players), ErrUnknownPlayer)
	}
	return g.Players[i], nil
}

// StepPlayer applies an authoritative move reported by the referee. Unset
// marks the player dead without moving it.
func (g *Game) StepPlayer(i int, p Point) error {
	pl, err := g.player(i)
	if err != nil {
		return err
	}
	if p.IsUnset() {
		if !pl.Dead {
			g.MarkPlayerDead(i)
		}
		return nil
	}
	if pl.Dead {
		return fmt.Errorf("step player %d: %w", i, ErrPlayerDead)
	}
	c, err := g.Grid.CellIdx(p)
	if err != nil {
		return fmt.Errorf("step player %d: %w", i, err)
	}
	d, err := DeriveDir(g.Grid.Point(pl.Cell), p)
	if err != nil {
		return fmt.Errorf("step player %d: %w", i, err)
	}
	if !g.Grid.IsEmpty(c, g.Players) {
		return fmt.Errorf("step player %d to (%v): %w", i, p, ErrOccupied)
	}
	if err := pl.Step(c, d); err != nil {
		return fmt.Errorf("step player %d: %w", i, err)
	}
	return g.Grid.MarkTrail(c, i, g.Players)
}

// StepFromInput feeds one referee record into the game. The first record
// fixes the rotation so that MyIdx becomes player 0; players that precede us in
// referee order have already moved on that first turn.
func (g *Game) StepFromInput(in TurnInput) error {
	n := len(in.Starts)
	if n == 0 || len(in.Positions) != n {
		return fmt.Errorf("%d starts, %d positions: %w", n, len(in.Positions), ErrBadInput)
	}
	if in.MyIdx < 0 || in.MyIdx >= n {
		return fmt.Errorf("my index %d of %d: %w", in.MyIdx, n, ErrBadInput)
	}

	if len(g.Players) == 0 {
		if err := g.join(in); err != nil {
			g.reset()
			return err
		}
		return nil
	}

	if n != len(g.Players) {
		return fmt.Errorf("%d players reported, %d known: %w", n, len(g.Players), ErrBadInput)
	}
	if in.MyIdx != g.offset {
		return fmt.Errorf("index %d, session started as %d: %w", in.MyIdx, g.offset, ErrIndexChanged)
	}
	for pi := 0; pi < n; pi++ {
		ii := (pi + g.offset) % n
		pos := in.Positions[ii]
		pl := g.Players[pi]
		if pl.Dead && pos.IsUnset() {
			continue
		}
		if !pl.Dead && !pos.IsUnset() && g.Grid.Point(pl.Cell) == pos {
			continue
		}
		if err := g.StepPlayer(pi, pos); err != nil {
			return err
		}
	}
	return nil
}

// join registers every player from the first record. A player reported out
// with an unset start never held a cell: it joins as a dead placeholder.
func (g *Game) join(in TurnInput) error {
	n := len(in.Starts)
	g.offset = in.MyIdx
	for pi := 0; pi < n; pi++ {
		ii := (pi + g.offset) % n
		if in.Starts[ii].IsUnset() {
			g.Players = append(g.Players, &Player{Start: NoCell, Cell: NoCell, Dir: NoDir})
			g.MarkPlayerDead(pi)
			continue
		}
		if err := g.AddPlayer(in.Starts[ii]); err != nil {
			return err
		}
	}
	for pi := 0; pi < n; pi++ {
		ii := (pi + g.offset) % n
		pos := in.Positions[ii]
		switch {
		case g.Players[pi].Dead:
		case pos.IsUnset():
			g.MarkPlayerDead(pi)
		case pi+g.offset < n || pos == in.Starts[ii]:
			// not moved yet this turn
		default:
			if err := g.StepPlayer(pi, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// reset empties the arena after a first record that could not be applied.
func (g *Game) reset() {
	g.Grid = NewGrid(g.Grid.Width, g.Grid.Height)
	g.Players = nil
	g.DeadCount = 0
	g.offset = 0
}

// IsLegalMove reports whether player i can step in direction d.
func (g *Game) IsLegalMove(i int, d Dir) bool {
	c, ok := g.Grid.Shift(d, g.Players[i].Cell)
	return ok && g.Grid.IsEmpty(c, g.Players)
}

// TrySpeculativeMove moves player i one cell in d for search purposes. The
// caller must have checked that the neighbour is on the grid. It returns false,
// leaving everything untouched, when the target cell is occupied. Moving a dead
// player panics.
func (g *Game) TrySpeculativeMove(i int, d Dir) bool {
	pl := g.Players[i]
	c := g.Grid.UnsafeShift(d, pl.Cell)
	if !g.Grid.IsEmpty(c, g.Players) {
		return false
	}
	if err := pl.Step(c, d); err != nil {
		panic(fmt.Errorf("speculative move of player %d: %w", i, err))
	}
	if err := g.Grid.MarkTrail(c, i, g.Players); err != nil {
		panic(err)
	}
	return true
}

// UndoMove reverts the latest TrySpeculativeMove of player i. Calls must
// mirror moves in exact reverse order.
func (g *Game) UndoMove(i int) {
	pl := g.Players[i]
	if pl.Dir == NoDir {
		panic(fmt.Errorf("undo move of player %d: %w", i, ErrNoDirection))
	}
	cur := pl.Cell
	prev := g.Grid.UnsafeShift(pl.Dir.Opposite(), cur)
	g.Grid.UnmarkTrail(cur)
	if err := pl.StepBack(prev, g.Grid.Cell(prev).Dir); err != nil {
		panic(fmt.Errorf("undo move of player %d: %w", i, err))
	}
}

func (g *Game) MarkPlayerDead(i int) {
	g.Players[i].Dead = true
	g.DeadCount++
}

func (g *Game) UnmarkPlayerDead(i int) {
	g.Players[i].Dead = false
	g.DeadCount--
}

func (g *Game) AliveCount() int {
	return len(g.Players) - g.DeadCount
}

// Decided reports whether the game is over: at most one survivor of several
// players, or nobody left in a solo game.
func (g *Game) Decided() bool {
	alive := g.AliveCount()
	if len(g.Players) > 1 {
		return alive <= 1
	}
	return alive == 0
}

// NonEmptyCount is the number of cells held by live trails.
func (g *Game) NonEmptyCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.Dead {
			n += p.TrailLength
		}
	}
	return n
}

func (g *Game) EmptyCount() int {
	return g.Grid.Size - g.NonEmptyCount()
}

// IsPlayerInControl reports whether player i's head was reached first by i in
// the latest initial floodfill.
func (g *Game) IsPlayerInControl(i int) bool {
	if g.Players[i].Cell == NoCell {
		return false
	}
	return g.Grid.Cell(g.Players[i].Cell).ControlledBy == i
}

// Floodfill scores the current board, normalised to sum to 1.
func (g *Game) Floodfill(w FloodWeights, initial bool) []float64 {
	return g.Grid.Floodfill(g.Players, w, initial)
}

// PlayerPoint returns the coordinate of player i's head.
func (g *Game) PlayerPoint(i int) Point {
	return g.Grid.Point(g.Players[i].Cell)
}
