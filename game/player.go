package game

import "fmt"

// Player is one agent on the board.
type Player struct {
	Start       CellIdx
	Cell        CellIdx
	Dir         Dir
	TrailLength int
	Dead        bool
}

func newPlayer(c CellIdx) *Player {
	return &Player{Start: c, Cell: c, Dir: NoDir, TrailLength: 1}
}

// Step moves the player onto c, heading d.
func (p *Player) Step(c CellIdx, d Dir) error {
	if p.Dead {
		return fmt.Errorf("step %s: %w", d, ErrPlayerDead)
	}
	p.Dir = d
	p.Cell = c
	p.TrailLength++
	return nil
}

// StepBack undoes Step. d is the direction the player had when it entered c,
// read off the grid by the caller.
func (p *Player) StepBack(c CellIdx, d Dir) error {
	if p.Dead {
		return fmt.Errorf("step back: %w", ErrPlayerDead)
	}
	p.Dir = d
	p.Cell = c
	p.TrailLength--
	return nil
}

// CandidateDirs appends the directions worth trying to buf: straight ahead
// first, then the two sides. Before the first move all four are candidates.
// Reversing is never a candidate since the cell behind is always our own trail.
func (p *Player) CandidateDirs(buf []Dir) []Dir {
	if p.Dir == NoDir {
		return append(buf, Dirs[:]...)
	}
	s := p.Dir.Sides()
	return append(buf, p.Dir, s[0], s[1])
}
