package game

import (
	"fmt"
	"strconv"
	"strings"
)

// NoPlayer marks a cell that no trail or floodfill owns.
const NoPlayer = -1

type trailMark struct {
	owner int
	dir   Dir
}

// Cell is one square of the grid.
//
// TrailOf/Dir describe the trail currently occupying the cell. When a live
// player claims a cell left behind by a dead player, the dead trail is pushed
// onto the cell's undo stack so UnmarkTrail can restore it.
//
// Owner, Distance and Epoch are floodfill scratch. They are only meaningful
// when Epoch equals the grid's current floodfill epoch.
type Cell struct {
	TrailOf int
	Dir     Dir

	deadTrails []trailMark

	ControlledBy int
	Owner        int
	Distance     int
	Epoch        uint32
}

func (c *Cell) markDistance(owner, distance int, epoch uint32, initial bool) {
	if initial {
		c.ControlledBy = owner
	}
	c.Owner = owner
	c.Distance = distance
	c.Epoch = epoch
}

// FloodWeights are the leaf-scoring tunables used by Floodfill.
type FloodWeights struct {
	// Open is the base score of every cell reached by a player.
	Open float64
	// Contested is subtracted per neighbour already reached by another player.
	Contested float64
	// Consolidated is added per neighbour already reached by the same player.
	Consolidated float64
	// Survival is multiplied by a live player's trail length once, at seed time.
	Survival float64
}

// DefaultFloodWeights are the weights the engine ships with.
var DefaultFloodWeights = FloodWeights{Open: 4, Contested: 1, Consolidated: 1, Survival: 6}

// Grid is a width*height board stored as a flat slice.
type Grid struct {
	Width  int
	Height int
	Size   int

	cells []Cell

	epoch uint32
	queue []CellIdx
}

func NewGrid(width, height int) *Grid {
	size := width * height
	g := &Grid{
		Width:  width,
		Height: height,
		Size:   size,
		cells:  make([]Cell, size),
		queue:  make([]CellIdx, size),
	}
	for i := range g.cells {
		g.cells[i] = Cell{TrailOf: NoPlayer, Dir: NoDir, ControlledBy: NoPlayer, Owner: NoPlayer, Distance: -1}
	}
	return g
}

func (g *Grid) OnGrid(p Point) bool {
	return 0 <= p.X && p.X < g.Width && 0 <= p.Y && p.Y < g.Height
}

// CellIdx converts a coordinate to a cell index.
func (g *Grid) CellIdx(p Point) (CellIdx, error) {
	if !g.OnGrid(p) {
		return NoCell, fmt.Errorf("cell (%v) outside %dx%d grid: %w", p, g.Width, g.Height, ErrOffGrid)
	}
	return CellIdx(p.Y*g.Width + p.X), nil
}

func (g *Grid) Point(c CellIdx) Point {
	return Point{X: int(c) % g.Width, Y: int(c) / g.Width}
}

// Shift returns the neighbour of c in direction d, or false at the grid edge.
func (g *Grid) Shift(d Dir, c CellIdx) (CellIdx, bool) {
	x := int(c) % g.Width
	y := int(c) / g.Width
	switch d {
	case Left:
		x--
		if x < 0 {
			return NoCell, false
		}
	case Right:
		x++
		if x >= g.Width {
			return NoCell, false
		}
	case Up:
		y--
		if y < 0 {
			return NoCell, false
		}
	case Down:
		y++
		if y >= g.Height {
			return NoCell, false
		}
	default:
		return NoCell, false
	}
	return CellIdx(y*g.Width + x), true
}

// UnsafeShift is Shift without bounds checks. The caller must already know the
// neighbour exists; off-grid results are meaningless.
func (g *Grid) UnsafeShift(d Dir, c CellIdx) CellIdx {
	switch d {
	case Left:
		return c - 1
	case Right:
		return c + 1
	case Up:
		return c - CellIdx(g.Width)
	default:
		return c + CellIdx(g.Width)
	}
}

func (g *Grid) Cell(c CellIdx) *Cell {
	return &g.cells[c]
}

// Epoch is the current floodfill generation.
func (g *Grid) Epoch() uint32 {
	return g.epoch
}

// IsEmpty reports whether c can be entered: unowned, or owned by a dead player.
func (g *Grid) IsEmpty(c CellIdx, players []*Player) bool {
	return isEmptyCell(&g.cells[c], players)
}

func isEmptyCell(c *Cell, players []*Player) bool {
	return c.TrailOf == NoPlayer || players[c.TrailOf].Dead
}

// MarkTrail claims c for players[owner], recording the player's current
// direction on the cell. A dead player's trail underneath is kept for
// UnmarkTrail.
func (g *Grid) MarkTrail(c CellIdx, owner int, players []*Player) error {
	cell := &g.cells[c]
	if !isEmptyCell(cell, players) {
		return fmt.Errorf("mark (%v) for player %d, held by %d: %w", g.Point(c), owner, cell.TrailOf, ErrOccupied)
	}
	if cell.TrailOf != NoPlayer {
		cell.deadTrails = append(cell.deadTrails, trailMark{owner: cell.TrailOf, dir: cell.Dir})
	}
	cell.TrailOf = owner
	cell.Dir = players[owner].Dir
	return nil
}

// UnmarkTrail is the exact inverse of MarkTrail.
func (g *Grid) UnmarkTrail(c CellIdx) {
	cell := &g.cells[c]
	if n := len(cell.deadTrails); n > 0 {
		prev := cell.deadTrails[n-1]
		cell.deadTrails = cell.deadTrails[:n-1]
		cell.TrailOf = prev.owner
		cell.Dir = prev.dir
		return
	}
	cell.TrailOf = NoPlayer
	cell.Dir = NoDir
}

// Territory runs a multi-source BFS from every live player's head and returns
// each player's raw territory score. Players are seeded in index order, so on
// equal distance the lower index claims the cell. With initial set, the owner of
// every reached cell is also recorded in Cell.ControlledBy.
func (g *Grid) Territory(players []*Player, w FloodWeights, initial bool) []float64 {
	g.epoch++
	epoch := g.epoch
	queue := g.queue
	scores := make([]float64, len(players))

	begin, end := 0, 0
	for i, p := range players {
		if p.Dead {
			continue
		}
		scores[i] += float64(p.TrailLength) * w.Survival
		g.cells[p.Cell].markDistance(i, 0, epoch, initial)
		queue[end] = p.Cell
		end++
	}

	for begin < end {
		idx := queue[begin]
		begin++
		cell := &g.cells[idx]
		score := w.Open
		for _, d := range Dirs {
			n, ok := g.Shift(d, idx)
			if !ok {
				continue
			}
			c := &g.cells[n]
			if !isEmptyCell(c, players) {
				continue
			}
			if c.Epoch == epoch {
				if c.Owner != cell.Owner {
					score -= w.Contested
				} else {
					score += w.Consolidated
				}
				continue
			}
			c.markDistance(cell.Owner, cell.Distance+1, epoch, initial)
			queue[end] = n
			end++
		}
		scores[cell.Owner] += score
	}
	return scores
}

// Floodfill is Territory normalised so the scores sum to 1. When nobody is
// alive every score is 0.
func (g *Grid) Floodfill(players []*Player, w FloodWeights, initial bool) []float64 {
	return Normalize(g.Territory(players, w, initial))
}

// Normalize divides every score by the total in place and returns the slice.
func Normalize(scores []float64) []float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		for i := range scores {
			scores[i] = 0
		}
		return scores
	}
	for i := range scores {
		scores[i] /= total
	}
	return scores
}

// String dumps one character per cell: blank when empty, the owner's index on
// a start cell, the trail's arrow glyph otherwise.
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := &g.cells[y*g.Width+x]
			switch {
			case c.TrailOf == NoPlayer:
				sb.WriteByte(' ')
			case c.Dir == NoDir:
				sb.WriteString(strconv.Itoa(c.TrailOf))
			default:
				sb.WriteString(c.Dir.Glyph())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
