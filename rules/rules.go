package rules

import (
	"fmt"
	"math/rand"

	"github.com/brensch/lightcycle/game"
)

// LegalMoves appends to buf the directions player idx can take this turn,
// straight ahead first. Dead players have none.
func LegalMoves(g *game.Game, idx int, buf []game.Dir) []game.Dir {
	p := g.Players[idx]
	if p.Dead {
		return buf
	}
	var cand [4]game.Dir
	for _, d := range p.CandidateDirs(cand[:0]) {
		if g.IsLegalMove(idx, d) {
			buf = append(buf, d)
		}
	}
	return buf
}

// AnyLegal returns the first legal direction for idx, in candidate order.
func AnyLegal(g *game.Game, idx int) (game.Dir, bool) {
	var buf [4]game.Dir
	moves := LegalMoves(g, idx, buf[:0])
	if len(moves) == 0 {
		return game.NoDir, false
	}
	return moves[0], true
}

// ApplyMove is the referee transition for one player's turn. An illegal or
// missing move kills the player and its trail stops blocking. It reports
// whether the player survived.
func ApplyMove(g *game.Game, idx int, d game.Dir) bool {
	p := g.Players[idx]
	if p.Dead {
		return false
	}
	if !d.Valid() || !g.IsLegalMove(idx, d) {
		g.MarkPlayerDead(idx)
		return false
	}
	next := g.PlayerPoint(idx)
	dx, dy := d.Delta()
	next.X += dx
	next.Y += dy
	if err := g.StepPlayer(idx, next); err != nil {
		// IsLegalMove already vetted the target
		panic(fmt.Errorf("apply move %s for %d: %w", d, idx, err))
	}
	return true
}

// IsGameOver returns true once the game is decided.
func IsGameOver(g *game.Game) bool {
	return g.Decided()
}

// Winner returns the last player standing, or -1 while the game runs or when
// nobody survived.
func Winner(g *game.Game) int {
	if !g.Decided() {
		return game.NoPlayer
	}
	for i, p := range g.Players {
		if !p.Dead {
			return i
		}
	}
	return game.NoPlayer
}

// GetResult scores the game for player idx: +1 for a win, -1 for a loss, 0
// while undecided.
func GetResult(g *game.Game, idx int) float32 {
	if !g.Decided() {
		return 0
	}
	if g.Players[idx].Dead {
		return -1
	}
	return 1
}

// RandomStarts picks n distinct start cells on a width*height grid.
func RandomStarts(rng *rand.Rand, width, height, n int) ([]game.Point, error) {
	if n > width*height {
		return nil, fmt.Errorf("%d players on %dx%d grid: %w", n, width, height, game.ErrOffGrid)
	}
	occupied := make(map[game.Point]struct{}, n)
	starts := make([]game.Point, 0, n)
	for len(starts) < n {
		p := game.Point{X: rng.Intn(width), Y: rng.Intn(height)}
		if _, ok := occupied[p]; ok {
			continue
		}
		occupied[p] = struct{}{}
		starts = append(starts, p)
	}
	return starts, nil
}
