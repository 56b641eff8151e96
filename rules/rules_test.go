package rules

import (
	"math/rand"
	"testing"

	"github.com/brensch/lightcycle/game"
)

func newGame(t *testing.T, w, h int, starts ...game.Point) *game.Game {
	t.Helper()
	g := game.New(w, h)
	for _, p := range starts {
		if err := g.AddPlayer(p); err != nil {
			t.Fatalf("add %v: %v", p, err)
		}
	}
	return g
}

func logGame(t *testing.T, name string, g *game.Game) {
	t.Helper()
	t.Logf("=== %s ===\n%s", name, g.Grid.String())
}

func TestLegalMovesCorner(t *testing.T) {
	g := newGame(t, 3, 3, game.Point{X: 0, Y: 0})
	moves := LegalMoves(g, 0, nil)
	if len(moves) != 2 {
		logGame(t, "corner", g)
		t.Fatalf("moves=%v want RIGHT and DOWN", moves)
	}
	seen := map[game.Dir]bool{}
	for _, d := range moves {
		seen[d] = true
	}
	if !seen[game.Right] || !seen[game.Down] {
		t.Fatalf("moves=%v", moves)
	}
}

func TestLegalMovesStraightFirst(t *testing.T) {
	g := newGame(t, 5, 5, game.Point{X: 1, Y: 2})
	if !ApplyMove(g, 0, game.Right) {
		t.Fatalf("first move failed")
	}
	moves := LegalMoves(g, 0, nil)
	if len(moves) != 3 || moves[0] != game.Right {
		t.Fatalf("moves=%v want RIGHT first of three", moves)
	}
	for _, d := range moves {
		if d == game.Left {
			t.Fatalf("reverse offered: %v", moves)
		}
	}
}

func TestLegalMovesDead(t *testing.T) {
	g := newGame(t, 3, 3, game.Point{X: 1, Y: 1})
	g.MarkPlayerDead(0)
	if moves := LegalMoves(g, 0, nil); len(moves) != 0 {
		t.Fatalf("dead player moves=%v", moves)
	}
	if _, ok := AnyLegal(g, 0); ok {
		t.Fatalf("dead player has a legal move")
	}
}

func TestApplyMoveIllegalKills(t *testing.T) {
	g := newGame(t, 2, 1, game.Point{X: 0, Y: 0}, game.Point{X: 1, Y: 0})
	if ApplyMove(g, 0, game.Right) {
		t.Fatalf("move into opponent survived")
	}
	if !g.Players[0].Dead || !IsGameOver(g) {
		t.Fatalf("player 0 should be dead and the game over")
	}
	if w := Winner(g); w != 1 {
		t.Fatalf("winner=%d want 1", w)
	}
	if GetResult(g, 0) != -1 || GetResult(g, 1) != 1 {
		t.Fatalf("results=%v,%v", GetResult(g, 0), GetResult(g, 1))
	}
	// the dead trail no longer blocks
	if !ApplyMove(g, 1, game.Left) {
		logGame(t, "after death", g)
		t.Fatalf("survivor could not enter dead trail")
	}
}

func TestApplyMoveNoDir(t *testing.T) {
	g := newGame(t, 3, 3, game.Point{X: 1, Y: 1}, game.Point{X: 0, Y: 0})
	if ApplyMove(g, 0, game.NoDir) {
		t.Fatalf("missing move survived")
	}
	if Winner(g) != 1 {
		t.Fatalf("winner=%d", Winner(g))
	}
}

func TestWinnerUndecided(t *testing.T) {
	g := newGame(t, 4, 4, game.Point{X: 0, Y: 0}, game.Point{X: 3, Y: 3})
	if IsGameOver(g) || Winner(g) != game.NoPlayer || GetResult(g, 0) != 0 {
		t.Fatalf("fresh game reported as over")
	}
}

func TestRandomStartsDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	starts, err := RandomStarts(rng, 3, 2, 6)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[game.Point]bool{}
	for _, p := range starts {
		if p.X < 0 || p.X >= 3 || p.Y < 0 || p.Y >= 2 {
			t.Fatalf("start %v off grid", p)
		}
		if seen[p] {
			t.Fatalf("duplicate start %v", p)
		}
		seen[p] = true
	}
	if _, err := RandomStarts(rng, 2, 2, 5); err == nil {
		t.Fatalf("expected error for too many players")
	}
}
