package selfplay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/store"
)

func testOptions() Options {
	return Options{
		Width:   8,
		Height:  8,
		Players: 2,
		Starts:  []game.Point{{X: 1, Y: 1}, {X: 6, Y: 6}},
		Budget:  search.IterationBudget(100),
		Config:  search.DefaultConfig(),
		Record:  true,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestPlayMatch(t *testing.T) {
	m, err := Play(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if m.Turns != len(m.Frames)-1 || m.Turns == 0 {
		t.Fatalf("turns=%d frames=%d", m.Turns, len(m.Frames))
	}
	last := m.Frames[len(m.Frames)-1]
	if last.Alive > 1 && m.Turns < 64 {
		t.Fatalf("match stopped with %d alive after %d turns", last.Alive, m.Turns)
	}
	if m.Winner < -1 || m.Winner > 1 {
		t.Fatalf("winner=%d", m.Winner)
	}

	decisions := 0
	for i := 1; i < len(m.Frames); i++ {
		prev, cur := m.Frames[i-1], m.Frames[i]
		for p := range cur.Heads {
			if cur.Moves[p].Valid() {
				decisions++
			}
			if cur.Heads[p].IsUnset() {
				continue
			}
			if prev.Heads[p].IsUnset() {
				t.Fatalf("turn %d: player %d came back", cur.Turn, p)
			}
			dx, dy := cur.Heads[p].X-prev.Heads[p].X, cur.Heads[p].Y-prev.Heads[p].Y
			if abs(dx)+abs(dy) != 1 {
				t.Logf("\n%s", cur.Board)
				t.Fatalf("turn %d: player %d jumped %v -> %v", cur.Turn, p, prev.Heads[p], cur.Heads[p])
			}
		}
	}
	if len(m.Decisions) < decisions {
		t.Fatalf("recorded %d decisions, saw %d moves", len(m.Decisions), decisions)
	}
	for _, d := range m.Decisions {
		if d.MatchID != m.ID || d.Players != 2 {
			t.Fatalf("decision row %+v", d)
		}
	}

	sum := m.Summary()
	if sum.MatchID != m.ID || sum.Turns != int32(m.Turns) || len(sum.TrailLength) != 2 {
		t.Fatalf("summary %+v", sum)
	}
}

func TestPlayDeterministic(t *testing.T) {
	a, err := Play(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Play(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Frames) != len(b.Frames) || a.Winner != b.Winner {
		t.Fatalf("frames %d vs %d, winner %d vs %d", len(a.Frames), len(b.Frames), a.Winner, b.Winner)
	}
	for i := range a.Frames {
		for p := range a.Frames[i].Heads {
			if a.Frames[i].Heads[p] != b.Frames[i].Heads[p] {
				t.Fatalf("turn %d player %d: %v vs %v", i, p, a.Frames[i].Heads[p], b.Frames[i].Heads[p])
			}
		}
	}
}

func TestPlaySolo(t *testing.T) {
	opts := testOptions()
	opts.Players = 1
	opts.Starts = []game.Point{{X: 0, Y: 0}}
	opts.Width, opts.Height = 4, 4
	m, err := Play(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	// a lone cycle on 4x4 can fill at most 16 cells
	if m.Turns > 16 || m.TrailLength[0] > 16 {
		t.Fatalf("turns=%d trail=%d", m.Turns, m.TrailLength[0])
	}
	if m.Frames[1].Moves[0] != game.Right && m.Frames[1].Moves[0] != game.Down {
		t.Fatalf("first move %s", m.Frames[1].Moves[0])
	}
}

func TestPlayRandomStarts(t *testing.T) {
	opts := testOptions()
	opts.Starts = nil
	opts.Players = 3
	opts.Seed = 42
	opts.MaxTurns = 5
	m, err := Play(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Starts) != 3 || m.Turns > 5 {
		t.Fatalf("starts=%v turns=%d", m.Starts, m.Turns)
	}
}

func TestPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := Play(ctx, testOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if m == nil || m.Turns != 0 {
		t.Fatalf("cancelled match %+v", m)
	}
}

func TestPoolWritesParquet(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.Width, opts.Height = 6, 6
	opts.Starts = nil
	opts.Budget = search.IterationBudget(30)
	p := &Pool{Workers: 2, Games: 3, Options: opts, OutDir: dir, GamesPerFlush: 2}

	updates := make(chan Update, 8)
	p.Run(context.Background(), updates)
	if p.Played() != 3 {
		t.Fatalf("played=%d", p.Played())
	}
	close(updates)
	n := 0
	for u := range updates {
		if u.Err != nil {
			t.Fatalf("worker %d: %v", u.Worker, u.Err)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("updates=%d", n)
	}

	files, err := filepath.Glob(filepath.Join(dir, "matches_*.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, f := range files {
		rows, err := store.ReadMatches(f)
		if err != nil {
			t.Fatal(err)
		}
		total += len(rows)
	}
	if total != 3 {
		t.Fatalf("match rows=%d in %d files", total, len(files))
	}
	decisionFiles, _ := filepath.Glob(filepath.Join(dir, "decisions_*.parquet"))
	if len(decisionFiles) == 0 {
		t.Fatalf("no decision files")
	}
}
