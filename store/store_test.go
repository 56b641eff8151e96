package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/protocol"
	"github.com/brensch/lightcycle/search"
)

func decide(t *testing.T) (game.TurnInput, search.Decision) {
	t.Helper()
	in := game.TurnInput{
		MyIdx:     1,
		Starts:    []game.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		Positions: []game.Point{{X: 1, Y: 0}, {X: 5, Y: 5}},
	}
	g := game.New(8, 8)
	if err := g.StepFromInput(in); err != nil {
		t.Fatal(err)
	}
	it := search.NewIterator(g, search.DefaultConfig(), nil)
	it.StartTurn(search.IterationBudget(100))
	return in, it.FindBestDir()
}

func TestDecisionRowsRoundTrip(t *testing.T) {
	in, dec := decide(t)
	cfg := search.DefaultConfig()
	row := NewDecisionRow("m1", 8, 8, in, dec, cfg, search.IterationBudget(100))
	if row.Move != dec.Dir.String() || len(row.DirAverage) != 4 || len(row.HeadX) != 2 {
		t.Fatalf("row=%+v", row)
	}

	dir := t.TempDir()
	path, err := WriteDecisionsParquet(dir, "m1", []DecisionRow{row, row})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, err := ReadDecisions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d rows", len(got))
	}
	r := got[0]
	if r.MatchID != "m1" || r.Move != row.Move || r.Budget != "100i" || r.Policy != "minimax" {
		t.Fatalf("read back %+v", r)
	}
	if r.Iterations != row.Iterations || r.Depth != row.Depth {
		t.Fatalf("stats iterations=%d depth=%d want %d %d", r.Iterations, r.Depth, row.Iterations, row.Depth)
	}
	back := r.TurnInput()
	if back.MyIdx != 1 || back.Positions[0] != in.Positions[0] || back.Starts[1] != in.Starts[1] {
		t.Fatalf("turn input %+v", back)
	}
}

func TestDecisionRowNoMove(t *testing.T) {
	in := game.TurnInput{MyIdx: 0, Starts: []game.Point{{X: 0, Y: 0}}, Positions: []game.Point{{X: 0, Y: 0}}}
	row := NewDecisionRow("m", 1, 1, in, search.Decision{Dir: game.NoDir}, search.DefaultConfig(), search.Unlimited())
	if row.Move != protocol.NoMove || row.Budget != "unlimited" {
		t.Fatalf("row move=%q budget=%q", row.Move, row.Budget)
	}
}

func TestDecisionWriter(t *testing.T) {
	in, dec := decide(t)
	row := NewDecisionRow("s1", 8, 8, in, dec, search.DefaultConfig(), search.IterationBudget(100))

	dir := t.TempDir()
	w, err := NewDecisionWriter(dir, "s1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		row.Turn = int32(i)
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	path, n, err := w.Finalize()
	if err != nil || n != 3 {
		t.Fatalf("finalize path=%q n=%d err=%v", path, n, err)
	}
	if path != w.OutPath() || filepath.Dir(path) != dir {
		t.Fatalf("published to %q", path)
	}
	rows, err := ReadDecisions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[2].Turn != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if err := w.Write(row); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("write after finalize err=%v", err)
	}
}

func TestDecisionWriterEmpty(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDecisionWriter(dir, "empty")
	if err != nil {
		t.Fatal(err)
	}
	path, n, err := w.Finalize()
	if err != nil || path != "" || n != 0 {
		t.Fatalf("empty finalize path=%q n=%d err=%v", path, n, err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "tmp"))
	if len(entries) != 0 {
		t.Fatalf("tmp dir not cleaned: %v", entries)
	}
}

func TestMatchesRoundTrip(t *testing.T) {
	rows := []MatchRow{
		{MatchID: "a", Width: 30, Height: 20, Players: 2, Turns: 40, Winner: 1, StartX: []int32{1, 2}, StartY: []int32{3, 4}, TrailLength: []int32{40, 41}, Budget: "90ms"},
		{MatchID: "b", Width: 30, Height: 20, Players: 2, Turns: 12, Winner: -1},
	}
	path, err := WriteMatchesParquet(t.TempDir(), rows)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadMatches(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Winner != 1 || got[1].Winner != -1 || got[0].TrailLength[1] != 41 {
		t.Fatalf("read back %+v", got)
	}
}
