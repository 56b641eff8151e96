package search

import (
	"strings"
	"testing"

	"github.com/brensch/lightcycle/game"
)

func TestIsBetterThan(t *testing.T) {
	mk := func(scores ...float64) *Result { return newResult(scores, 1, false) }
	tests := []struct {
		name string
		a, b *Result
		idx  int
		want bool
	}{
		{"anything beats nil", mk(0, 1), nil, 1, true},
		{"self prefers higher own score", mk(0.6, 0.4), mk(0.5, 0.5), 0, true},
		{"self rejects equal score", mk(0.5, 0.5), mk(0.5, 0.5), 0, false},
		{"opponent prefers lower score for agent 0", mk(0.3, 0.7), mk(0.4, 0.6), 1, true},
		{"opponent rejects higher score for agent 0", mk(0.5, 0.1), mk(0.4, 0.1), 1, false},
		{"opponent breaks ties on own score", mk(0.2, 0.5, 0.3), mk(0.2, 0.3, 0.5), 1, true},
		{"opponent tie loses on own score", mk(0.2, 0.3, 0.5), mk(0.2, 0.5, 0.3), 1, false},
		{"third agent uses its own slot", mk(0.2, 0.3, 0.5), mk(0.2, 0.5, 0.3), 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsBetterThan(tt.b, tt.idx); got != tt.want {
				t.Errorf("IsBetterThan=%v want %v", got, tt.want)
			}
		})
	}
}

func TestResultDirAndString(t *testing.T) {
	r := newResult([]float64{0.5, 0.5}, 2, true)
	if r.Dir() != game.NoDir {
		t.Fatalf("fresh result dir=%s", r.Dir())
	}
	// unwinding attaches innermost moves first
	r.setDir(game.Down, 0)
	r.setDir(game.Left, 1)
	r.setDir(game.Right, 0)
	if r.Dir() != game.Right {
		t.Fatalf("root dir=%s want RIGHT", r.Dir())
	}
	want := "0.500000 0.500000   2+ →↓ ←"
	if got := r.String(); got != want {
		t.Fatalf("String()=%q want %q", got, want)
	}
	if got := newResult([]float64{1}, 0, false).String(); got != "1.000000     " {
		t.Fatalf("depth 0 String()=%q", got)
	}
}

func TestResultsAverages(t *testing.T) {
	var rs Results
	if _, ok := rs.BestDirection(); ok {
		t.Fatalf("empty results picked a direction")
	}

	rs.Add(game.Left, []float64{0.2, 0.8})
	rs.Add(game.Left, []float64{0.6, 0.4})
	rs.Add(game.Down, []float64{0.5, 0.5})
	rs.Add(game.NoDir, []float64{1, 0})
	// unnormalised input is normalised
	rs.Add(game.Up, []float64{1, 3})

	avg, n := rs.Average(game.Left)
	if n != 2 || avg < 0.3999 || avg > 0.4001 {
		t.Fatalf("left avg=%v n=%d", avg, n)
	}
	if avg, n := rs.Average(game.Up); n != 1 || avg != 0.25 {
		t.Fatalf("up avg=%v n=%d", avg, n)
	}
	if best, ok := rs.BestDirection(); !ok || best != game.Down {
		t.Fatalf("best=%s ok=%v want DOWN", best, ok)
	}

	// a direction without leaves never wins, even against low averages
	var low Results
	low.Add(game.Up, []float64{0, 1})
	if best, ok := low.BestDirection(); !ok || best != game.Up {
		t.Fatalf("best=%s ok=%v want UP", best, ok)
	}

	// nobody alive scores zero rather than NaN
	low.Add(game.Right, []float64{0, 0})
	if avg, n := low.Average(game.Right); n != 1 || avg != 0 {
		t.Fatalf("right avg=%v n=%d", avg, n)
	}

	out := rs.String()
	if strings.Count(out, "\n") != 3 || !strings.Contains(out, "–") {
		t.Fatalf("table:\n%s", out)
	}
	rs.Reset()
	if _, ok := rs.BestDirection(); ok {
		t.Fatalf("reset results picked a direction")
	}
}
