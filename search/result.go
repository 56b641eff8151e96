package search

import (
	"fmt"
	"strings"

	"github.com/brensch/lightcycle/game"
)

// Result is one scored leaf of the search tree, carrying the directions each
// agent took on the way down.
type Result struct {
	// Scores are normalised floodfill scores per agent.
	Scores []float64
	// Dirs holds, per agent, the directions chosen along the path. Innermost
	// move first; the root move is last.
	Dirs     [][]game.Dir
	Depth    int
	TimedOut bool
}

func newResult(scores []float64, depth int, timedOut bool) *Result {
	return &Result{
		Scores:   scores,
		Dirs:     make([][]game.Dir, len(scores)),
		Depth:    depth,
		TimedOut: timedOut,
	}
}

func (r *Result) setDir(d game.Dir, idx int) {
	r.Dirs[idx] = append(r.Dirs[idx], d)
}

// Dir is the first move agent 0 made on this result's path.
func (r *Result) Dir() game.Dir {
	if r == nil || len(r.Dirs) == 0 || len(r.Dirs[0]) == 0 {
		return game.NoDir
	}
	return r.Dirs[0][len(r.Dirs[0])-1]
}

// IsBetterThan decides between siblings at a node where agent idx moves.
// Agent 0 maximises its own score. Every other agent minimises agent 0's score
// and only on an exact tie prefers its own.
func (r *Result) IsBetterThan(that *Result, idx int) bool {
	if that == nil {
		return true
	}
	if idx == 0 {
		return r.Scores[0] > that.Scores[0]
	}
	if r.Scores[0] < that.Scores[0] {
		return true
	}
	if r.Scores[0] == that.Scores[0] {
		return r.Scores[idx] > that.Scores[idx]
	}
	return false
}

// String formats as "scores depth[+] path", paths oldest move first.
func (r *Result) String() string {
	var sb strings.Builder
	for i, s := range r.Scores {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.6f", s)
	}
	depth := ""
	if r.Depth > 0 {
		depth = fmt.Sprint(r.Depth)
	}
	fmt.Fprintf(&sb, " %3s", depth)
	if r.TimedOut {
		sb.WriteByte('+')
	} else {
		sb.WriteByte(' ')
	}
	for _, dirs := range r.Dirs {
		if len(dirs) == 0 {
			continue
		}
		sb.WriteByte(' ')
		for i := len(dirs) - 1; i >= 0; i-- {
			sb.WriteString(dirs[i].Glyph())
		}
	}
	return sb.String()
}

type bucket struct {
	Sum   float64
	Count int
}

// Results averages agent 0's share of every leaf by the root move that led
// to it.
type Results struct {
	buckets [4]bucket
}

func (rs *Results) Reset() {
	rs.buckets = [4]bucket{}
}

// Add records one leaf reached through root direction d.
func (rs *Results) Add(d game.Dir, scores []float64) {
	if !d.Valid() || len(scores) == 0 {
		return
	}
	total := 0.0
	for _, s := range scores {
		total += s
	}
	share := 0.0
	if total > 0 {
		share = scores[0] / total
	}
	b := &rs.buckets[d]
	b.Sum += share
	b.Count++
}

// Average returns the mean share recorded for d and how many leaves it saw.
func (rs *Results) Average(d game.Dir) (float64, int) {
	b := rs.buckets[d]
	if b.Count == 0 {
		return 0, 0
	}
	return b.Sum / float64(b.Count), b.Count
}

// BestDirection picks the direction with the highest average. Directions
// without leaves never win; with no data at all it returns false.
func (rs *Results) BestDirection() (game.Dir, bool) {
	best := game.NoDir
	bestAvg := 0.0
	for _, d := range game.Dirs {
		avg, n := rs.Average(d)
		if n == 0 {
			continue
		}
		if best == game.NoDir || avg > bestAvg {
			best = d
			bestAvg = avg
		}
	}
	return best, best != game.NoDir
}

func (rs *Results) String() string {
	var sb strings.Builder
	for i, d := range game.Dirs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		avg, n := rs.Average(d)
		cell := "–"
		if n > 0 {
			cell = fmt.Sprintf("%.4f", avg)
		}
		fmt.Fprintf(&sb, "%s %6s %8d", d.Glyph(), cell, n)
	}
	return sb.String()
}
