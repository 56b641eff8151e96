package search

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/rules"
)

// Policy selects how the root move is chosen.
type Policy uint8

const (
	// PolicyMinimax follows the Result tree, see Result.IsBetterThan.
	PolicyMinimax Policy = iota
	// PolicyAverage picks the root move with the best average leaf share.
	PolicyAverage
)

func (p Policy) String() string {
	if p == PolicyAverage {
		return "average"
	}
	return "minimax"
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "minimax", "":
		return PolicyMinimax, nil
	case "average":
		return PolicyAverage, nil
	}
	return PolicyMinimax, fmt.Errorf("unknown policy %q", s)
}

// Config holds search configuration
type Config struct {
	// MaxDepth is the number of full plies searched before scoring.
	MaxDepth int
	Weights  game.FloodWeights
	Policy   Policy
}

func DefaultConfig() Config {
	return Config{MaxDepth: 4, Weights: game.DefaultFloodWeights, Policy: PolicyMinimax}
}

// Stats describe the latest turn.
type Stats struct {
	Turn        int
	ResultCount int
	MaxDepth    int
	Iterations  int64
	Elapsed     time.Duration
	TimedOut    int
}

// Decision is the outcome of one FindBestDir call.
type Decision struct {
	Dir   game.Dir
	Found bool
	// Best is the principal leaf under PolicyMinimax comparison, nil when
	// agent 0 was trapped.
	Best    *Result
	Results Results
	// Initial is the floodfill of the board before any simulated move.
	Initial []float64
	Stats   Stats
}

// Iterator searches the moves of every live agent, depth first, mutating the
// game in place and undoing each move on the way back up. It is not safe for
// concurrent use; one Iterator owns one Game.
type Iterator struct {
	game *game.Game
	cfg  Config
	log  *slog.Logger

	// OnResult, when set, sees every scored leaf along with the agent whose
	// move produced it.
	OnResult func(r *Result, idx int)

	meter   meter
	results Results
	rootDir game.Dir

	turns       int
	resultCount int
	depth       int
	maxDepth    int
	timedOut    int
}

func NewIterator(g *game.Game, cfg Config, log *slog.Logger) *Iterator {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	it := &Iterator{game: g, cfg: cfg, log: log, turns: -1}
	it.StartTurn(Unlimited())
	return it
}

func (it *Iterator) Config() Config { return it.cfg }

// StartTurn resets turn statistics and starts the budget clock. Time spent
// between StartTurn and FindBestDir, such as applying the turn input, counts
// against a time budget.
func (it *Iterator) StartTurn(b Budget) {
	it.meter.reset(b)
	it.results.Reset()
	it.rootDir = game.NoDir
	it.resultCount = 0
	it.depth = 0
	it.maxDepth = 0
	it.timedOut = 0
	it.turns++
}

// TimeSpent is the wall-clock time since StartTurn.
func (it *Iterator) TimeSpent() time.Duration {
	return time.Since(it.meter.start)
}

func (it *Iterator) Stats() Stats {
	return Stats{
		Turn:        it.turns,
		ResultCount: it.resultCount,
		MaxDepth:    it.maxDepth,
		Iterations:  it.meter.iterations,
		Elapsed:     it.TimeSpent(),
		TimedOut:    it.timedOut,
	}
}

// FindBestDir searches from the current board for agent 0's move. It always
// expands agent 0 once, so even an exhausted budget yields a direction when
// one is legal.
func (it *Iterator) FindBestDir() Decision {
	g := it.game
	dec := Decision{Dir: game.NoDir}
	if len(g.Players) == 0 || g.Players[0].Dead {
		dec.Stats = it.Stats()
		return dec
	}

	dec.Initial = g.Floodfill(it.cfg.Weights, true)
	it.log.Debug("initial", "result", newResult(append([]float64(nil), dec.Initial...), 0, false).String())

	dec.Best = it.expand(0, it.meter.remaining())
	dec.Results = it.results

	minimax := dec.Best.Dir()
	average, _ := it.results.BestDirection()
	first, second := minimax, average
	if it.cfg.Policy == PolicyAverage {
		first, second = average, minimax
	}
	switch {
	case first.Valid():
		dec.Dir = first
	case second.Valid():
		dec.Dir = second
	default:
		dec.Dir, _ = rules.AnyLegal(g, 0)
	}
	dec.Found = dec.Dir.Valid()
	dec.Stats = it.Stats()
	it.logTurnStats(dec.Stats)
	return dec
}

func (it *Iterator) logTurnStats(s Stats) {
	ms := float64(s.Elapsed) / float64(time.Millisecond)
	perMs := 0.0
	if ms > 0 {
		perMs = float64(s.Iterations) / ms
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	it.log.Info("turn",
		"turn", s.Turn,
		"budget", it.meter.budget.String(),
		"elapsed_ms", fmt.Sprintf("%.0f", ms),
		"iterations_per_ms", fmt.Sprintf("%.0f", perMs),
		"depth", s.MaxDepth,
		"results", s.ResultCount,
		"iterations", s.Iterations,
		"timed_out", s.TimedOut,
		"heap_mb", fmt.Sprintf("%.1f", float64(mem.HeapAlloc)/(1<<20)),
		"sys_mb", fmt.Sprintf("%.1f", float64(mem.Sys)/(1<<20)),
	)
}

// iterate continues the ply with the next live agent at or after idx, or
// closes the ply when everyone has moved.
func (it *Iterator) iterate(idx int, budget int64) *Result {
	players := it.game.Players
	for idx < len(players) && players[idx].Dead {
		idx++
	}
	if idx >= len(players) {
		if budget <= 0 {
			return it.leaf(idx, true)
		}
		it.depth++
		defer func() { it.depth-- }()
		if it.depth >= it.cfg.MaxDepth || it.game.Decided() {
			return it.leaf(idx, false)
		}
		return it.iterate(0, budget)
	}
	if budget <= 0 {
		return it.leaf(idx, true)
	}
	return it.expand(idx, budget)
}

// expand tries every legal direction of agent idx, splitting the budget so
// the i-th of n directions gets remaining/(n-i).
func (it *Iterator) expand(idx int, budget int64) *Result {
	it.meter.iterations++

	var buf [4]game.Dir
	dirs := rules.LegalMoves(it.game, idx, buf[:0])
	if len(dirs) == 0 {
		return it.eliminate(idx, budget)
	}

	var best *Result
	for i, d := range dirs {
		if idx == 0 && it.depth == 0 {
			it.rootDir = d
		}
		start := it.meter.elapsed()
		r := it.step(idx, d, budget/int64(len(dirs)-i))
		r.setDir(d, idx)
		if r.IsBetterThan(best, idx) {
			best = r
		}
		if idx == 0 && it.depth == 0 {
			it.log.Debug("root", "dir", d.String(), "result", r.String())
		}
		budget -= it.meter.elapsed() - start
	}
	return best
}

func (it *Iterator) step(idx int, d game.Dir, budget int64) *Result {
	if !it.game.TrySpeculativeMove(idx, d) {
		panic(fmt.Errorf("legal move %s of player %d refused: %w", d, idx, game.ErrOccupied))
	}
	defer it.game.UndoMove(idx)
	return it.iterate(idx+1, budget)
}

// eliminate handles an agent with no legal move: it is dead for the rest of
// this subtree.
func (it *Iterator) eliminate(idx int, budget int64) *Result {
	it.game.MarkPlayerDead(idx)
	defer it.game.UnmarkPlayerDead(idx)
	if idx == 0 || it.game.Decided() {
		return it.leaf(idx, false)
	}
	return it.iterate(idx+1, budget)
}

func (it *Iterator) leaf(idx int, timedOut bool) *Result {
	if it.depth > it.maxDepth {
		it.maxDepth = it.depth
	}
	it.resultCount++
	if timedOut {
		it.timedOut++
	}
	r := newResult(it.game.Floodfill(it.cfg.Weights, false), it.depth, timedOut)
	it.results.Add(it.rootDir, r.Scores)
	if it.OnResult != nil {
		it.OnResult(r, idx)
	}
	return r
}
