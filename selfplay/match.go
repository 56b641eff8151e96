// Package selfplay referees complete matches between engine sessions.
package selfplay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/lightcycle/bot"
	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/rules"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/store"
)

type Options struct {
	Width   int
	Height  int
	Players int
	// Starts fixes the start cells. When empty they are drawn from Seed.
	Starts []game.Point
	Seed   int64
	Budget search.Budget
	Config search.Config
	// MaxTurns stops a match that outlives it. Zero means width*height.
	MaxTurns int
	// Record keeps every decision row on the Match.
	Record bool
	Logger *slog.Logger
}

// Frame is the board after one full turn, turn 0 being the start.
type Frame struct {
	Turn int
	// Heads per player, game.Unset once out.
	Heads []game.Point
	// Moves each player sent this turn, game.NoDir when it sent none.
	Moves []game.Dir
	Alive int
	Board string
}

type Match struct {
	ID     string
	Width  int
	Height int
	Starts []game.Point
	Budget search.Budget
	Frames []Frame
	Turns  int
	// Winner is the last player standing, -1 for a draw or an unfinished match.
	Winner      int
	TrailLength []int
	Decisions   []store.DecisionRow
}

// rowSink collects the decisions of every seat in a match.
type rowSink struct {
	mu   sync.Mutex
	rows []store.DecisionRow
}

func (s *rowSink) Write(rows ...store.DecisionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *rowSink) all() []store.DecisionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Play runs one match to the end. Each player is a bot session on its own
// goroutine, fed turn records over the line protocol. Players move one after
// another within a turn, each seeing the moves made before it. A player that
// sends an illegal move, or none, is out.
func Play(ctx context.Context, opts Options) (*Match, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	if opts.Config.MaxDepth == 0 {
		opts.Config = search.DefaultConfig()
	}
	starts := opts.Starts
	if len(starts) == 0 {
		var err error
		starts, err = rules.RandomStarts(rand.New(rand.NewSource(opts.Seed)), opts.Width, opts.Height, opts.Players)
		if err != nil {
			return nil, err
		}
	}
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = opts.Width * opts.Height
	}

	m := &Match{
		ID:     uuid.NewString(),
		Width:  opts.Width,
		Height: opts.Height,
		Starts: starts,
		Budget: opts.Budget,
		Winner: game.NoPlayer,
	}
	log = log.With("match", m.ID)

	ref := game.New(opts.Width, opts.Height)
	for _, p := range starts {
		if err := ref.AddPlayer(p); err != nil {
			return nil, fmt.Errorf("match %s: %w", m.ID, err)
		}
	}

	var sink *rowSink
	if opts.Record {
		sink = &rowSink{}
	}
	seats := make([]*seat, len(starts))
	for i := range seats {
		bo := bot.Options{
			ID:     m.ID,
			Width:  opts.Width,
			Height: opts.Height,
			Config: opts.Config,
			Budget: opts.Budget,
			Logger: log.With("player", i),
		}
		if sink != nil {
			bo.Recorder = sink
		}
		seats[i] = sit(ctx, bot.NewSession(bo))
	}

	m.Frames = append(m.Frames, frame(ref, opts.Config.Weights, 0, nil))
	defer func() {
		m.Turns = len(m.Frames) - 1
		m.Winner = rules.Winner(ref)
		for _, p := range ref.Players {
			m.TrailLength = append(m.TrailLength, p.TrailLength)
		}
		if sink != nil {
			m.Decisions = sink.all()
		}
	}()

	err := referee(ctx, m, ref, seats, opts.Config.Weights, maxTurns, log)
	for i, st := range seats {
		if serr := st.leave(); serr != nil && err == nil {
			err = fmt.Errorf("match %s player %d: %w", m.ID, i, serr)
		}
	}
	if err != nil {
		return m, err
	}
	log.Info("match over", "turns", len(m.Frames)-1, "winner", rules.Winner(ref))
	return m, nil
}

// referee runs the turns. Every live player is asked in referee order and
// its answer applied before the next one is asked.
func referee(ctx context.Context, m *Match, ref *game.Game, seats []*seat, w game.FloodWeights, maxTurns int, log *slog.Logger) error {
	for turn := 1; turn <= maxTurns && !rules.IsGameOver(ref); turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		moves := make([]game.Dir, len(seats))
		for i := range moves {
			moves[i] = game.NoDir
		}
		for i, p := range ref.Players {
			if p.Dead {
				continue
			}
			if rules.IsGameOver(ref) {
				break
			}
			d, err := seats[i].ask(turnInput(ref, m.Starts, i))
			if err != nil {
				return fmt.Errorf("match %s turn %d player %d: %w", m.ID, turn, i, err)
			}
			moves[i] = d
			if !rules.ApplyMove(ref, i, d) {
				log.Debug("player out", "turn", turn, "player", i, "move", d.String())
			}
		}
		m.Frames = append(m.Frames, frame(ref, w, turn, moves))
	}
	return nil
}

// turnInput is what the referee sends player me: everyone's start and head
// in referee order, heads unset once out.
func turnInput(ref *game.Game, starts []game.Point, me int) game.TurnInput {
	in := game.TurnInput{
		MyIdx:     me,
		Starts:    starts,
		Positions: make([]game.Point, len(starts)),
	}
	for i, p := range ref.Players {
		if p.Dead {
			in.Positions[i] = game.Unset
			continue
		}
		in.Positions[i] = ref.PlayerPoint(i)
	}
	return in
}

func frame(ref *game.Game, w game.FloodWeights, turn int, moves []game.Dir) Frame {
	f := Frame{Turn: turn, Moves: moves, Alive: ref.AliveCount()}
	for i, p := range ref.Players {
		if p.Dead {
			f.Heads = append(f.Heads, game.Unset)
			continue
		}
		f.Heads = append(f.Heads, ref.PlayerPoint(i))
	}
	if ref.AliveCount() > 0 {
		ref.Floodfill(w, true)
	}
	f.Board = ref.String()
	return f
}

// Summary is the match as a store row.
func (m *Match) Summary() store.MatchRow {
	row := store.MatchRow{
		MatchID:   m.ID,
		CreatedNs: time.Now().UnixNano(),
		Width:     int32(m.Width),
		Height:    int32(m.Height),
		Players:   int32(len(m.Starts)),
		Turns:     int32(m.Turns),
		Winner:    int32(m.Winner),
		Budget:    m.Budget.String(),
	}
	for _, p := range m.Starts {
		row.StartX = append(row.StartX, int32(p.X))
		row.StartY = append(row.StartY, int32(p.Y))
	}
	for _, n := range m.TrailLength {
		row.TrailLength = append(row.TrailLength, int32(n))
	}
	return row
}
