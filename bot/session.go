// Package bot drives the engine for one player over a whole game.
package bot

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/store"
)

// Recorder receives one row per decision. *store.DecisionWriter is one.
type Recorder interface {
	Write(rows ...store.DecisionRow) error
}

type Options struct {
	// ID names the session in traces. A random id is used when empty.
	ID     string
	Width  int
	Height int
	Config search.Config
	// Budget applies to every turn. The zero Budget is TimeBudget(0), which
	// still yields a one-move lookahead.
	Budget search.Budget
	Logger *slog.Logger
	// Recorder, when set, sees every decision.
	Recorder Recorder
}

// Session is one player's view of one game.
type Session struct {
	ID string

	width, height int
	game          *game.Game
	iterator      *search.Iterator
	cfg           search.Config
	budget        search.Budget
	log           *slog.Logger
	recorder      Recorder
}

func NewSession(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Config.MaxDepth == 0 {
		opts.Config = search.DefaultConfig()
	}
	log := opts.Logger.With("session", opts.ID)
	g := game.New(opts.Width, opts.Height)
	return &Session{
		ID:       opts.ID,
		width:    opts.Width,
		height:   opts.Height,
		game:     g,
		iterator: search.NewIterator(g, opts.Config, log),
		cfg:      opts.Config,
		budget:   opts.Budget,
		log:      log,
		recorder: opts.Recorder,
	}
}

func (s *Session) Game() *game.Game { return s.game }

// Decide applies one referee record and searches for our move. The budget
// clock starts before the record is applied.
func (s *Session) Decide(in game.TurnInput) (search.Decision, error) {
	s.iterator.StartTurn(s.budget)
	if err := s.game.StepFromInput(in); err != nil {
		return search.Decision{Dir: game.NoDir}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	dec := s.iterator.FindBestDir()
	if !dec.Found {
		s.log.Warn("no legal move", "turn", dec.Stats.Turn)
	}
	if s.recorder != nil {
		row := store.NewDecisionRow(s.ID, s.width, s.height, in, dec, s.cfg, s.budget)
		if err := s.recorder.Write(row); err != nil {
			s.log.Error("record decision", "err", err)
		}
	}
	return dec, nil
}
