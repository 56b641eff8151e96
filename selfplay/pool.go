package selfplay

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/store"
)

// Update reports one finished match to whoever watches the pool.
type Update struct {
	Worker int
	Match  *Match
	Err    error
}

// Pool plays matches on several workers and flushes their traces to parquet.
type Pool struct {
	Workers int
	// Games stops the pool after this many matches. Zero runs until ctx is done.
	Games         int64
	Options       Options
	OutDir        string
	GamesPerFlush int
	Logger        *slog.Logger

	played atomic.Int64
	turns  atomic.Int64
}

func (p *Pool) Played() int64 { return p.played.Load() }
func (p *Pool) Turns() int64  { return p.turns.Load() }

// Run blocks until every worker has stopped and the last flush is written.
// Updates are dropped when nobody is reading them.
func (p *Pool) Run(ctx context.Context, updates chan<- Update) {
	log := p.Logger
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writes := make(chan *Match, p.Workers*4)
	writerDone := make(chan struct{})
	go func() {
		p.writerLoop(log, writes)
		close(writerDone)
	}()

	var next atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				n := next.Add(1)
				if p.Games > 0 && n > p.Games {
					return
				}
				opts := p.Options
				opts.Seed = p.Options.Seed + n
				opts.Logger = log.With("worker", worker)
				m, err := Play(ctx, opts)
				if err != nil && ctx.Err() != nil {
					// unfinished match, not worth keeping
					return
				}
				if err == nil {
					p.played.Add(1)
					p.turns.Add(int64(m.Turns))
					writes <- m
				}
				if updates != nil {
					select {
					case updates <- Update{Worker: worker, Match: m, Err: err}:
					default:
					}
				}
			}
		}(i)
	}
	wg.Wait()
	close(writes)
	<-writerDone
}

func (p *Pool) writerLoop(log *slog.Logger, in <-chan *Match) {
	perFlush := p.GamesPerFlush
	if perFlush <= 0 {
		perFlush = 50
	}
	var decisions []store.DecisionRow
	var matches []store.MatchRow

	flush := func() {
		if len(matches) == 0 || p.OutDir == "" {
			decisions, matches = decisions[:0], matches[:0]
			return
		}
		if len(decisions) > 0 {
			path, err := store.WriteDecisionsParquet(p.OutDir, "selfplay", decisions)
			if err != nil {
				log.Error("decision flush failed", "games", len(matches), "rows", len(decisions), "err", err)
			} else {
				log.Info("decision flush ok", "path", path, "rows", len(decisions))
			}
		}
		path, err := store.WriteMatchesParquet(p.OutDir, matches)
		if err != nil {
			log.Error("match flush failed", "games", len(matches), "err", err)
		} else {
			log.Info("match flush ok", "path", path, "games", len(matches))
		}
		decisions, matches = decisions[:0], matches[:0]
	}

	for m := range in {
		decisions = append(decisions, m.Decisions...)
		matches = append(matches, m.Summary())
		if len(matches) >= perFlush {
			flush()
		}
	}
	flush()
}
