// Command lightcycle-watch plays self-play matches and animates them in the
// terminal, one after another.
package main

import (
	"context"
	"flag"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/selfplay"
	"github.com/brensch/lightcycle/tui"
)

func main() {
	width := flag.Int("width", 30, "Grid width")
	height := flag.Int("height", 20, "Grid height")
	players := flag.Int("players", 2, "Players per game")
	budgetStr := flag.String("budget", "50ms", "Per-turn budget")
	depth := flag.Int("depth", 4, "Search depth cutoff in plies")
	delay := flag.Duration("delay", 120*time.Millisecond, "Delay between frames")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for start positions")
	flag.Parse()

	budget, err := search.ParseBudget(*budgetStr)
	if err != nil {
		log.Fatalf("Invalid budget: %v", err)
	}
	cfg := search.DefaultConfig()
	cfg.MaxDepth = *depth

	opts := selfplay.Options{
		Width:   *width,
		Height:  *height,
		Players: *players,
		Seed:    *seed,
		Budget:  budget,
		Config:  cfg,
	}
	var matches atomic.Int64
	play := func() *selfplay.Match {
		o := opts
		o.Seed = opts.Seed + matches.Add(1) - 1
		m, err := selfplay.Play(context.Background(), o)
		if err != nil {
			log.Printf("Match failed: %v", err)
			return nil
		}
		return m
	}

	model := tui.New(play(), *delay).WithNext(play)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
