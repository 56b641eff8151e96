package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/selfplay"
)

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/selfplay"), "Output directory for decision and match parquet files")
	workers := flag.Int("workers", getEnvIntOrDefault("WORKERS", runtime.NumCPU()), "Number of self-play workers")
	games := flag.Int64("max-games", int64(getEnvIntOrDefault("MAX_GAMES", 0)), "If > 0, stop after this many games")
	gamesPerFlush := flag.Int("games-per-flush", getEnvIntOrDefault("GAMES_PER_FLUSH", 50), "Games buffered per parquet flush")
	width := flag.Int("width", 30, "Grid width")
	height := flag.Int("height", 20, "Grid height")
	players := flag.Int("players", 2, "Players per game")
	budgetStr := flag.String("budget", getEnvOrDefault("LIGHTCYCLE_BUDGET", "5000i"), "Per-turn budget; iteration budgets keep games reproducible")
	depth := flag.Int("depth", 4, "Search depth cutoff in plies")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Base seed for start positions")
	flag.Parse()

	budget, err := search.ParseBudget(*budgetStr)
	if err != nil {
		log.Fatalf("Invalid budget: %v", err)
	}
	cfg := search.DefaultConfig()
	cfg.MaxDepth = *depth

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := &selfplay.Pool{
		Workers:       *workers,
		Games:         *games,
		OutDir:        *outDir,
		GamesPerFlush: *gamesPerFlush,
		Logger:        logging.New(os.Stderr, slog.LevelWarn, false),
		Options: selfplay.Options{
			Width:   *width,
			Height:  *height,
			Players: *players,
			Seed:    *seed,
			Budget:  budget,
			Config:  cfg,
			Record:  true,
		},
	}

	log.Printf("Starting self-play: workers=%d games=%d budget=%s %dx%d players=%d", *workers, *games, budget, *width, *height, *players)
	updates := make(chan selfplay.Update, *workers)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx, updates)
		close(done)
	}()

	startTime := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			log.Printf("Self-play complete: games=%d turns=%d in %s", pool.Played(), pool.Turns(), time.Since(startTime).Round(time.Second))
			return
		case u := <-updates:
			if u.Err != nil {
				log.Printf("Worker %d: game failed: %v", u.Worker, u.Err)
				continue
			}
			log.Printf("Worker %d: winner %d, turns %d", u.Worker, u.Match.Winner, u.Match.Turns)
		case <-ticker.C:
			secs := time.Since(startTime).Seconds()
			log.Printf("Stats: games/s %.2f, turns/s %.2f", float64(pool.Played())/secs, float64(pool.Turns())/secs)
		}
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}
