// Command lightcycle plays one game over stdin/stdout: a turn record in, a
// direction word out. Logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brensch/lightcycle/bot"
	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/store"
)

func main() {
	width := flag.Int("width", getEnvIntOrDefault("LIGHTCYCLE_WIDTH", 30), "Grid width")
	height := flag.Int("height", getEnvIntOrDefault("LIGHTCYCLE_HEIGHT", 20), "Grid height")
	budgetStr := flag.String("budget", getEnvOrDefault("LIGHTCYCLE_BUDGET", "90ms"), "Per-turn budget: a duration, an iteration count like 20000i, or unlimited")
	depth := flag.Int("depth", getEnvIntOrDefault("LIGHTCYCLE_DEPTH", 4), "Search depth cutoff in plies")
	policyStr := flag.String("policy", getEnvOrDefault("LIGHTCYCLE_POLICY", "minimax"), "Move policy: minimax or average")
	traceDir := flag.String("trace-dir", getEnvOrDefault("LIGHTCYCLE_TRACE_DIR", ""), "If set, write a decisions parquet file here")
	levelStr := flag.String("log-level", getEnvOrDefault("LIGHTCYCLE_LOG_LEVEL", "info"), "Log level")
	pretty := flag.Bool("pretty", getEnvBoolOrDefault("LIGHTCYCLE_LOG_PRETTY", false), "Indent log lines")
	flag.Parse()

	// stdout carries moves only.
	log.SetOutput(os.Stderr)

	budget, err := search.ParseBudget(*budgetStr)
	if err != nil {
		log.Fatalf("Invalid budget: %v", err)
	}
	policy, err := search.ParsePolicy(*policyStr)
	if err != nil {
		log.Fatalf("Invalid policy: %v", err)
	}
	level, err := logging.ParseLevel(*levelStr)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.New(os.Stderr, level, *pretty)

	cfg := search.DefaultConfig()
	cfg.MaxDepth = *depth
	cfg.Policy = policy

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := bot.Options{
		Width:  *width,
		Height: *height,
		Config: cfg,
		Budget: budget,
		Logger: logger,
	}
	var trace *store.DecisionWriter
	if *traceDir != "" {
		opts.ID = fmt.Sprintf("stdin_%d", os.Getpid())
		trace, err = store.NewDecisionWriter(*traceDir, opts.ID)
		if err != nil {
			log.Fatalf("Failed to open trace: %v", err)
		}
		opts.Recorder = trace
	}
	session := bot.NewSession(opts)
	logger.Info("ready", "session", session.ID, "width", *width, "height", *height, "budget", budget, "depth", *depth, "policy", policy)

	runErr := bot.Run(ctx, os.Stdin, os.Stdout, session)

	if trace != nil {
		path, rows, err := trace.Finalize()
		if err != nil {
			log.Printf("Trace flush failed: %v", err)
		} else if rows > 0 {
			logger.Info("trace written", "path", path, "rows", rows)
		}
	}
	if runErr != nil {
		log.Fatalf("Game aborted: %v", runErr)
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

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
