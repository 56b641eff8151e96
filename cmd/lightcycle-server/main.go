package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/server"
)

func main() {
	addr := flag.String("addr", getEnvOrDefault("LIGHTCYCLE_ADDR", ":8080"), "Listen address")
	width := flag.Int("width", getEnvIntOrDefault("LIGHTCYCLE_WIDTH", 30), "Default grid width")
	height := flag.Int("height", getEnvIntOrDefault("LIGHTCYCLE_HEIGHT", 20), "Default grid height")
	budgetStr := flag.String("budget", getEnvOrDefault("LIGHTCYCLE_BUDGET", "90ms"), "Per-turn budget")
	depth := flag.Int("depth", getEnvIntOrDefault("LIGHTCYCLE_DEPTH", 4), "Search depth cutoff in plies")
	traceDir := flag.String("trace-dir", getEnvOrDefault("LIGHTCYCLE_TRACE_DIR", ""), "If set, write one decisions parquet file per game")
	levelStr := flag.String("log-level", getEnvOrDefault("LIGHTCYCLE_LOG_LEVEL", "info"), "Log level")
	shutdownWait := flag.Duration("shutdown-wait", getEnvDurationOrDefault("LIGHTCYCLE_SHUTDOWN_WAIT", 5*time.Second), "Grace period for open connections on shutdown")
	flag.Parse()

	budget, err := search.ParseBudget(*budgetStr)
	if err != nil {
		log.Fatalf("Invalid budget: %v", err)
	}
	level, err := logging.ParseLevel(*levelStr)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	cfg := search.DefaultConfig()
	cfg.MaxDepth = *depth

	srv := server.New(server.Config{
		Width:    *width,
		Height:   *height,
		Budget:   budget,
		Search:   cfg,
		TraceDir: *traceDir,
		Logger:   logging.New(os.Stderr, level, false),
	})
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down (active=%d)", srv.Active())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownWait)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on %s (budget %s, depth %d)", *addr, budget, *depth)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
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

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
