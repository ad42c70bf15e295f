package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/childhealth/internal/seed"
	"github.com/okian/childhealth/pkg/logger"
)

// Default configuration constants.
const (
	defaultCount      = 200
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count   = flag.Int("count", defaultCount, "Number of surveys to generate and submit")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Maximum concurrent requests")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedVal = flag.Uint64("seed", 0, "Generator seed (0 = time based)")
		format  = flag.String("log-format", "text", "Log format: text or json")
		verbose = flag.Bool("verbose", false, "Log every submission")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL: *baseURL,
		Count:   *count,
		Workers: *workers,
		Timeout: *timeout,
		Seed:    *seedVal,
		Verbose: *verbose,
	}
	if _, _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
