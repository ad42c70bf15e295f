package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/childhealth/internal/adapters/http/api"
	"github.com/okian/childhealth/internal/adapters/http/site"
	"github.com/okian/childhealth/internal/adapters/http/swagger"
	"github.com/okian/childhealth/internal/adapters/repository"
	app "github.com/okian/childhealth/internal/app"
	"github.com/okian/childhealth/internal/config"
	"github.com/okian/childhealth/pkg/logger"
	"github.com/okian/childhealth/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "service exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn(context.Background(), "record store close failed", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithLogger(log),
		app.WithKV(kv),
		app.WithInferenceLatencyRange(
			time.Duration(cfg.InferenceLatencyMinMS)*time.Millisecond,
			time.Duration(cfg.InferenceLatencyMaxMS)*time.Millisecond,
		),
		app.WithStrictValidation(cfg.StrictValidation),
		app.WithLocation(loc),
		app.WithActivityLimit(cfg.ActivityLimit),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info(context.Background(), "server stopped")
		return nil
	})

	return g.Wait()
}

// openKV selects the record store backend.
func openKV(ctx context.Context, cfg *config.Config) (repository.KV, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		kv, err := repository.NewSQLiteKV(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.StorePath, err)
		}
		logger.Get().Info(ctx, "using sqlite record store", logger.String("path", cfg.StorePath))
		return kv, nil
	default:
		logger.Get().Info(ctx, "using in-memory record store")
		return repository.NewMemoryKV(), nil
	}
}

// newHandler registers every route and wraps the mux in recovery and
// compression middleware.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithActivityLimit(cfg.ActivityLimit))
	apiServer.Register(ctx, mux)

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: logger.Named("http")}),
	)(handlers.CompressHandler(mux))
}

// recoveryLogger adapts the service logger to gorilla's recovery handler.
type recoveryLogger struct {
	log logger.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.log.Error(context.Background(), "panic recovered", logger.String("panic", fmt.Sprint(v...)))
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
