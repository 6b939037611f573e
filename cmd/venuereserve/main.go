package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/Youmanvi/venuereserve/internal/activities"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/cache"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	migrateOnly := pflag.Bool("migrate", false, "apply the schema and exit")
	pflag.Parse()

	if err := run(*configPath, *migrateOnly); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, migrateOnly bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(&cfg.Observability)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	if migrateOnly {
		logger.Info("schema applied")
		return nil
	}

	tp, err := observability.InitializeTracing(ctx, &cfg.Observability, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownTracing(shutdownCtx, tp); err != nil {
			logger.Error("tracing shutdown failed", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	availability, closeCache, err := cache.NewFromConfig(ctx, &cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to connect availability cache: %w", err)
	}
	defer closeCache()

	eng, err := engine.New(s, &cfg.Engine, engine.Options{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  observability.GetTracer(cfg.App.Name),
		Cache:   availability,
	})
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	if cfg.Observability.MetricsEnabled {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Observability.MetricsPort),
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", err)
			}
		}()
		defer srv.Close()
	}

	registry := activities.NewActivityRegistry(eng)
	logger.Logger.Info().
		Str("store", cfg.Store.SQLiteFile).
		Bool("cache", cfg.Cache.Enabled).
		Int("activities", len(registry.Names())).
		Msg("venuereserve ready")

	if err := registry.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("input closed, shutting down")
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
