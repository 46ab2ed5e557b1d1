package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/db"
	httpx "github.com/geocoder89/hrhub/internal/http"
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// tracing (best effort: the exporter connects lazily)
	shutdownTracer, err := observability.InitTracer(context.Background(), "hrhub-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed, continuing without tracing", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// database pool
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// bootstrap admin credential
	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)

	if err := db.EnsureAdminUser(seedCtx, pool, cfg); err != nil {
		cancelSeed()
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	cancelSeed()

	// metrics
	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// set up router
	router := httpx.NewRouter(cfg, log, pool, prom, registry)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
