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
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/geocoder89/hrhub/internal/redisclient"
	"github.com/geocoder89/hrhub/internal/repo/postgres"
	"github.com/geocoder89/hrhub/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// redis day-lock; without it the worker still runs, assuming a
	// single instance
	var lock worker.Locker

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx); err != nil {
		log.Warn("redis unavailable, running without refresh lock", "err", err)
	} else {
		lock = rdb
		defer rdb.Close()
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	employeesRepo := postgres.NewEmployeesRepo(pool, prom)

	w := worker.New(worker.Config{
		PollInterval: time.Minute,
		RunAtHour:    0, // midnight, matching the former cron schedule
	}, employeesRepo, lock, prom, log)

	// side listener for probes + metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", worker.Healthz())
	mux.HandleFunc("/readyz", worker.Readyz(pool, func() bool { return ctx.Err() != nil }))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	probeSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := probeSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("probe listener failed", "err", err)
		}
	}()

	log.Info("age refresh worker started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = probeSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
