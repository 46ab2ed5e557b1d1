package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/hrhub/internal/observability"
)

type EmployeesRefresher interface {
	RefreshAges(ctx context.Context) (int64, error)
}

// Locker is the distributed day-lock; nil means single instance.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Config struct {
	PollInterval time.Duration
	RunAtHour    int // local hour of day for the daily pass, 0 = midnight
}

// Worker recomputes stored employee ages once per calendar day. The
// formula itself lives in the repository; this only owns scheduling.
type Worker struct {
	cfg  Config
	repo EmployeesRefresher
	lock Locker
	prom *observability.Prom
	log  *slog.Logger

	lastDay string
}

func New(cfg Config, repo EmployeesRefresher, lock Locker, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}

	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:  cfg,
		repo: repo,
		lock: lock,
		prom: prom,
		log:  log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			w.tick(ctx, time.Now())
		}
	}
}

// tick runs the daily pass at most once per day, after the configured
// hour has been reached.
func (w *Worker) tick(ctx context.Context, now time.Time) {
	if now.Hour() < w.cfg.RunAtHour {
		return
	}

	day := now.Format("2006-01-02")

	if day == w.lastDay {
		return
	}

	if w.lock != nil {
		acquired, err := w.lock.AcquireLock(ctx, "age_refresh:"+day, 23*time.Hour)

		if err != nil {
			w.log.Error("refresh lock error", "err", err)
			return
		}

		if !acquired {
			// another instance owns today's pass
			w.lastDay = day
			return
		}
	}

	if _, err := w.RunOnce(ctx); err != nil {
		w.log.Error("age refresh failed", "err", err)
		return
	}

	w.lastDay = day
}

func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	run := func() (int64, error) {
		return w.repo.RefreshAges(ctx)
	}

	var rows int64
	var err error

	if w.prom != nil {
		rows, err = w.prom.ObserveRefresh(run)
	} else {
		rows, err = run()
	}

	if err != nil {
		return 0, err
	}

	w.log.Info("employee ages refreshed", "rows", rows)
	return rows, nil
}
