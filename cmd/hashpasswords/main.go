package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/db"
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/geocoder89/hrhub/internal/repo/postgres"
)

// One-time maintenance pass: bcrypt-hash any plaintext password left
// in the users table. Rows already hashed are skipped, so re-running
// is harmless.
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

	usersRepo := postgres.NewUsersRepo(pool, nil)

	updated, err := usersRepo.MigratePasswords(ctx)

	if err != nil {
		log.Error("password migration failed", "updated_before_failure", updated, "err", err)
		os.Exit(1)
	}

	log.Info("password migration complete", "updated", updated)
}
