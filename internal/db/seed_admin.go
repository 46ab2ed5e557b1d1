package db

import (
	"context"
	"errors"

	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds the bootstrap admin credential on startup when
// configured and absent. The insert and the Admin role link share one
// transaction.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var id int64

	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`,
		cfg.AdminUsername, hash,
	).Scan(&id)

	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = 'Admin'`,
		id,
	)

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
