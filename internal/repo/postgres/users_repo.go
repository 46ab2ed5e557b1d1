package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/hrhub/internal/domain/user"
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/geocoder89/hrhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrUniqueViolation = "23505"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// GetByUsername returns the credential together with its aggregated
// role set, the shape login needs in one round trip.
func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_username", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT u.id,
				u.username,
				u.password,
				COALESCE(ARRAY_AGG(r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
			FROM users u
			LEFT JOIN user_roles ur ON ur.user_id = u.id
			LEFT JOIN roles r ON ur.role_id = r.id
			WHERE u.username = $1
			GROUP BY u.id`,
			username,
		).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.Roles,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT u.id,
				u.username,
				COALESCE(ARRAY_AGG(r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
			FROM users u
			LEFT JOIN user_roles ur ON ur.user_id = u.id
			LEFT JOIN roles r ON ur.role_id = r.id
			GROUP BY u.id
			ORDER BY u.id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]user.User, 0)

		for rows.Next() {
			var u user.User

			if err := rows.Scan(&u.ID, &u.Username, &u.Roles); err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Create inserts the user and its role links in one transaction so a
// failed link insert never leaves a role-less user behind.
func (r *UsersRepo) Create(ctx context.Context, username, passwordHash string, roles []string) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		var exists bool

		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
			username,
		).Scan(&exists)

		if err != nil {
			return err
		}

		if exists {
			return user.ErrUsernameTaken
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id, username`,
			username, passwordHash,
		).Scan(&u.ID, &u.Username)

		if err != nil {
			var pgErr *pgconn.PgError

			// concurrent create with the same username
			if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
				return user.ErrUsernameTaken
			}

			return err
		}

		if err := insertRoleLinks(ctx, tx, u.ID, roles); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return user.User{}, err
	}

	u.Roles = roles
	return u, nil
}

// SetRoles replaces the full role set. Delete and re-insert run in one
// transaction: a partway failure rolls back to the previous links.
func (r *UsersRepo) SetRoles(ctx context.Context, userID int64, roles []string) error {
	return r.observe("users.set_roles", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)

		if err != nil {
			return err
		}

		if err := insertRoleLinks(ctx, tx, userID, roles); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// insertRoleLinks queues one link insert per role name in a single
// batch; unknown role names insert nothing for that entry.
func insertRoleLinks(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	batch := &pgx.Batch{}

	for _, role := range roles {
		batch.Queue(
			`INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2`,
			userID, role,
		)
	}

	br := tx.SendBatch(ctx, batch)

	for range roles {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}

	return br.Close()
}

// MigratePasswords hashes every stored plaintext password, skipping
// values already in bcrypt format. Safe to run repeatedly.
func (r *UsersRepo) MigratePasswords(ctx context.Context) (updated int, err error) {
	type row struct {
		id       int64
		password string
	}

	var pending []row

	err = r.observe("users.migrate_passwords.scan", func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, password FROM users ORDER BY id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var rec row

			if err := rows.Scan(&rec.id, &rec.password); err != nil {
				return err
			}

			if security.IsHashed(rec.password) {
				continue
			}

			pending = append(pending, rec)
		}

		return rows.Err()
	})

	if err != nil {
		return 0, err
	}

	for _, rec := range pending {
		hash, err := security.HashPassword(rec.password)

		if err != nil {
			return updated, err
		}

		err = r.observe("users.migrate_passwords.update", func() error {
			_, err := r.pool.Exec(ctx,
				`UPDATE users SET password = $1 WHERE id = $2`,
				hash, rec.id,
			)
			return err
		})

		if err != nil {
			return updated, err
		}

		updated++
	}

	return updated, nil
}
