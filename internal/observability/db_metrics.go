package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var pgErrClasses = map[string]string{
	"23505": "unique_violation",
	"23503": "fk_violation",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

// ObserveDB times a repository call and counts its failure class.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	}

	return "unknown"
}
