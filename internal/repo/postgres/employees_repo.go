package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/hrhub/internal/domain/employee"
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// age is derived from date_of_birth at read time; the stored column
// only exists for the daily refresh and reporting queries.
const employeeColumns = `id,
	last_name,
	first_name,
	COALESCE(middle_name, '') AS middle_name,
	COALESCE(suffix, '') AS suffix,
	COALESCE(designation, '') AS designation,
	COALESCE(office, '') AS office,
	sex,
	date_of_birth,
	full_name,
	EXTRACT(YEAR FROM AGE(date_of_birth))::int AS age,
	status,
	resignation_date`

type EmployeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEmployeesRepo(pool *pgxpool.Pool, prom *observability.Prom) *EmployeesRepo {
	return &EmployeesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EmployeesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EmployeesRepo) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	e := employee.NewFromCreateRequest(req)

	var created employee.Employee

	err := r.observe("employees.create", func() error {
		row := r.pool.QueryRow(ctx,
			`INSERT INTO employees
			(last_name, first_name, middle_name, suffix, designation, office, sex, date_of_birth, full_name, age, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+employeeColumns,
			e.LastName,
			e.FirstName,
			e.MiddleName,
			e.Suffix,
			e.Designation,
			e.Office,
			e.Sex,
			e.DateOfBirth,
			e.FullName,
			e.Age,
			e.Status,
		)

		var err error
		created, err = scanEmployee(row)
		return err
	})

	if err != nil {
		return employee.Employee{}, err
	}

	return created, nil
}

func (r *EmployeesRepo) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`

	var args []interface{}

	// exact status match when the filter is supplied
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}

	query += ` ORDER BY id ASC`

	var out []employee.Employee

	err := r.observe("employees.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]employee.Employee, 0)

		for rows.Next() {
			e, err := scanEmployee(rows)

			if err != nil {
				return err
			}

			out = append(out, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *EmployeesRepo) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	var e employee.Employee

	err := r.observe("employees.get_by_id", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

		var err error
		e, err = scanEmployee(row)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}

		return employee.Employee{}, err
	}

	return e, nil
}

// SetStatus is a pure status overwrite for administrative correction;
// it never touches resignation_date.
func (r *EmployeesRepo) SetStatus(ctx context.Context, id int64, status string) (employee.Employee, error) {
	var e employee.Employee

	err := r.observe("employees.set_status", func() error {
		row := r.pool.QueryRow(ctx,
			`UPDATE employees
			SET status = $2
			WHERE id = $1
			RETURNING `+employeeColumns,
			id, status,
		)

		var err error
		e, err = scanEmployee(row)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}

		return employee.Employee{}, err
	}

	return e, nil
}

// Resign transitions Active -> Inactive and records the date in a
// single conditional update, so two concurrent resign calls on the
// same id can never both apply. lower(status) tolerates legacy
// mixed-case rows.
func (r *EmployeesRepo) Resign(ctx context.Context, id int64, date employee.DateOnly) (employee.Employee, error) {
	var e employee.Employee

	err := r.observe("employees.resign", func() error {
		row := r.pool.QueryRow(ctx,
			`UPDATE employees
			SET status = $2,
					resignation_date = $3
			WHERE id = $1 AND lower(status) <> $2
			RETURNING `+employeeColumns,
			id, employee.StatusInactive, date,
		)

		var err error
		e, err = scanEmployee(row)
		return err
	})

	if err == nil {
		return e, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return employee.Employee{}, err
	}

	// zero rows: missing id or already inactive
	var current string

	probeErr := r.observe("employees.resign.probe", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT status FROM employees WHERE id = $1`, id,
		).Scan(&current)
	})

	if probeErr != nil {
		if errors.Is(probeErr, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}

		return employee.Employee{}, probeErr
	}

	return employee.Employee{}, employee.ErrAlreadyResigned
}

// RefreshAges recomputes the stored age column for every record,
// the worker's daily pass.
func (r *EmployeesRepo) RefreshAges(ctx context.Context) (int64, error) {
	var affected int64

	err := r.observe("employees.refresh_ages", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE employees
			SET age = EXTRACT(YEAR FROM AGE(CURRENT_DATE, date_of_birth))`,
		)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return 0, err
	}

	return affected, nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	var resigned employee.DateOnly

	err := row.Scan(
		&e.ID,
		&e.LastName,
		&e.FirstName,
		&e.MiddleName,
		&e.Suffix,
		&e.Designation,
		&e.Office,
		&e.Sex,
		&e.DateOfBirth,
		&e.FullName,
		&e.Age,
		&e.Status,
		&resigned,
	)

	if err != nil {
		return employee.Employee{}, err
	}

	e.Status = strings.TrimSpace(e.Status)

	if !resigned.IsZero() {
		e.ResignationDate = &resigned
	}

	return e, nil
}
