package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/hrhub/internal/domain/employee"
)

// EmployeesRepo mirrors the postgres repo for tests and local runs.
type EmployeesRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]employee.Employee
}

func NewEmployeesRepo() *EmployeesRepo {
	return &EmployeesRepo{
		nextID: 1,
		items:  make(map[int64]employee.Employee),
	}
}

func (r *EmployeesRepo) Create(_ context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	e := employee.NewFromCreateRequest(req)

	r.mu.Lock()
	e.ID = r.nextID
	r.nextID++
	r.items[e.ID] = e
	r.mu.Unlock()

	return e, nil
}

func (r *EmployeesRepo) List(_ context.Context, filter employee.ListEmployeesFilter) ([]employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]employee.Employee, 0, len(r.items))

	for id := int64(1); id < r.nextID; id++ {
		e, ok := r.items[id]

		if !ok {
			continue
		}

		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}

		out = append(out, e)
	}

	return out, nil
}

func (r *EmployeesRepo) GetByID(_ context.Context, id int64) (employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]

	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}

	return e, nil
}

func (r *EmployeesRepo) SetStatus(_ context.Context, id int64, status string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]

	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}

	e.Status = status
	r.items[id] = e

	return e, nil
}

func (r *EmployeesRepo) Resign(_ context.Context, id int64, date employee.DateOnly) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]

	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}

	if employee.NormalizeStatus(e.Status) == employee.StatusInactive {
		return employee.Employee{}, employee.ErrAlreadyResigned
	}

	e.Status = employee.StatusInactive
	e.ResignationDate = &date
	r.items[id] = e

	return e, nil
}

func (r *EmployeesRepo) RefreshAges(_ context.Context) (int64, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64

	for id, e := range r.items {
		e.Age = employee.AgeAt(e.DateOfBirth.Time, now)
		r.items[id] = e
		n++
	}

	return n, nil
}
