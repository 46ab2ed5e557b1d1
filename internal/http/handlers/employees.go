package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/hrhub/internal/cache"
	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/domain/employee"
	"github.com/gin-gonic/gin"
)

type EmployeesStore interface {
	Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error)
	List(ctx context.Context, filter employee.ListEmployeesFilter) ([]employee.Employee, error)
	SetStatus(ctx context.Context, id int64, status string) (employee.Employee, error)
	Resign(ctx context.Context, id int64, date employee.DateOnly) (employee.Employee, error)
}

type EmployeesHandler struct {
	repo      EmployeesStore
	listCache *cache.Cache
}

// listCache may be nil; it only smooths over dashboard polling.
func NewEmployeesHandler(repo EmployeesStore, listCache *cache.Cache) *EmployeesHandler {
	return &EmployeesHandler{
		repo:      repo,
		listCache: listCache,
	}
}

func (h *EmployeesHandler) CreateEmployee(ctx *gin.Context) {
	var req employee.CreateEmployeeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create employee")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Employee created successfully",
		"employee": created,
	})
}

func (h *EmployeesHandler) ListEmployees(ctx *gin.Context) {
	var filter employee.ListEmployeesFilter

	key := "employees:all"

	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
		key = "employees:status:" + status
	}

	if h.listCache != nil {
		if v, ok := h.listCache.Get(key); ok {
			if cached, ok := v.([]employee.Employee); ok {
				ctx.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	employees, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list employees")
		return
	}

	if h.listCache != nil {
		h.listCache.Set(key, employees)
	}

	ctx.JSON(http.StatusOK, employees)
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *EmployeesHandler) SetEmployeeStatus(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	var req SetStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// case-sensitive enumeration check: "Active" is rejected
	if !employee.IsValidStatus(req.Status) {
		RespondBadRequest(ctx, "invalid_status", "Invalid status value", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.SetStatus(cctx, id, req.Status)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "Employee not found")
			return
		}

		RespondInternal(ctx, "Could not update status")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusOK, gin.H{"employee": updated})
}

type ResignRequest struct {
	// status is accepted for wire compatibility and ignored; the
	// server always writes the canonical inactive value.
	Status          string            `json:"status" binding:"omitempty"`
	ResignationDate employee.DateOnly `json:"resignation_date" binding:"required"`
}

func (h *EmployeesHandler) ResignEmployee(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	var req ResignRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.Resign(cctx, id, req.ResignationDate)

	if err != nil {
		switch {
		case errors.Is(err, employee.ErrNotFound):
			RespondNotFound(ctx, "Employee not found")
		case errors.Is(err, employee.ErrAlreadyResigned):
			RespondBadRequest(ctx, "already_resigned", "Employee is already resigned", nil)
		default:
			RespondInternal(ctx, "Could not process resignation")
		}
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusOK, updated)
}

func (h *EmployeesHandler) invalidateList() {
	if h.listCache != nil {
		h.listCache.Clear()
	}
}
