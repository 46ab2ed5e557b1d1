package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/domain/user"
	"github.com/geocoder89/hrhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, username, passwordHash string, roles []string) (user.User, error)
	SetRoles(ctx context.Context, userID int64, roles []string) error
}

type UsersHandler struct {
	users UsersStore
}

func NewUsersHandler(users UsersStore) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	if len(users) == 0 {
		RespondNotFound(ctx, "No users found")
		return
	}

	out := make([]user.PublicUser, 0, len(users))

	for _, u := range users {
		out = append(out, u.Public())
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	created, err := h.users.Create(cctx, req.Username, hash, req.Roles)

	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			RespondBadRequest(ctx, "username_taken", "Username already exists", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user": gin.H{
			"id":       created.ID,
			"username": created.Username,
		},
	})
}

func (h *UsersHandler) SetUserRoles(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	var req user.SetRolesRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.users.SetRoles(cctx, id, req.Roles); err != nil {
		RespondInternal(ctx, "Could not update user roles")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User roles updated successfully",
	})
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "invalid_id", "Invalid id in path", nil)
		return 0, false
	}

	return id, true
}
