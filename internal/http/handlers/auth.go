package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/domain/user"
	"github.com/geocoder89/hrhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID int64, username string, roles []string) (string, error)
}

type AuthHandler struct {
	users UserReader
	jwt   TokenIssuer
}

func NewAuthHandler(users UserReader, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the credential lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByUsername(cctx, req.Username)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	// bcrypt comparison is constant-effort on the hash
	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Incorrect password")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Username, foundUser.Roles)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    foundUser.Public(),
	})
}
