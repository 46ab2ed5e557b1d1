package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the single error envelope every endpoint uses:
// {"error": {code, message, requestId, details}}.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, code, message string, details interface{}) {
	if code == "" {
		code = "invalid_request"
	}

	RespondError(ctx, http.StatusBadRequest, code, message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal never echoes the underlying error; the detail is
// logged server-side only.
func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString("request_id"); id != "" {
		return id
	}

	return ctx.GetHeader("X-Request-Id")
}
