package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"controlia/internal/llm"
	"controlia/internal/services"
)

// ErrorResponse is the single error body shape of the API
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError maps service errors to status codes. Every error body
// is {"error": message} with a user-facing Portuguese message; internal
// detail stays in logs.
func RespondError(c *gin.Context, err error) {
	var (
		authErr       *services.AuthError
		permissionErr *services.PermissionError
		notFoundErr   *services.NotFoundError
		validationErr *services.ValidationError
		conflictErr   *services.ConflictError
		quotaErr      *services.QuotaError
		upstreamErr   *llm.UpstreamError
	)

	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: authErr.Message})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: permissionErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundErr.Message})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflictErr.Message})
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: quotaErr.Message})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Falha ao comunicar com o provedor de IA"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Erro interno do servidor"})
	}
}

// RespondValidation is the shortcut for malformed request bodies
func RespondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
