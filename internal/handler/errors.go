package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/validation"
	"go.uber.org/zap"
)

// invalidLoginMessage is shared by unknown email and wrong password so callers cannot tell them apart
const invalidLoginMessage = "invalid email or password"

func abortWithError(c *gin.Context, status int, title, message string, details interface{}) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:   title,
		Message: message,
		Details: details,
	})
}

func (h *AuthHandler) bindingFailed(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "Validation failed", "request body is invalid", validation.ToDetails(err))
}

// handleError maps use case errors to HTTP responses
func (h *AuthHandler) handleError(c *gin.Context, err error) {
	var locked *domain.AccountLockedError
	var duplicate *domain.DuplicateAccountError
	var domainErr *domain.DomainError

	switch {
	case errors.Is(err, domain.ErrWeakPassword), errors.Is(err, domain.ErrInvalidEmail):
		abortWithError(c, http.StatusBadRequest, "Validation failed", err.Error(), nil)
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "Unauthorized", invalidLoginMessage, nil)
	case errors.As(err, &locked):
		abortWithError(c, http.StatusForbidden, "Forbidden", locked.Error(), gin.H{
			"locked_until": locked.Until.UTC().Format(time.RFC3339),
		})
	case errors.As(err, &domainErr):
		abortWithError(c, http.StatusForbidden, "Forbidden", domainErr.Message, nil)
	case errors.As(err, &duplicate):
		abortWithError(c, http.StatusConflict, "Conflict", duplicate.Error(), gin.H{"field": duplicate.Field})
	case errors.Is(err, domain.ErrInvalidResetCode):
		abortWithError(c, http.StatusBadRequest, "Bad request", domain.ErrInvalidResetCode.Error(), nil)
	case errors.Is(err, domain.ErrInvalidToken):
		abortWithError(c, http.StatusBadRequest, "Bad request", domain.ErrInvalidToken.Error(), nil)
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abortWithError(c, http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", nil)
	}
}
