package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 503 responses when the owner's ledger is busy.
const retryAfterSeconds = "1"

// respondError maps service errors onto HTTP statuses and the success envelope.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Warn("Validation failed", slog.Any("fields", verr.Fields))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed", "errors": verr.Fields})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		logger.Warn("Insufficient balance", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": "Insufficient balance"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Permission denied", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Permission denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Already exists"})
	case errors.Is(err, apperrors.ErrBusy):
		logger.Warn("Ledger busy", slog.String("error", err.Error()))
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Ledger is busy, please retry"})
	case errors.Is(err, apperrors.ErrIntegrity):
		logger.Error("Ledger integrity violation", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}

// requireUserID reads the authenticated owner or writes a 401.
func requireUserID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return "", false
	}
	return userID, true
}
