package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/SscSPs/expense_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvc
}

func registerBalanceRoutes(rg *gin.RouterGroup, bs portssvc.BalanceSvc) {
	h := &balanceHandler{balanceService: bs}

	balance := rg.Group("/balance")
	{
		balance.GET("", h.getBalance)
		balance.GET("/reconcile", h.reconcileBalance)
	}
}

// getBalance godoc
// @Summary Get the current balance
// @Description Returns the logged-in user's balance with two decimals. Users without transactions get "0.00".
// @Tags balance
// @Produce  json
// @Success 200 {object} map[string]interface{} "success, balance"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 500 {object} map[string]interface{} "Failed to retrieve balance"
// @Security BearerAuth
// @Router /balance [get]
func (h *balanceHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	balance, err := h.balanceService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": dto.ToBalanceResponse(balance).Balance})
}

// reconcileBalance godoc
// @Summary Verify the balance against transactions
// @Description Recomputes the balance from the user's transactions and compares it with the stored value
// @Tags balance
// @Produce  json
// @Success 200 {object} dto.ReconcileResponse
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 409 {object} dto.ReconcileResponse "Stored balance differs from transactions"
// @Failure 500 {object} map[string]interface{} "Balance row missing or duplicated"
// @Security BearerAuth
// @Router /balance/reconcile [get]
func (h *balanceHandler) reconcileBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	stored, recomputed, err := h.balanceService.ReconcileBalance(c.Request.Context(), userID)
	switch {
	case errors.Is(err, apperrors.ErrBalanceDrift):
		logger.Error("Balance drifted from transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ToReconcileResponse(stored, recomputed))
	case err != nil:
		respondError(c, logger, err, "Failed to reconcile balance")
	default:
		c.JSON(http.StatusOK, dto.ToReconcileResponse(stored, recomputed))
	}
}
