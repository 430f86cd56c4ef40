package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/SscSPs/expense_ledger/internal/middleware"
	"github.com/SscSPs/expense_ledger/internal/utils/validation"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests related to income and expense transactions.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{
		transactionService: ts,
	}
}

func registerTransactionRoutes(rg *gin.RouterGroup, ts portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(ts)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.PUT("/:transactionID", h.updateTransaction)
		transactions.DELETE("/:transactionID", h.deleteTransaction)
	}
}

// createTransaction godoc
// @Summary Record an income or expense
// @Description Creates a transaction for the logged-in user and applies it to their balance. Expenses larger than the balance are rejected.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} map[string]interface{} "success, transaction"
// @Failure 400 {object} map[string]interface{} "Validation error with per-field messages"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 422 {object} map[string]interface{} "Insufficient balance"
// @Failure 503 {object} map[string]interface{} "Ledger busy, retry"
// @Failure 500 {object} map[string]interface{} "Failed to create transaction"
// @Security BearerAuth
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, logger, validation.Translate(err), "Failed to create transaction")
		return
	}

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": dto.ToTransactionResponse(txn)})
}

// listTransactions godoc
// @Summary List transactions
// @Description Lists the logged-in user's transactions, newest first, with cursor pagination
// @Tags transactions
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} map[string]interface{} "success, transactions, nextToken"
// @Failure 400 {object} map[string]interface{} "Invalid query parameters"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 500 {object} map[string]interface{} "Failed to list transactions"
// @Security BearerAuth
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, logger, validation.Translate(err), "Failed to list transactions")
		return
	}

	page, err := h.transactionService.ListTransactions(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	logger.Debug("Transactions listed", slog.Int("count", len(page.Transactions)))
	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": page.Transactions, "nextToken": page.NextToken})
}

// getTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} map[string]interface{} "success, transaction"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("transactionID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": dto.ToTransactionResponse(txn)})
}

// updateTransaction godoc
// @Summary Update a transaction
// @Description Replaces the transaction's fields. Its old effect on the balance is reversed before the new one is applied.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   transaction body dto.UpdateTransactionRequest true "New transaction details"
// @Success 200 {object} map[string]interface{} "success, transaction"
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 403 {object} map[string]interface{} "Transaction owned by another user"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Failure 422 {object} map[string]interface{} "Insufficient balance"
// @Failure 503 {object} map[string]interface{} "Ledger busy, retry"
// @Security BearerAuth
// @Router /transactions/{transactionID} [put]
func (h *transactionHandler) updateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, logger, validation.Translate(err), "Failed to update transaction")
		return
	}

	txn, err := h.transactionService.UpdateTransaction(c.Request.Context(), transactionID, userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": dto.ToTransactionResponse(txn)})
}

// deleteTransaction godoc
// @Summary Delete a transaction
// @Description Removes the transaction and reverses its effect on the balance
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} map[string]interface{} "success"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Failure 503 {object} map[string]interface{} "Ledger busy, retry"
// @Security BearerAuth
// @Router /transactions/{transactionID} [delete]
func (h *transactionHandler) deleteTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	transactionID := c.Param("transactionID")

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), transactionID, userID); err != nil {
		respondError(c, logger.With(slog.String("transaction_id", transactionID)), err, "Failed to delete transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
