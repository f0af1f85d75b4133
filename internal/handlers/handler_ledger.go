package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler serves operations and their transactions.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the operation and transaction routes. Mutating
// routes go through the write middlewares (rate limiting).
func registerLedgerRoutes(rg *gin.RouterGroup, ls portssvc.LedgerSvcFacade, write ...gin.HandlerFunc) {
	h := newLedgerHandler(ls)

	operations := rg.Group("/operations")
	{
		operations.GET("", h.listOperations)
		operations.GET("/:operationID", h.getOperation)
	}

	operationWrites := rg.Group("/operations", write...)
	{
		operationWrites.POST("", h.createOperation)
		operationWrites.POST("/:operationID/transactions", h.createTransaction)
		operationWrites.POST("/:operationID/cancel", h.cancelOperation)
	}

	transactions := rg.Group("/transactions", write...)
	{
		transactions.PATCH("/:transactionID", h.updateTransactionValues)
		transactions.POST("/:transactionID/confirm", h.confirmTransaction)
		transactions.POST("/:transactionID/cancel", h.cancelTransaction)
	}
}

// createOperation godoc
// @Summary Create an operation
// @Description Creates an operation with its transactions. Movements are posted according to each transaction type.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   operation body dto.CreateOperationRequest true "Operation and its transactions"
// @Success 201 {object} domain.Operation
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Missing create permission on an endpoint"
// @Failure 500 {object} dto.ErrorResponse "Failed to create operation"
// @Security BearerAuth
// @Router /operations [post]
func (h *ledgerHandler) createOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	op, err := h.ledgerService.CreateOperation(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err, "Failed to create operation")
		return
	}

	logger.Info("Operation created", slog.Int64("operation_id", op.ID), slog.Int("transactions", len(op.Transactions)))
	c.JSON(http.StatusCreated, op)
}

// createTransaction godoc
// @Summary Add a transaction to an operation
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   operationID path int true "Operation ID"
// @Param   transaction body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Operation not found"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /operations/{operationID}/transactions [post]
func (h *ledgerHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	operationID, ok := int64Param(c, "operationID")
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tx, err := h.ledgerService.CreateTransaction(c.Request.Context(), actor, operationID, req)
	if err != nil {
		respondError(c, err, "Failed to create transaction")
		return
	}

	logger.Info("Transaction created", slog.Int64("operation_id", operationID), slog.Int64("transaction_id", tx.ID))
	c.JSON(http.StatusCreated, tx)
}

// listOperations godoc
// @Summary List operations
// @Description Lists the operations visible to the caller, newest first, each annotated with the caller's capabilities.
// @Tags operations
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Token from the previous page"
// @Param   fromDate query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param   toDate query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param   entityId query int false "Only operations touching this entity"
// @Param   currency query string false "Only operations with transactions in this currency"
// @Param   status query string false "Only operations with transactions in this status"
// @Success 200 {object} dto.ListOperationsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /operations [get]
func (h *ledgerHandler) listOperations(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var params dto.ListOperationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.ledgerService.GetOperations(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, err, "Failed to list operations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getOperation godoc
// @Summary Get an operation
// @Tags operations
// @Produce  json
// @Param   operationID path int true "Operation ID"
// @Success 200 {object} dto.AnnotatedOperation
// @Failure 403 {object} dto.ErrorResponse "Operation not visible"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /operations/{operationID} [get]
func (h *ledgerHandler) getOperation(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	operationID, ok := int64Param(c, "operationID")
	if !ok {
		return
	}

	op, err := h.ledgerService.GetOperation(c.Request.Context(), actor, operationID)
	if err != nil {
		respondError(c, err, "Failed to retrieve operation")
		return
	}
	c.JSON(http.StatusOK, op)
}

// cancelOperation godoc
// @Summary Cancel an operation
// @Description Cancels every cancellable transaction of the operation through reversals. Already cancelled transactions are skipped.
// @Tags operations
// @Produce  json
// @Param   operationID path int true "Operation ID"
// @Success 200 {object} dto.CancelResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /operations/{operationID}/cancel [post]
func (h *ledgerHandler) cancelOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	operationID, ok := int64Param(c, "operationID")
	if !ok {
		return
	}

	resp, err := h.ledgerService.CancelOperation(c.Request.Context(), actor, operationID)
	if err != nil {
		respondError(c, err, "Failed to cancel operation")
		return
	}

	logger.Info("Operation cancelled", slog.Int64("operation_id", operationID), slog.Int("cancelled", len(resp.Cancelled)))
	c.JSON(http.StatusOK, resp)
}

// updateTransactionValues godoc
// @Summary Edit a pending transaction
// @Description Changes endpoints, operator, currency or amount of a pending transaction and re-posts its movements.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Param   changes body dto.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Transaction is not pending"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{transactionID} [patch]
func (h *ledgerHandler) updateTransactionValues(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	transactionID, ok := int64Param(c, "transactionID")
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tx, err := h.ledgerService.UpdateTransactionValues(c.Request.Context(), actor, transactionID, req.ToChanges())
	if err != nil {
		respondError(c, err, "Failed to update transaction")
		return
	}

	logger.Info("Transaction updated", slog.Int64("transaction_id", transactionID))
	c.JSON(http.StatusOK, tx)
}

// confirmTransaction godoc
// @Summary Confirm a pending transaction
// @Tags transactions
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} dto.ErrorResponse "Type does not need confirmation"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Transaction is not pending"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{transactionID}/confirm [post]
func (h *ledgerHandler) confirmTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	transactionID, ok := int64Param(c, "transactionID")
	if !ok {
		return
	}

	tx, err := h.ledgerService.UpdateTransactionStatus(c.Request.Context(), actor, transactionID)
	if err != nil {
		respondError(c, err, "Failed to confirm transaction")
		return
	}

	logger.Info("Transaction confirmed", slog.Int64("transaction_id", transactionID))
	c.JSON(http.StatusOK, tx)
}

// cancelTransaction godoc
// @Summary Cancel a transaction
// @Description Cancels a transaction by posting a reversal with swapped endpoints.
// @Tags transactions
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Success 200 {object} dto.CancelResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already cancelled or a reversal"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /transactions/{transactionID}/cancel [post]
func (h *ledgerHandler) cancelTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	transactionID, ok := int64Param(c, "transactionID")
	if !ok {
		return
	}

	resp, err := h.ledgerService.CancelTransaction(c.Request.Context(), actor, transactionID)
	if err != nil {
		respondError(c, err, "Failed to cancel transaction")
		return
	}

	logger.Info("Transaction cancelled", slog.Int64("transaction_id", transactionID))
	c.JSON(http.StatusOK, resp)
}
