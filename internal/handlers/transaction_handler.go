package handlers

import (
	"net/http"
	"strconv"

	"github.com/fraudlens/transaction-intake/internal/services"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/utils"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type TransactionHandler struct {
	logger       *zap.Logger
	orchestrator services.TransactionOrchestrator
}

func NewTransactionHandler(logger *zap.Logger, orchestrator services.TransactionOrchestrator) *TransactionHandler {
	return &TransactionHandler{logger: logger, orchestrator: orchestrator}
}

// RegisterRoutes registers transaction routes on the provided Gin group.
func (h *TransactionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transactions", h.SubmitTransaction)
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/:id", h.GetTransaction)
	r.GET("/users/:id/transactions", h.ListUserTransactions)
}

// SubmitTransaction ingests a transaction and returns the fraud decision.
// Scoring exhaustion is still a successful creation: the body carries
// status PENDING plus a warning, never an error status.
func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	var req views.TransactionCreate
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.orchestrator.Submit(c.Request.Context(), traceID, req)
	if err != nil {
		h.respondError(c, traceID, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	txn, err := h.orchestrator.Get(c.Request.Context(), traceID, c.Param("id"))
	if err != nil {
		h.respondError(c, traceID, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	skip := parseQueryInt(c, "skip", 0)
	limit := parseQueryInt(c, "limit", defaultListLimit)
	if skip < 0 || limit <= 0 {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "skip must be >= 0 and limit must be > 0",
		})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	out, err := h.orchestrator.List(c.Request.Context(), traceID, skip, limit)
	if err != nil {
		h.respondError(c, traceID, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	out, err := h.orchestrator.ListForUser(c.Request.Context(), traceID, c.Param("id"))
	if err != nil {
		h.respondError(c, traceID, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *TransactionHandler) respondError(c *gin.Context, traceID string, err error) {
	resp := pkg.ToErrorResponse(h.logger, traceID, err)
	c.JSON(resp.Status, resp)
}

func (h *TransactionHandler) serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
		Code:    pkg.ErrServerCode.Code,
		Message: err.Error(),
	})
}

func parseQueryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
