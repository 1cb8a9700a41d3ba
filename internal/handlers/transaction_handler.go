package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/reconciliation"
	"tskpay-backend/internal/storage"
)

type TransactionHandler struct {
	service *reconciliation.Service
	store   storage.Store
}

func NewTransactionHandler(s *reconciliation.Service, store storage.Store) *TransactionHandler {
	return &TransactionHandler{service: s, store: store}
}

// List returns transactions, optionally filtered by statement and status.
func (h *TransactionHandler) List(c *gin.Context) {
	transactions, err := h.store.Transactions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	statementFilter := c.Query("statementId")
	statusFilter := c.Query("status")

	items := make([]models.BankTransaction, 0, len(transactions))
	for _, tx := range transactions {
		if statementFilter != "" && tx.BankStatementID.String() != statementFilter {
			continue
		}
		if statusFilter != "" && string(tx.Status) != statusFilter {
			continue
		}
		items = append(items, tx)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SetMatch overrides the matched payer. A null parentId clears the match.
func (h *TransactionHandler) SetMatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		ParentID *uuid.UUID `json:"parentId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	tx, err := h.service.SetTransactionMatch(c.Request.Context(), id, payload.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// Confirm turns a transaction into a pending payment and opens allocation.
func (h *TransactionHandler) Confirm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	payment, err := h.service.ConfirmTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction confirmed", "payment": payment})
}
