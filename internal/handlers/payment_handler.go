package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/allocation"
	"tskpay-backend/internal/services/cascade"
	"tskpay-backend/internal/services/reconciliation"
	"tskpay-backend/internal/storage"
)

type PaymentHandler struct {
	service *reconciliation.Service
	cascade *cascade.Manager
	store   storage.Store
}

func NewPaymentHandler(s *reconciliation.Service, cascadeMgr *cascade.Manager, store storage.Store) *PaymentHandler {
	return &PaymentHandler{service: s, cascade: cascadeMgr, store: store}
}

func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.store.Payments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": payments})
}

// Create records a manual payment (cash, card, or a transfer entered by
// hand).
func (h *PaymentHandler) Create(c *gin.Context) {
	var payload struct {
		ParentID        *uuid.UUID `json:"parentId"`
		PayerName       string     `json:"payerName"`
		Amount          float64    `json:"amount"`
		PaymentDate     string     `json:"paymentDate"` // YYYY-MM-DD
		PaymentMethod   string     `json:"paymentMethod"`
		ReferenceNumber string     `json:"referenceNumber"`
		Notes           string     `json:"notes"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	paymentDate := time.Now()
	if payload.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", payload.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment date, expected YYYY-MM-DD"})
			return
		}
		paymentDate = parsed
	}

	payment := &models.Payment{
		ParentID:        payload.ParentID,
		PayerName:       payload.PayerName,
		Amount:          payload.Amount,
		PaymentDate:     paymentDate,
		PaymentMethod:   models.PaymentMethod(payload.PaymentMethod),
		ReferenceNumber: payload.ReferenceNumber,
		Notes:           payload.Notes,
	}
	created, err := h.service.CreateManualPayment(c.Request.Context(), payment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": created})
}

// CandidateCosts lists the pending costs the payment can be allocated to.
func (h *PaymentHandler) CandidateCosts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	costs, err := h.service.CandidateCosts(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": costs})
}

// AutoSelect proposes an allocation set without persisting it.
func (h *PaymentHandler) AutoSelect(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.AutoSelect(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Allocate commits an allocation set for the payment.
func (h *PaymentHandler) Allocate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Entries  []allocation.Entry `json:"entries"`
		ParentID *uuid.UUID         `json:"parentId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.service.CommitAllocation(c.Request.Context(), id, payload.Entries, payload.ParentID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "allocation committed"})
}

// CancelAllocation abandons an open allocation dialog. Payments created for
// the dialog are rolled back.
func (h *PaymentHandler) CancelAllocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rolledBack, err := h.service.CancelAllocation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rolledBack": rolledBack})
}

// UpdateAmount changes the payment amount with cascade: allocations drop and
// affected costs revert to pending.
func (h *PaymentHandler) UpdateAmount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	result, err := h.cascade.UpdatePaymentAmount(c.Request.Context(), id, payload.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cascade": result})
}

// Delete removes a payment with full cascade.
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.DeletePayment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment deleted", "cascade": result})
}
