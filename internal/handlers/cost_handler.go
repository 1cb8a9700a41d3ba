package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/billing"
	"tskpay-backend/internal/services/recurring"
	"tskpay-backend/internal/storage"
)

type CostHandler struct {
	billing   *billing.Service
	scheduler *recurring.Scheduler
	store     storage.Store
}

func NewCostHandler(b *billing.Service, scheduler *recurring.Scheduler, store storage.Store) *CostHandler {
	return &CostHandler{billing: b, scheduler: scheduler, store: store}
}

type costPayload struct {
	MemberID    uuid.UUID `json:"memberId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	CostTypeID  uuid.UUID `json:"costTypeId"`
	DueDate     *string   `json:"dueDate"` // YYYY-MM-DD

	IsRecurring         bool    `json:"isRecurring"`
	RecurringPeriod     *string `json:"recurringPeriod"`
	RecurringStartDate  *string `json:"recurringStartDate"`
	RecurringEndDate    *string `json:"recurringEndDate"`
	RecurringDayOfMonth *int    `json:"recurringDayOfMonth"`
}

func (p *costPayload) toModel(c *gin.Context) (*models.Cost, bool) {
	cost := &models.Cost{
		MemberID:            p.MemberID,
		Title:               p.Title,
		Description:         p.Description,
		Amount:              p.Amount,
		CostTypeID:          p.CostTypeID,
		IsRecurring:         p.IsRecurring,
		RecurringDayOfMonth: p.RecurringDayOfMonth,
	}
	if p.RecurringPeriod != nil {
		period := models.RecurringPeriod(*p.RecurringPeriod)
		cost.RecurringPeriod = &period
	}
	for _, f := range []struct {
		raw  *string
		dest **time.Time
	}{
		{p.DueDate, &cost.DueDate},
		{p.RecurringStartDate, &cost.RecurringStartDate},
		{p.RecurringEndDate, &cost.RecurringEndDate},
	} {
		if f.raw == nil || *f.raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", *f.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return nil, false
		}
		*f.dest = &parsed
	}
	return cost, true
}

func (h *CostHandler) List(c *gin.Context) {
	costs, err := h.store.Costs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	statusFilter := c.Query("status")
	memberFilter := c.Query("memberId")
	items := make([]models.Cost, 0, len(costs))
	for _, cost := range costs {
		if statusFilter != "" && string(cost.Status) != statusFilter {
			continue
		}
		if memberFilter != "" && cost.MemberID.String() != memberFilter {
			continue
		}
		items = append(items, cost)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CostHandler) Create(c *gin.Context) {
	var payload costPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	cost, ok := payload.toModel(c)
	if !ok {
		return
	}
	created, err := h.billing.CreateCost(c.Request.Context(), cost)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost": created})
}

func (h *CostHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload costPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	cost, ok := payload.toModel(c)
	if !ok {
		return
	}
	cost.ID = id
	cost.Status = models.CostPending
	updated, err := h.billing.UpdateCost(c.Request.Context(), cost)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost": updated})
}

func (h *CostHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cost, err := h.billing.CancelCost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

func (h *CostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.billing.DeleteCost(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cost deleted"})
}

func (h *CostHandler) ListTypes(c *gin.Context) {
	types, err := h.store.CostTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": types})
}

func (h *CostHandler) CreateType(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	ct, err := h.billing.CreateCostType(c.Request.Context(), payload.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"costType": ct})
}

func (h *CostHandler) DeleteType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.billing.DeleteCostType(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cost type deleted"})
}

// BulkBilling bills every active member of the selected groups at once.
func (h *CostHandler) BulkBilling(c *gin.Context) {
	var payload struct {
		GroupIDs           []uuid.UUID `json:"groupIds"`
		Title              string      `json:"title"`
		Amount             float64     `json:"amount"`
		CostTypeID         uuid.UUID   `json:"costTypeId"`
		DueDate            *string     `json:"dueDate"`
		RecurringPeriod    *string     `json:"recurringPeriod"`
		RecurringStartDate *string     `json:"recurringStartDate"`
		RecurringEndDate   *string     `json:"recurringEndDate"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	req := billing.BulkBillingRequest{
		GroupIDs:   payload.GroupIDs,
		Title:      payload.Title,
		Amount:     payload.Amount,
		CostTypeID: payload.CostTypeID,
	}
	if payload.RecurringPeriod != nil {
		period := models.RecurringPeriod(*payload.RecurringPeriod)
		req.RecurringPeriod = &period
	}
	for _, f := range []struct {
		raw  *string
		dest **time.Time
	}{
		{payload.DueDate, &req.DueDate},
		{payload.RecurringStartDate, &req.RecurringStartDate},
		{payload.RecurringEndDate, &req.RecurringEndDate},
	} {
		if f.raw == nil || *f.raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", *f.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		*f.dest = &parsed
	}

	created, err := h.billing.BulkBilling(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": len(created), "items": created})
}

// GenerateRecurring runs the recurring scheduler on demand.
func (h *CostHandler) GenerateRecurring(c *gin.Context) {
	created, err := h.scheduler.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
