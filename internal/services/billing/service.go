// Package billing manages costs, cost types and bulk billing runs.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
	"tskpay-backend/internal/storage"
)

type Service struct {
	store storage.Store
	log   *slog.Logger
}

func NewService(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// CreateCost validates and stores a cost or recurring template.
func (s *Service) CreateCost(ctx context.Context, cost *models.Cost) (*models.Cost, error) {
	if err := s.validateCost(ctx, cost); err != nil {
		return nil, err
	}
	cost.ID = uuid.New()
	cost.CreatedAt = time.Now()
	if cost.Status == "" {
		cost.Status = models.CostPending
	}
	if err := s.store.CreateCost(ctx, cost); err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditCostCreated,
		fmt.Sprintf("Strošek ustvarjen: %s (%.2f)", cost.Title, cost.Amount),
		map[string]any{"costId": cost.ID, "memberId": cost.MemberID})
	return cost, nil
}

// UpdateCost replaces the mutable fields of an existing cost. Paid costs are
// immutable except for cancellation.
func (s *Service) UpdateCost(ctx context.Context, cost *models.Cost) (*models.Cost, error) {
	current, err := storage.FindCost(ctx, s.store, cost.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.CostPaid && cost.Status != models.CostCancelled {
		return nil, fmt.Errorf("cost %s is paid and cannot be edited", cost.ID)
	}
	if err := s.validateCost(ctx, cost); err != nil {
		return nil, err
	}
	cost.CreatedAt = current.CreatedAt
	if err := s.store.UpdateCost(ctx, cost); err != nil {
		return nil, err
	}
	return cost, nil
}

// CancelCost marks a pending cost cancelled. Cancelled costs keep their
// allocations for history but never count as owed.
func (s *Service) CancelCost(ctx context.Context, costID uuid.UUID) (*models.Cost, error) {
	cost, err := storage.FindCost(ctx, s.store, costID)
	if err != nil {
		return nil, err
	}
	if cost.Status == models.CostPaid {
		return nil, fmt.Errorf("cost %s is paid; delete the payment first", costID)
	}
	cost.Status = models.CostCancelled
	if err := s.store.UpdateCost(ctx, cost); err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditCostCancelled,
		"Strošek preklican: "+cost.Title,
		map[string]any{"costId": cost.ID})
	return cost, nil
}

// DeleteCost removes a cost outright. Costs with allocations must go through
// payment deletion first so the cascade keeps books consistent.
func (s *Service) DeleteCost(ctx context.Context, costID uuid.UUID) error {
	if _, err := storage.FindCost(ctx, s.store, costID); err != nil {
		return err
	}
	allocations, err := s.store.Allocations(ctx)
	if err != nil {
		return err
	}
	for _, a := range allocations {
		if a.CostID == costID {
			return fmt.Errorf("cost %s has allocations; delete the payments first", costID)
		}
	}
	return s.store.DeleteCost(ctx, costID)
}

func (s *Service) validateCost(ctx context.Context, cost *models.Cost) error {
	if cost.Amount <= 0 {
		return fmt.Errorf("cost amount must be positive, got %.2f", cost.Amount)
	}
	if strings.TrimSpace(cost.Title) == "" {
		return errors.New("cost title is required")
	}
	if _, err := storage.FindMember(ctx, s.store, cost.MemberID); err != nil {
		return fmt.Errorf("cost member: %w", err)
	}
	types, err := s.store.CostTypes(ctx)
	if err != nil {
		return err
	}
	for _, t := range types {
		if t.ID == cost.CostTypeID {
			return nil
		}
	}
	return fmt.Errorf("cost type %s: %w", cost.CostTypeID, apperr.ErrNotFound)
}

// CreateCostType registers a cost category. Names are unique,
// case-insensitively.
func (s *Service) CreateCostType(ctx context.Context, name string) (*models.CostType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("cost type name is required")
	}
	types, err := s.store.CostTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if strings.EqualFold(t.Name, name) {
			return nil, &apperr.DuplicateError{What: "cost type " + name}
		}
	}
	ct := &models.CostType{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	if err := s.store.CreateCostType(ctx, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// DeleteCostType removes an unused category. Categories referenced by any
// cost are kept so history stays resolvable.
func (s *Service) DeleteCostType(ctx context.Context, typeID uuid.UUID) error {
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return err
	}
	for _, c := range costs {
		if c.CostTypeID == typeID {
			return fmt.Errorf("cost type %s is in use", typeID)
		}
	}
	return s.store.DeleteCostType(ctx, typeID)
}

// BulkBillingRequest bills every active member of the selected groups with
// the same cost. An empty group list means all groups. With RecurringPeriod
// set, recurring templates are created instead of one-off costs.
type BulkBillingRequest struct {
	GroupIDs   []uuid.UUID `json:"groupIds"`
	Title      string      `json:"title"`
	Amount     float64     `json:"amount"`
	CostTypeID uuid.UUID   `json:"costTypeId"`
	DueDate    *time.Time  `json:"dueDate"`

	RecurringPeriod    *models.RecurringPeriod `json:"recurringPeriod"`
	RecurringStartDate *time.Time              `json:"recurringStartDate"`
	RecurringEndDate   *time.Time              `json:"recurringEndDate"`
}

// BulkBilling creates one pending cost per active member of the selected
// groups and returns the created costs.
func (s *Service) BulkBilling(ctx context.Context, req BulkBillingRequest) ([]models.Cost, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("billing amount must be positive, got %.2f", req.Amount)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("billing title is required")
	}

	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	groupFilter := make(map[uuid.UUID]bool, len(req.GroupIDs))
	for _, id := range req.GroupIDs {
		groupFilter[id] = true
	}

	var created []models.Cost
	for _, m := range members {
		if m.Status != models.MemberActive {
			continue
		}
		if len(groupFilter) > 0 && (m.GroupID == nil || !groupFilter[*m.GroupID]) {
			continue
		}
		cost := &models.Cost{
			ID:         uuid.New(),
			MemberID:   m.ID,
			Title:      req.Title,
			Amount:     req.Amount,
			CostTypeID: req.CostTypeID,
			DueDate:    req.DueDate,
			Status:     models.CostPending,
			CreatedAt:  time.Now(),
		}
		if req.RecurringPeriod != nil {
			cost.IsRecurring = true
			cost.RecurringPeriod = req.RecurringPeriod
			cost.RecurringStartDate = req.RecurringStartDate
			cost.RecurringEndDate = req.RecurringEndDate
		}
		if err := s.store.CreateCost(ctx, cost); err != nil {
			return created, fmt.Errorf("bulk billing member %s: %w", m.ID, err)
		}
		created = append(created, *cost)
	}

	s.audit(ctx, models.AuditBulkBilling,
		fmt.Sprintf("Masovno obračunavanje: %s, %d članov", req.Title, len(created)),
		map[string]any{"count": len(created), "amount": req.Amount})
	s.log.Info("bulk billing completed", "title", req.Title, "members", len(created))
	return created, nil
}

func (s *Service) audit(ctx context.Context, action models.AuditAction, description string, details map[string]any) {
	payload, _ := json.Marshal(details)
	entry := &models.AuditLogEntry{
		ID:          uuid.New(),
		Action:      action,
		Description: description,
		Details:     payload,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateAuditEntry(ctx, entry); err != nil {
		s.log.Error("write audit entry", "action", action, "error", err)
	}
}
