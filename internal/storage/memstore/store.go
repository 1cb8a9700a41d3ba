// Package memstore is an in-memory Store used by tests and as the cache
// inside the writeback layer.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
)

type Store struct {
	mu           sync.RWMutex
	members      []models.Member
	parents      []models.Parent
	coaches      []models.Coach
	groups       []models.Group
	costs        []models.Cost
	costTypes    []models.CostType
	payments     []models.Payment
	allocations  []models.PaymentAllocation
	statements   []models.BankStatement
	transactions []models.BankTransaction
	auditLog     []models.AuditLogEntry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

// insertion order is preserved so list results are deterministic in tests

func appendCopy[T any](mu *sync.RWMutex, list *[]T, item T) {
	mu.Lock()
	defer mu.Unlock()
	*list = append(*list, item)
}

func replaceByID[T any](mu *sync.RWMutex, list []T, id func(T) uuid.UUID, item T, want uuid.UUID, kind string) error {
	mu.Lock()
	defer mu.Unlock()
	for i := range list {
		if id(list[i]) == want {
			list[i] = item
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", kind, want, apperr.ErrNotFound)
}

func deleteByID[T any](mu *sync.RWMutex, list *[]T, id func(T) uuid.UUID, want uuid.UUID, kind string) error {
	mu.Lock()
	defer mu.Unlock()
	for i := range *list {
		if id((*list)[i]) == want {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", kind, want, apperr.ErrNotFound)
}

func snapshot[T any](mu *sync.RWMutex, list []T) []T {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]T, len(list))
	copy(out, list)
	return out
}

func (s *Store) CreateMember(_ context.Context, m *models.Member) error {
	appendCopy(&s.mu, &s.members, *m)
	return nil
}

func (s *Store) UpdateMember(_ context.Context, m *models.Member) error {
	return replaceByID(&s.mu, s.members, func(x models.Member) uuid.UUID { return x.ID }, *m, m.ID, "member")
}

func (s *Store) DeleteMember(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.members, func(x models.Member) uuid.UUID { return x.ID }, id, "member")
}

func (s *Store) Members(_ context.Context) ([]models.Member, error) {
	return snapshot(&s.mu, s.members), nil
}

func (s *Store) CreateParent(_ context.Context, p *models.Parent) error {
	appendCopy(&s.mu, &s.parents, *p)
	return nil
}

func (s *Store) UpdateParent(_ context.Context, p *models.Parent) error {
	return replaceByID(&s.mu, s.parents, func(x models.Parent) uuid.UUID { return x.ID }, *p, p.ID, "parent")
}

func (s *Store) DeleteParent(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.parents, func(x models.Parent) uuid.UUID { return x.ID }, id, "parent")
}

func (s *Store) Parents(_ context.Context) ([]models.Parent, error) {
	return snapshot(&s.mu, s.parents), nil
}

func (s *Store) CreateCoach(_ context.Context, c *models.Coach) error {
	appendCopy(&s.mu, &s.coaches, *c)
	return nil
}

func (s *Store) UpdateCoach(_ context.Context, c *models.Coach) error {
	return replaceByID(&s.mu, s.coaches, func(x models.Coach) uuid.UUID { return x.ID }, *c, c.ID, "coach")
}

func (s *Store) DeleteCoach(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.coaches, func(x models.Coach) uuid.UUID { return x.ID }, id, "coach")
}

func (s *Store) Coaches(_ context.Context) ([]models.Coach, error) {
	return snapshot(&s.mu, s.coaches), nil
}

func (s *Store) CreateGroup(_ context.Context, g *models.Group) error {
	appendCopy(&s.mu, &s.groups, *g)
	return nil
}

func (s *Store) UpdateGroup(_ context.Context, g *models.Group) error {
	return replaceByID(&s.mu, s.groups, func(x models.Group) uuid.UUID { return x.ID }, *g, g.ID, "group")
}

func (s *Store) DeleteGroup(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.groups, func(x models.Group) uuid.UUID { return x.ID }, id, "group")
}

func (s *Store) Groups(_ context.Context) ([]models.Group, error) {
	return snapshot(&s.mu, s.groups), nil
}

func (s *Store) CreateCost(_ context.Context, c *models.Cost) error {
	appendCopy(&s.mu, &s.costs, *c)
	return nil
}

func (s *Store) UpdateCost(_ context.Context, c *models.Cost) error {
	return replaceByID(&s.mu, s.costs, func(x models.Cost) uuid.UUID { return x.ID }, *c, c.ID, "cost")
}

func (s *Store) DeleteCost(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.costs, func(x models.Cost) uuid.UUID { return x.ID }, id, "cost")
}

func (s *Store) Costs(_ context.Context) ([]models.Cost, error) {
	return snapshot(&s.mu, s.costs), nil
}

func (s *Store) CreateCostType(_ context.Context, ct *models.CostType) error {
	appendCopy(&s.mu, &s.costTypes, *ct)
	return nil
}

func (s *Store) UpdateCostType(_ context.Context, ct *models.CostType) error {
	return replaceByID(&s.mu, s.costTypes, func(x models.CostType) uuid.UUID { return x.ID }, *ct, ct.ID, "cost type")
}

func (s *Store) DeleteCostType(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.costTypes, func(x models.CostType) uuid.UUID { return x.ID }, id, "cost type")
}

func (s *Store) CostTypes(_ context.Context) ([]models.CostType, error) {
	return snapshot(&s.mu, s.costTypes), nil
}

func (s *Store) CreatePayment(_ context.Context, p *models.Payment) error {
	appendCopy(&s.mu, &s.payments, *p)
	return nil
}

func (s *Store) UpdatePayment(_ context.Context, p *models.Payment) error {
	return replaceByID(&s.mu, s.payments, func(x models.Payment) uuid.UUID { return x.ID }, *p, p.ID, "payment")
}

func (s *Store) DeletePayment(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.payments, func(x models.Payment) uuid.UUID { return x.ID }, id, "payment")
}

func (s *Store) Payments(_ context.Context) ([]models.Payment, error) {
	return snapshot(&s.mu, s.payments), nil
}

func (s *Store) CreateAllocation(_ context.Context, a *models.PaymentAllocation) error {
	appendCopy(&s.mu, &s.allocations, *a)
	return nil
}

func (s *Store) DeleteAllocation(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.allocations, func(x models.PaymentAllocation) uuid.UUID { return x.ID }, id, "allocation")
}

func (s *Store) Allocations(_ context.Context) ([]models.PaymentAllocation, error) {
	return snapshot(&s.mu, s.allocations), nil
}

func (s *Store) CreateStatement(_ context.Context, st *models.BankStatement) error {
	appendCopy(&s.mu, &s.statements, *st)
	return nil
}

func (s *Store) UpdateStatement(_ context.Context, st *models.BankStatement) error {
	return replaceByID(&s.mu, s.statements, func(x models.BankStatement) uuid.UUID { return x.ID }, *st, st.ID, "bank statement")
}

func (s *Store) DeleteStatement(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.statements, func(x models.BankStatement) uuid.UUID { return x.ID }, id, "bank statement")
}

func (s *Store) Statements(_ context.Context) ([]models.BankStatement, error) {
	return snapshot(&s.mu, s.statements), nil
}

func (s *Store) CreateTransaction(_ context.Context, t *models.BankTransaction) error {
	appendCopy(&s.mu, &s.transactions, *t)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *models.BankTransaction) error {
	return replaceByID(&s.mu, s.transactions, func(x models.BankTransaction) uuid.UUID { return x.ID }, *t, t.ID, "bank transaction")
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	return deleteByID(&s.mu, &s.transactions, func(x models.BankTransaction) uuid.UUID { return x.ID }, id, "bank transaction")
}

func (s *Store) Transactions(_ context.Context) ([]models.BankTransaction, error) {
	return snapshot(&s.mu, s.transactions), nil
}

func (s *Store) CreateAuditEntry(_ context.Context, e *models.AuditLogEntry) error {
	appendCopy(&s.mu, &s.auditLog, *e)
	return nil
}

func (s *Store) AuditLog(_ context.Context) ([]models.AuditLogEntry, error) {
	return snapshot(&s.mu, s.auditLog), nil
}
