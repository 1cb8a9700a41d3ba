// Package storage defines the data-access contract the billing engine
// consumes. The engine treats each call as transactional on its own and does
// not assume atomicity across calls.
package storage

import (
	"context"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
)

// Store is the typed CRUD surface over the club database. Implementations:
// gormstore (SQLite or Postgres), memstore (tests), writeback (in-memory
// cache with queued persistence).
type Store interface {
	CreateMember(ctx context.Context, m *models.Member) error
	UpdateMember(ctx context.Context, m *models.Member) error
	DeleteMember(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context) ([]models.Member, error)

	CreateParent(ctx context.Context, p *models.Parent) error
	UpdateParent(ctx context.Context, p *models.Parent) error
	DeleteParent(ctx context.Context, id uuid.UUID) error
	Parents(ctx context.Context) ([]models.Parent, error)

	CreateCoach(ctx context.Context, c *models.Coach) error
	UpdateCoach(ctx context.Context, c *models.Coach) error
	DeleteCoach(ctx context.Context, id uuid.UUID) error
	Coaches(ctx context.Context) ([]models.Coach, error)

	CreateGroup(ctx context.Context, g *models.Group) error
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	Groups(ctx context.Context) ([]models.Group, error)

	CreateCost(ctx context.Context, c *models.Cost) error
	UpdateCost(ctx context.Context, c *models.Cost) error
	DeleteCost(ctx context.Context, id uuid.UUID) error
	Costs(ctx context.Context) ([]models.Cost, error)

	CreateCostType(ctx context.Context, ct *models.CostType) error
	UpdateCostType(ctx context.Context, ct *models.CostType) error
	DeleteCostType(ctx context.Context, id uuid.UUID) error
	CostTypes(ctx context.Context) ([]models.CostType, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	UpdatePayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error
	Payments(ctx context.Context) ([]models.Payment, error)

	CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error
	DeleteAllocation(ctx context.Context, id uuid.UUID) error
	Allocations(ctx context.Context) ([]models.PaymentAllocation, error)

	CreateStatement(ctx context.Context, s *models.BankStatement) error
	UpdateStatement(ctx context.Context, s *models.BankStatement) error
	DeleteStatement(ctx context.Context, id uuid.UUID) error
	Statements(ctx context.Context) ([]models.BankStatement, error)

	CreateTransaction(ctx context.Context, t *models.BankTransaction) error
	UpdateTransaction(ctx context.Context, t *models.BankTransaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	Transactions(ctx context.Context) ([]models.BankTransaction, error)

	CreateAuditEntry(ctx context.Context, e *models.AuditLogEntry) error
	AuditLog(ctx context.Context) ([]models.AuditLogEntry, error)

	Close() error
}
