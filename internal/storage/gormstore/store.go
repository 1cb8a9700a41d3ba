// Package gormstore persists the club data model with gorm, against either
// the local SQLite file or Postgres depending on configuration.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&models.Member{},
		&models.MemberParent{},
		&models.Parent{},
		&models.Coach{},
		&models.Group{},
		&models.Cost{},
		&models.CostType{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.BankStatement{},
		&models.BankTransaction{},
		&models.AuditLogEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for operations outside the store contract.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// Members loads all members and fills their parent links from the
// member_parents join table.
func (s *Store) Members(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := s.db.WithContext(ctx).Find(&members).Error; err != nil {
		return nil, translate(err)
	}
	var links []models.MemberParent
	if err := s.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, translate(err)
	}
	byMember := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range links {
		byMember[l.MemberID] = append(byMember[l.MemberID], l.ParentID)
	}
	for i := range members {
		members[i].ParentIDs = byMember[members[i].ID]
	}
	return members, nil
}

func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	return s.replaceParentLinks(ctx, m.ID, m.ParentIDs)
}

func (s *Store) UpdateMember(ctx context.Context, m *models.Member) error {
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return translate(err)
	}
	return s.replaceParentLinks(ctx, m.ID, m.ParentIDs)
}

func (s *Store) DeleteMember(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("member_id = ?", id).Delete(&models.MemberParent{}).Error; err != nil {
		return translate(err)
	}
	return translate(s.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id).Error)
}

func (s *Store) replaceParentLinks(ctx context.Context, memberID uuid.UUID, parentIDs []uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("member_id = ?", memberID).Delete(&models.MemberParent{}).Error; err != nil {
		return translate(err)
	}
	for _, pid := range parentIDs {
		link := models.MemberParent{MemberID: memberID, ParentID: pid}
		if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

func (s *Store) CreateParent(ctx context.Context, p *models.Parent) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) UpdateParent(ctx context.Context, p *models.Parent) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *Store) DeleteParent(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Parent{}, "id = ?", id).Error)
}

func (s *Store) Parents(ctx context.Context) ([]models.Parent, error) {
	var items []models.Parent
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateCoach(ctx context.Context, c *models.Coach) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) UpdateCoach(ctx context.Context, c *models.Coach) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

func (s *Store) DeleteCoach(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Coach{}, "id = ?", id).Error)
}

func (s *Store) Coaches(ctx context.Context) ([]models.Coach, error) {
	var items []models.Coach
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

func (s *Store) UpdateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.db.WithContext(ctx).Save(g).Error)
}

func (s *Store) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Group{}, "id = ?", id).Error)
}

func (s *Store) Groups(ctx context.Context) ([]models.Group, error) {
	var items []models.Group
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateCost(ctx context.Context, c *models.Cost) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) UpdateCost(ctx context.Context, c *models.Cost) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

func (s *Store) DeleteCost(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Cost{}, "id = ?", id).Error)
}

func (s *Store) Costs(ctx context.Context) ([]models.Cost, error) {
	var items []models.Cost
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateCostType(ctx context.Context, ct *models.CostType) error {
	return translate(s.db.WithContext(ctx).Create(ct).Error)
}

func (s *Store) UpdateCostType(ctx context.Context, ct *models.CostType) error {
	return translate(s.db.WithContext(ctx).Save(ct).Error)
}

func (s *Store) DeleteCostType(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.CostType{}, "id = ?", id).Error)
}

func (s *Store) CostTypes(ctx context.Context) ([]models.CostType, error) {
	var items []models.CostType
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id).Error)
}

func (s *Store) Payments(ctx context.Context) ([]models.Payment, error) {
	var items []models.Payment
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.PaymentAllocation{}, "id = ?", id).Error)
}

func (s *Store) Allocations(ctx context.Context) ([]models.PaymentAllocation, error) {
	var items []models.PaymentAllocation
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateStatement(ctx context.Context, st *models.BankStatement) error {
	return translate(s.db.WithContext(ctx).Create(st).Error)
}

func (s *Store) UpdateStatement(ctx context.Context, st *models.BankStatement) error {
	return translate(s.db.WithContext(ctx).Save(st).Error)
}

func (s *Store) DeleteStatement(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.BankStatement{}, "id = ?", id).Error)
}

func (s *Store) Statements(ctx context.Context) ([]models.BankStatement, error) {
	var items []models.BankStatement
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.BankTransaction) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *Store) UpdateTransaction(ctx context.Context, t *models.BankTransaction) error {
	return translate(s.db.WithContext(ctx).Save(t).Error)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&models.BankTransaction{}, "id = ?", id).Error)
}

func (s *Store) Transactions(ctx context.Context) ([]models.BankTransaction, error) {
	var items []models.BankTransaction
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, translate(err)
}

func (s *Store) CreateAuditEntry(ctx context.Context, e *models.AuditLogEntry) error {
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *Store) AuditLog(ctx context.Context) ([]models.AuditLogEntry, error) {
	var items []models.AuditLogEntry
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, translate(err)
}
