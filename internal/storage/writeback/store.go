// Package writeback layers a synchronous in-memory state over a persistent
// Store. Mutations apply to memory immediately and are queued for
// persistence; the queue is drained by Run or an explicit Flush. A failed
// persistence write is logged and dropped, the in-memory state is not
// reverted. That favors UI responsiveness over write-through consistency and
// is a documented gap of the system.
package writeback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/storage"
	"tskpay-backend/internal/storage/memstore"
)

type command struct {
	op  string
	run func(ctx context.Context) error
}

type Store struct {
	cache   *memstore.Store
	backing storage.Store
	log     *slog.Logger

	mu    sync.Mutex
	queue []command
}

// New builds the write-behind store and loads the full backing data set into
// memory. The in-memory state is the source of truth from then on.
func New(ctx context.Context, backing storage.Store, log *slog.Logger) (*Store, error) {
	s := &Store{cache: memstore.New(), backing: backing, log: log}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	members, err := s.backing.Members(ctx)
	if err != nil {
		return err
	}
	for i := range members {
		if err := s.cache.CreateMember(ctx, &members[i]); err != nil {
			return err
		}
	}
	parents, err := s.backing.Parents(ctx)
	if err != nil {
		return err
	}
	for i := range parents {
		if err := s.cache.CreateParent(ctx, &parents[i]); err != nil {
			return err
		}
	}
	coaches, err := s.backing.Coaches(ctx)
	if err != nil {
		return err
	}
	for i := range coaches {
		if err := s.cache.CreateCoach(ctx, &coaches[i]); err != nil {
			return err
		}
	}
	groups, err := s.backing.Groups(ctx)
	if err != nil {
		return err
	}
	for i := range groups {
		if err := s.cache.CreateGroup(ctx, &groups[i]); err != nil {
			return err
		}
	}
	costs, err := s.backing.Costs(ctx)
	if err != nil {
		return err
	}
	for i := range costs {
		if err := s.cache.CreateCost(ctx, &costs[i]); err != nil {
			return err
		}
	}
	costTypes, err := s.backing.CostTypes(ctx)
	if err != nil {
		return err
	}
	for i := range costTypes {
		if err := s.cache.CreateCostType(ctx, &costTypes[i]); err != nil {
			return err
		}
	}
	payments, err := s.backing.Payments(ctx)
	if err != nil {
		return err
	}
	for i := range payments {
		if err := s.cache.CreatePayment(ctx, &payments[i]); err != nil {
			return err
		}
	}
	allocations, err := s.backing.Allocations(ctx)
	if err != nil {
		return err
	}
	for i := range allocations {
		if err := s.cache.CreateAllocation(ctx, &allocations[i]); err != nil {
			return err
		}
	}
	statements, err := s.backing.Statements(ctx)
	if err != nil {
		return err
	}
	for i := range statements {
		if err := s.cache.CreateStatement(ctx, &statements[i]); err != nil {
			return err
		}
	}
	transactions, err := s.backing.Transactions(ctx)
	if err != nil {
		return err
	}
	for i := range transactions {
		if err := s.cache.CreateTransaction(ctx, &transactions[i]); err != nil {
			return err
		}
	}
	auditLog, err := s.backing.AuditLog(ctx)
	if err != nil {
		return err
	}
	for i := range auditLog {
		if err := s.cache.CreateAuditEntry(ctx, &auditLog[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) enqueue(op string, run func(ctx context.Context) error) {
	s.mu.Lock()
	s.queue = append(s.queue, command{op: op, run: run})
	s.mu.Unlock()
}

// Pending returns the operations queued for persistence, oldest first.
func (s *Store) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, len(s.queue))
	for i, c := range s.queue {
		ops[i] = c.op
	}
	return ops
}

// Flush drains the queue against the backing store. Write failures are
// logged and the command is dropped; the in-memory state stays authoritative.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, c := range batch {
		if err := c.run(ctx); err != nil {
			s.log.Error("persistence write failed", "op", c.op, "error", err)
		}
	}
}

// Run flushes the queue on the given interval until ctx is cancelled, then
// performs a final flush.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Flush(context.Background())
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Store) Close() error {
	s.Flush(context.Background())
	return s.backing.Close()
}

func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	if err := s.cache.CreateMember(ctx, m); err != nil {
		return err
	}
	cp := *m
	s.enqueue("create member "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateMember(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, m *models.Member) error {
	if err := s.cache.UpdateMember(ctx, m); err != nil {
		return err
	}
	cp := *m
	s.enqueue("update member "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateMember(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete member "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteMember(ctx, id)
	})
	return nil
}

func (s *Store) Members(ctx context.Context) ([]models.Member, error) {
	return s.cache.Members(ctx)
}

func (s *Store) CreateParent(ctx context.Context, p *models.Parent) error {
	if err := s.cache.CreateParent(ctx, p); err != nil {
		return err
	}
	cp := *p
	s.enqueue("create parent "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateParent(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateParent(ctx context.Context, p *models.Parent) error {
	if err := s.cache.UpdateParent(ctx, p); err != nil {
		return err
	}
	cp := *p
	s.enqueue("update parent "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateParent(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteParent(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteParent(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete parent "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteParent(ctx, id)
	})
	return nil
}

func (s *Store) Parents(ctx context.Context) ([]models.Parent, error) {
	return s.cache.Parents(ctx)
}

func (s *Store) CreateCoach(ctx context.Context, c *models.Coach) error {
	if err := s.cache.CreateCoach(ctx, c); err != nil {
		return err
	}
	cp := *c
	s.enqueue("create coach "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateCoach(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateCoach(ctx context.Context, c *models.Coach) error {
	if err := s.cache.UpdateCoach(ctx, c); err != nil {
		return err
	}
	cp := *c
	s.enqueue("update coach "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateCoach(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteCoach(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteCoach(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete coach "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteCoach(ctx, id)
	})
	return nil
}

func (s *Store) Coaches(ctx context.Context) ([]models.Coach, error) {
	return s.cache.Coaches(ctx)
}

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	if err := s.cache.CreateGroup(ctx, g); err != nil {
		return err
	}
	cp := *g
	s.enqueue("create group "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateGroup(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateGroup(ctx context.Context, g *models.Group) error {
	if err := s.cache.UpdateGroup(ctx, g); err != nil {
		return err
	}
	cp := *g
	s.enqueue("update group "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateGroup(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete group "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteGroup(ctx, id)
	})
	return nil
}

func (s *Store) Groups(ctx context.Context) ([]models.Group, error) {
	return s.cache.Groups(ctx)
}

func (s *Store) CreateCost(ctx context.Context, c *models.Cost) error {
	if err := s.cache.CreateCost(ctx, c); err != nil {
		return err
	}
	cp := *c
	s.enqueue("create cost "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateCost(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateCost(ctx context.Context, c *models.Cost) error {
	if err := s.cache.UpdateCost(ctx, c); err != nil {
		return err
	}
	cp := *c
	s.enqueue("update cost "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateCost(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteCost(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteCost(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete cost "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteCost(ctx, id)
	})
	return nil
}

func (s *Store) Costs(ctx context.Context) ([]models.Cost, error) {
	return s.cache.Costs(ctx)
}

func (s *Store) CreateCostType(ctx context.Context, ct *models.CostType) error {
	if err := s.cache.CreateCostType(ctx, ct); err != nil {
		return err
	}
	cp := *ct
	s.enqueue("create cost type "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateCostType(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateCostType(ctx context.Context, ct *models.CostType) error {
	if err := s.cache.UpdateCostType(ctx, ct); err != nil {
		return err
	}
	cp := *ct
	s.enqueue("update cost type "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateCostType(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteCostType(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteCostType(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete cost type "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteCostType(ctx, id)
	})
	return nil
}

func (s *Store) CostTypes(ctx context.Context) ([]models.CostType, error) {
	return s.cache.CostTypes(ctx)
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	if err := s.cache.CreatePayment(ctx, p); err != nil {
		return err
	}
	cp := *p
	s.enqueue("create payment "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreatePayment(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *models.Payment) error {
	if err := s.cache.UpdatePayment(ctx, p); err != nil {
		return err
	}
	cp := *p
	s.enqueue("update payment "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdatePayment(ctx, &cp)
	})
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete payment "+id.String(), func(ctx context.Context) error {
		return s.backing.DeletePayment(ctx, id)
	})
	return nil
}

func (s *Store) Payments(ctx context.Context) ([]models.Payment, error) {
	return s.cache.Payments(ctx)
}

func (s *Store) CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error {
	if err := s.cache.CreateAllocation(ctx, a); err != nil {
		return err
	}
	cp := *a
	s.enqueue("create allocation "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateAllocation(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteAllocation(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete allocation "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteAllocation(ctx, id)
	})
	return nil
}

func (s *Store) Allocations(ctx context.Context) ([]models.PaymentAllocation, error) {
	return s.cache.Allocations(ctx)
}

func (s *Store) CreateStatement(ctx context.Context, st *models.BankStatement) error {
	if err := s.cache.CreateStatement(ctx, st); err != nil {
		return err
	}
	cp := *st
	s.enqueue("create statement "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateStatement(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateStatement(ctx context.Context, st *models.BankStatement) error {
	if err := s.cache.UpdateStatement(ctx, st); err != nil {
		return err
	}
	cp := *st
	s.enqueue("update statement "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateStatement(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteStatement(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteStatement(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete statement "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteStatement(ctx, id)
	})
	return nil
}

func (s *Store) Statements(ctx context.Context) ([]models.BankStatement, error) {
	return s.cache.Statements(ctx)
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.BankTransaction) error {
	if err := s.cache.CreateTransaction(ctx, t); err != nil {
		return err
	}
	cp := *t
	s.enqueue("create transaction "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateTransaction(ctx, &cp)
	})
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t *models.BankTransaction) error {
	if err := s.cache.UpdateTransaction(ctx, t); err != nil {
		return err
	}
	cp := *t
	s.enqueue("update transaction "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.UpdateTransaction(ctx, &cp)
	})
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if err := s.cache.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.enqueue("delete transaction "+id.String(), func(ctx context.Context) error {
		return s.backing.DeleteTransaction(ctx, id)
	})
	return nil
}

func (s *Store) Transactions(ctx context.Context) ([]models.BankTransaction, error) {
	return s.cache.Transactions(ctx)
}

func (s *Store) CreateAuditEntry(ctx context.Context, e *models.AuditLogEntry) error {
	if err := s.cache.CreateAuditEntry(ctx, e); err != nil {
		return err
	}
	cp := *e
	s.enqueue("create audit entry "+cp.ID.String(), func(ctx context.Context) error {
		return s.backing.CreateAuditEntry(ctx, &cp)
	})
	return nil
}

func (s *Store) AuditLog(ctx context.Context) ([]models.AuditLogEntry, error) {
	return s.cache.AuditLog(ctx)
}
