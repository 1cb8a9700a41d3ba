// Package reports computes obligation summaries, dashboard figures and
// financial breakdowns from the cost and payment ledgers.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/allocation"
	"tskpay-backend/internal/storage"
)

type Service struct {
	store storage.Store

	// now is swapped in tests.
	now func() time.Time
}

func NewService(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// DashboardKPIs are the front-page figures.
type DashboardKPIs struct {
	ActiveMembers     int     `json:"activeMembers"`
	PendingCosts      int     `json:"pendingCosts"`
	PendingTotal      float64 `json:"pendingTotal"`
	OverdueCosts      int     `json:"overdueCosts"`
	OverdueTotal      float64 `json:"overdueTotal"`
	PaidThisMonth     float64 `json:"paidThisMonth"`
	UnmatchedBankTxns int     `json:"unmatchedBankTxns"`
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardKPIs, error) {
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	kpis := &DashboardKPIs{}
	for _, m := range members {
		if m.Status == models.MemberActive {
			kpis.ActiveMembers++
		}
	}
	for _, c := range costs {
		if c.Status != models.CostPending || c.IsTemplate() {
			continue
		}
		kpis.PendingCosts++
		kpis.PendingTotal += c.Amount
		if c.DueDate != nil && c.DueDate.Before(now) {
			kpis.OverdueCosts++
			kpis.OverdueTotal += c.Amount
		}
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, p := range payments {
		if p.Status == models.PaymentConfirmed && !p.PaymentDate.Before(monthStart) {
			kpis.PaidThisMonth += p.Amount
		}
	}
	for _, tx := range transactions {
		if tx.Status == models.TransactionUnmatched {
			kpis.UnmatchedBankTxns++
		}
	}
	return kpis, nil
}

// CostLine is one open cost in an obligation report, with the amount still
// owed after partial allocations.
type CostLine struct {
	CostID    uuid.UUID  `json:"costId"`
	Title     string     `json:"title"`
	Amount    float64    `json:"amount"`
	Remaining float64    `json:"remaining"`
	DueDate   *time.Time `json:"dueDate"`
	Overdue   bool       `json:"overdue"`
}

// MemberObligation sums what one member still owes.
type MemberObligation struct {
	MemberID     uuid.UUID  `json:"memberId"`
	MemberName   string     `json:"memberName"`
	GroupID      *uuid.UUID `json:"groupId"`
	Open         []CostLine `json:"open"`
	TotalOwed    float64    `json:"totalOwed"`
	OverdueOwed  float64    `json:"overdueOwed"`
	OverdueCount int        `json:"overdueCount"`
}

// MemberObligations reports every member with at least one open cost,
// ordered by total owed descending.
func (s *Service) MemberObligations(ctx context.Context) ([]MemberObligation, error) {
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return nil, err
	}
	allocations, err := s.store.Allocations(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	byMember := make(map[uuid.UUID][]CostLine)
	for _, c := range costs {
		if c.Status != models.CostPending || c.IsTemplate() {
			continue
		}
		remaining := c.Amount - allocation.AllocatedTotal(c.ID, allocations)
		if remaining < 0 {
			remaining = 0
		}
		line := CostLine{
			CostID:    c.ID,
			Title:     c.Title,
			Amount:    c.Amount,
			Remaining: remaining,
			DueDate:   c.DueDate,
			Overdue:   c.DueDate != nil && c.DueDate.Before(now),
		}
		byMember[c.MemberID] = append(byMember[c.MemberID], line)
	}

	var result []MemberObligation
	for _, m := range members {
		lines := byMember[m.ID]
		if len(lines) == 0 {
			continue
		}
		ob := MemberObligation{
			MemberID:   m.ID,
			MemberName: m.FullName(),
			GroupID:    m.GroupID,
			Open:       lines,
		}
		for _, l := range lines {
			ob.TotalOwed += l.Remaining
			if l.Overdue {
				ob.OverdueOwed += l.Remaining
				ob.OverdueCount++
			}
		}
		result = append(result, ob)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalOwed > result[j].TotalOwed
	})
	return result, nil
}

// GroupObligation aggregates member obligations per training group.
type GroupObligation struct {
	GroupID     *uuid.UUID `json:"groupId"`
	GroupName   string     `json:"groupName"`
	Members     int        `json:"members"`
	TotalOwed   float64    `json:"totalOwed"`
	OverdueOwed float64    `json:"overdueOwed"`
}

func (s *Service) GroupObligations(ctx context.Context) ([]GroupObligation, error) {
	obligations, err := s.MemberObligations(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.Groups(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}

	agg := make(map[string]*GroupObligation)
	order := []string{}
	for _, ob := range obligations {
		key := "none"
		name := "Brez skupine"
		if ob.GroupID != nil {
			key = ob.GroupID.String()
			name = names[*ob.GroupID]
		}
		g, ok := agg[key]
		if !ok {
			g = &GroupObligation{GroupID: ob.GroupID, GroupName: name}
			agg[key] = g
			order = append(order, key)
		}
		g.Members++
		g.TotalOwed += ob.TotalOwed
		g.OverdueOwed += ob.OverdueOwed
	}

	result := make([]GroupObligation, 0, len(order))
	for _, key := range order {
		result = append(result, *agg[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalOwed > result[j].TotalOwed
	})
	return result, nil
}

// MonthBucket is one month of billed versus collected amounts.
type MonthBucket struct {
	Month     string  `json:"month"` // YYYY-MM
	Billed    float64 `json:"billed"`
	Collected float64 `json:"collected"`
}

// TypeBucket is the billed total per cost category.
type TypeBucket struct {
	CostTypeID uuid.UUID `json:"costTypeId"`
	Name       string    `json:"name"`
	Billed     float64   `json:"billed"`
}

// FinancialReport breaks billing and collection down by month and category.
type FinancialReport struct {
	Months []MonthBucket `json:"months"`
	Types  []TypeBucket  `json:"types"`
}

func (s *Service) Financial(ctx context.Context) (*FinancialReport, error) {
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments(ctx)
	if err != nil {
		return nil, err
	}
	types, err := s.store.CostTypes(ctx)
	if err != nil {
		return nil, err
	}

	months := make(map[string]*MonthBucket)
	bucket := func(t time.Time) *MonthBucket {
		key := t.Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &MonthBucket{Month: key}
			months[key] = b
		}
		return b
	}

	byType := make(map[uuid.UUID]float64)
	for _, c := range costs {
		if c.Status == models.CostCancelled || c.IsTemplate() {
			continue
		}
		when := c.CreatedAt
		if c.DueDate != nil {
			when = *c.DueDate
		}
		bucket(when).Billed += c.Amount
		byType[c.CostTypeID] += c.Amount
	}
	for _, p := range payments {
		if p.Status == models.PaymentConfirmed {
			bucket(p.PaymentDate).Collected += p.Amount
		}
	}

	report := &FinancialReport{}
	for _, b := range months {
		report.Months = append(report.Months, *b)
	}
	sort.Slice(report.Months, func(i, j int) bool {
		return report.Months[i].Month < report.Months[j].Month
	})
	for _, t := range types {
		if billed := byType[t.ID]; billed > 0 {
			report.Types = append(report.Types, TypeBucket{CostTypeID: t.ID, Name: t.Name, Billed: billed})
		}
	}
	sort.SliceStable(report.Types, func(i, j int) bool {
		return report.Types[i].Billed > report.Types[j].Billed
	})
	return report, nil
}
