package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
	"tskpay-backend/internal/storage/memstore"
)

func testService() (*Service, *memstore.Store) {
	store := memstore.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, log), store
}

func seedMemberAndType(t *testing.T, store *memstore.Store) (models.Member, models.CostType) {
	t.Helper()
	ctx := context.Background()
	member := models.Member{ID: uuid.New(), FirstName: "Ana", LastName: "Novak", Status: models.MemberActive}
	if err := store.CreateMember(ctx, &member); err != nil {
		t.Fatal(err)
	}
	ct := models.CostType{ID: uuid.New(), Name: "Vadnina"}
	if err := store.CreateCostType(ctx, &ct); err != nil {
		t.Fatal(err)
	}
	return member, ct
}

func TestCreateCostValidation(t *testing.T) {
	svc, store := testService()
	member, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		cost    models.Cost
		wantErr bool
	}{
		{"valid", models.Cost{MemberID: member.ID, Title: "Vadnina", Amount: 45, CostTypeID: ct.ID}, false},
		{"zero amount", models.Cost{MemberID: member.ID, Title: "Vadnina", Amount: 0, CostTypeID: ct.ID}, true},
		{"negative amount", models.Cost{MemberID: member.ID, Title: "Vadnina", Amount: -5, CostTypeID: ct.ID}, true},
		{"empty title", models.Cost{MemberID: member.ID, Title: "  ", Amount: 45, CostTypeID: ct.ID}, true},
		{"unknown member", models.Cost{MemberID: uuid.New(), Title: "Vadnina", Amount: 45, CostTypeID: ct.ID}, true},
		{"unknown cost type", models.Cost{MemberID: member.ID, Title: "Vadnina", Amount: 45, CostTypeID: uuid.New()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCost(ctx, &tt.cost)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateCost() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateCostTypeDuplicate(t *testing.T) {
	svc, store := testService()
	seedMemberAndType(t, store)
	ctx := context.Background()

	if _, err := svc.CreateCostType(ctx, "Oprema"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateCostType(ctx, "oprema")
	var dup *apperr.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateError for case-insensitive name clash", err)
	}
	_, err = svc.CreateCostType(ctx, "Vadnina")
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateError against seeded type", err)
	}
}

func TestDeleteCostTypeInUse(t *testing.T) {
	svc, store := testService()
	member, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	if _, err := svc.CreateCost(ctx, &models.Cost{
		MemberID: member.ID, Title: "Vadnina", Amount: 45, CostTypeID: ct.ID,
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCostType(ctx, ct.ID); err == nil {
		t.Error("cost type referenced by a cost must not be deletable")
	}
}

func TestDeleteCostWithAllocations(t *testing.T) {
	svc, store := testService()
	member, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	cost, err := svc.CreateCost(ctx, &models.Cost{
		MemberID: member.ID, Title: "Vadnina", Amount: 45, CostTypeID: ct.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	store.CreateAllocation(ctx, &models.PaymentAllocation{
		ID: uuid.New(), PaymentID: uuid.New(), CostID: cost.ID, AllocatedAmount: 45,
	})

	if err := svc.DeleteCost(ctx, cost.ID); err == nil {
		t.Error("cost with allocations must not be deletable directly")
	}
}

func TestBulkBilling(t *testing.T) {
	svc, store := testService()
	_, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	groupA := models.Group{ID: uuid.New(), Name: "Mladinci"}
	groupB := models.Group{ID: uuid.New(), Name: "Cicibani"}
	store.CreateGroup(ctx, &groupA)
	store.CreateGroup(ctx, &groupB)

	inA := models.Member{ID: uuid.New(), FirstName: "Luka", LastName: "Kranjc", Status: models.MemberActive, GroupID: &groupA.ID}
	inB := models.Member{ID: uuid.New(), FirstName: "Eva", LastName: "Zupan", Status: models.MemberActive, GroupID: &groupB.ID}
	inactive := models.Member{ID: uuid.New(), FirstName: "Nik", LastName: "Kos", Status: models.MemberInactive, GroupID: &groupA.ID}
	store.CreateMember(ctx, &inA)
	store.CreateMember(ctx, &inB)
	store.CreateMember(ctx, &inactive)

	created, err := svc.BulkBilling(ctx, BulkBillingRequest{
		GroupIDs:   []uuid.UUID{groupA.ID},
		Title:      "Vadnina April 2024",
		Amount:     45,
		CostTypeID: ct.ID,
	})
	if err != nil {
		t.Fatalf("BulkBilling failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %d, want only the active member of group A", len(created))
	}
	if created[0].MemberID != inA.ID {
		t.Errorf("billed member = %v, want Luka", created[0].MemberID)
	}
	if created[0].Status != models.CostPending {
		t.Errorf("status = %v, want pending", created[0].Status)
	}
}

func TestBulkBillingRecurringTemplates(t *testing.T) {
	svc, store := testService()
	member, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	period := models.PeriodMonthly
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.BulkBilling(ctx, BulkBillingRequest{
		Title:              "Vadnina September 2024",
		Amount:             45,
		CostTypeID:         ct.ID,
		RecurringPeriod:    &period,
		RecurringStartDate: &start,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 1 || created[0].MemberID != member.ID {
		t.Fatalf("created = %+v, want one template for the seeded member", created)
	}
	tpl := created[0]
	if !tpl.IsTemplate() {
		t.Error("bulk billing with a period must create recurring templates")
	}
	if tpl.RecurringPeriod == nil || *tpl.RecurringPeriod != models.PeriodMonthly {
		t.Errorf("period = %v, want monthly", tpl.RecurringPeriod)
	}
	if tpl.RecurringStartDate == nil || !tpl.RecurringStartDate.Equal(start) {
		t.Errorf("start = %v, want %v", tpl.RecurringStartDate, start)
	}
}

func TestBulkBillingAllGroups(t *testing.T) {
	svc, store := testService()
	member, ct := seedMemberAndType(t, store)
	ctx := context.Background()

	created, err := svc.BulkBilling(ctx, BulkBillingRequest{
		Title: "Clanarina 2024", Amount: 25, CostTypeID: ct.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 1 || created[0].MemberID != member.ID {
		t.Errorf("created = %+v, empty group filter must bill every active member", created)
	}
}
