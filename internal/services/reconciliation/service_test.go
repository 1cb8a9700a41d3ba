package reconciliation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/allocation"
	"tskpay-backend/internal/services/cascade"
	"tskpay-backend/internal/storage"
	"tskpay-backend/internal/storage/memstore"
)

const statementXML = `<?xml version="1.0"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.052.001.08">
  <BkToCstmrAcctRpt>
    <GrpHdr><MsgId>MSG-1</MsgId></GrpHdr>
    <Rpt>
      <Acct><Id><IBAN>SI56020170014356205</IBAN></Id></Acct>
      <Ntry>
        <Amt Ccy="EUR">50.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <BookgDt><Dt>2024-03-01</Dt></BookgDt>
        <AcctSvcrRef>REF-A</AcctSvcrRef>
        <NtryDtls><TxDtls>
          <RltdPties><Dbtr><Nm>Novak Janez</Nm></Dbtr></RltdPties>
        </TxDtls></NtryDtls>
      </Ntry>
      <Ntry>
        <Amt Ccy="EUR">20.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <BookgDt><Dt>2024-03-01</Dt></BookgDt>
        <AcctSvcrRef>REF-B</AcctSvcrRef>
      </Ntry>
    </Rpt>
  </BkToCstmrAcctRpt>
</Document>`

func testService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, cascade.NewManager(store, log), log), store
}

func seedRoster(t *testing.T, store storage.Store) (models.Parent, models.Member) {
	t.Helper()
	ctx := context.Background()
	parent := models.Parent{ID: uuid.New(), FirstName: "Janez", LastName: "Novak"}
	if err := store.CreateParent(ctx, &parent); err != nil {
		t.Fatal(err)
	}
	member := models.Member{
		ID: uuid.New(), FirstName: "Ana", LastName: "Novak",
		Status: models.MemberActive, ParentIDs: []uuid.UUID{parent.ID},
	}
	if err := store.CreateMember(ctx, &member); err != nil {
		t.Fatal(err)
	}
	return parent, member
}

func TestImportStatement(t *testing.T) {
	svc, store := testService(t)
	seedRoster(t, store)
	ctx := context.Background()

	stmt, summary, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML))
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if stmt.Status != models.StatementCompleted {
		t.Errorf("statement status = %v", stmt.Status)
	}
	if summary.Matched != 1 || summary.Unmatched != 1 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 1 matched, 1 unmatched", summary)
	}

	transactions, _ := store.Transactions(ctx)
	if len(transactions) != 2 {
		t.Fatalf("got %d transactions", len(transactions))
	}
}

func TestImportStatementIdempotent(t *testing.T) {
	svc, store := testService(t)
	seedRoster(t, store)
	ctx := context.Background()

	if _, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML)); err != nil {
		t.Fatal(err)
	}
	_, summary, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 2 || summary.Matched != 0 || summary.Unmatched != 0 {
		t.Errorf("second import summary = %+v, want everything skipped", summary)
	}
	transactions, _ := store.Transactions(ctx)
	if len(transactions) != 2 {
		t.Errorf("got %d transactions after re-import, want 2", len(transactions))
	}
}

func TestImportStatementMalformed(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	stmt, _, err := svc.ImportStatement(ctx, "bad.xml", []byte("<Document><broken"))
	if err == nil {
		t.Fatal("want parse error")
	}
	if stmt.Status != models.StatementFailed {
		t.Errorf("statement status = %v, want failed", stmt.Status)
	}
	transactions, _ := store.Transactions(ctx)
	if len(transactions) != 0 {
		t.Errorf("no transactions must be created on parse failure")
	}
}

// txFailStore refuses every transaction write.
type txFailStore struct {
	*memstore.Store
}

func (s *txFailStore) CreateTransaction(ctx context.Context, tx *models.BankTransaction) error {
	return errors.New("write refused")
}

func TestImportStatementPersistFailure(t *testing.T) {
	store := &txFailStore{Store: memstore.New()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, cascade.NewManager(store, log), log)
	ctx := context.Background()

	stmt, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML))
	if err == nil {
		t.Fatal("want persist error")
	}
	if stmt == nil || stmt.Status != models.StatementFailed {
		t.Fatalf("statement = %+v, want failed", stmt)
	}
	statements, _ := store.Statements(ctx)
	if len(statements) != 1 || statements[0].Status != models.StatementFailed {
		t.Errorf("stored statements = %+v, a mid-import failure must not stay processing", statements)
	}
}

func confirmFirstMatched(t *testing.T, svc *Service, store storage.Store) *models.Payment {
	t.Helper()
	ctx := context.Background()
	transactions, _ := store.Transactions(ctx)
	for _, tx := range transactions {
		if tx.Status == models.TransactionMatched {
			payment, err := svc.ConfirmTransaction(ctx, tx.ID)
			if err != nil {
				t.Fatalf("ConfirmTransaction failed: %v", err)
			}
			return payment
		}
	}
	t.Fatal("no matched transaction to confirm")
	return nil
}

func TestConfirmAndCommitAllocation(t *testing.T) {
	svc, store := testService(t)
	parent, member := seedRoster(t, store)
	ctx := context.Background()

	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	cost := models.Cost{
		ID: uuid.New(), MemberID: member.ID, Title: "Vadnina Marec 2024",
		Amount: 50, DueDate: &due, Status: models.CostPending,
	}
	store.CreateCost(ctx, &cost)

	if _, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML)); err != nil {
		t.Fatal(err)
	}
	payment := confirmFirstMatched(t, svc, store)
	if payment.ParentID == nil || *payment.ParentID != parent.ID {
		t.Errorf("payment parent = %v, want matched parent", payment.ParentID)
	}
	if !payment.ImportedFromBank || payment.Status != models.PaymentPending {
		t.Errorf("payment = %+v, want pending imported", payment)
	}

	entries, err := svc.AutoSelect(ctx, payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || math.Abs(entries[0].Amount-50) > 0.01 {
		t.Fatalf("auto-select entries = %+v", entries)
	}

	if err := svc.CommitAllocation(ctx, payment.ID, entries, nil); err != nil {
		t.Fatalf("CommitAllocation failed: %v", err)
	}

	gotCost, _ := storage.FindCost(ctx, store, cost.ID)
	if gotCost.Status != models.CostPaid {
		t.Errorf("cost status = %v, want paid", gotCost.Status)
	}
	gotPayment, _ := storage.FindPayment(ctx, store, payment.ID)
	if gotPayment.Status != models.PaymentConfirmed {
		t.Errorf("payment status = %v, want confirmed", gotPayment.Status)
	}
}

func TestCommitAllocationMismatch(t *testing.T) {
	svc, store := testService(t)
	_, member := seedRoster(t, store)
	ctx := context.Background()

	cost := models.Cost{ID: uuid.New(), MemberID: member.ID, Title: "Vadnina", Amount: 30, Status: models.CostPending}
	store.CreateCost(ctx, &cost)

	if _, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML)); err != nil {
		t.Fatal(err)
	}
	payment := confirmFirstMatched(t, svc, store)

	err := svc.CommitAllocation(ctx, payment.ID, []allocation.Entry{{CostID: cost.ID, Amount: 30}}, nil)
	if err == nil {
		t.Fatal("want mismatch error for 30.00 against a 50.00 payment")
	}
	allocations, _ := store.Allocations(ctx)
	if len(allocations) != 0 {
		t.Errorf("failed commit must not leave allocations, got %d", len(allocations))
	}
}

func TestCommitAllocationCapsAtRemaining(t *testing.T) {
	svc, store := testService(t)
	parent, member := seedRoster(t, store)
	ctx := context.Background()

	cost := models.Cost{ID: uuid.New(), MemberID: member.ID, Title: "Vadnina", Amount: 40, Status: models.CostPending}
	store.CreateCost(ctx, &cost)
	store.CreateAllocation(ctx, &models.PaymentAllocation{
		ID: uuid.New(), PaymentID: uuid.New(), CostID: cost.ID, AllocatedAmount: 20,
	})

	payment, err := svc.CreateManualPayment(ctx, &models.Payment{
		ParentID: &parent.ID, Amount: 40, PaymentDate: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	err = svc.CommitAllocation(ctx, payment.ID, []allocation.Entry{{CostID: cost.ID, Amount: 40}}, nil)
	if err == nil {
		t.Fatal("a 40.00 entry on a 40.00 cost with 20.00 already allocated must be rejected")
	}
	allocations, _ := store.Allocations(ctx)
	if total := allocation.AllocatedTotal(cost.ID, allocations); total > cost.Amount+allocation.Epsilon {
		t.Errorf("allocations on cost total %.2f, must never exceed %.2f", total, cost.Amount)
	}
}

func TestCommitAllocationRequiresPayer(t *testing.T) {
	svc, store := testService(t)
	parent, member := seedRoster(t, store)
	ctx := context.Background()

	cost := models.Cost{ID: uuid.New(), MemberID: member.ID, Title: "Vadnina", Amount: 20, Status: models.CostPending}
	store.CreateCost(ctx, &cost)

	payment, err := svc.CreateManualPayment(ctx, &models.Payment{
		PayerName: "Neznani plačnik", Amount: 20, PaymentDate: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	entries := []allocation.Entry{{CostID: cost.ID, Amount: 20}}
	if err := svc.CommitAllocation(ctx, payment.ID, entries, nil); err == nil {
		t.Fatal("payer-less payment must not commit without a parent")
	}
	if err := svc.CommitAllocation(ctx, payment.ID, entries, &parent.ID); err != nil {
		t.Fatalf("commit with a parent passed in failed: %v", err)
	}
	got, _ := storage.FindPayment(ctx, store, payment.ID)
	if got.ParentID == nil || *got.ParentID != parent.ID {
		t.Errorf("payment parent = %v, want linked at commit", got.ParentID)
	}
}

// statusRecorder captures every payment status written through the store.
type statusRecorder struct {
	*memstore.Store
	statuses []models.PaymentStatus
}

func (r *statusRecorder) UpdatePayment(ctx context.Context, p *models.Payment) error {
	r.statuses = append(r.statuses, p.Status)
	return r.Store.UpdatePayment(ctx, p)
}

func TestCommitAllocationStatusSteps(t *testing.T) {
	store := &statusRecorder{Store: memstore.New()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, cascade.NewManager(store, log), log)
	ctx := context.Background()

	parent := models.Parent{ID: uuid.New(), FirstName: "Janez", LastName: "Novak"}
	store.CreateParent(ctx, &parent)
	member := models.Member{ID: uuid.New(), FirstName: "Ana", LastName: "Novak", Status: models.MemberActive, ParentIDs: []uuid.UUID{parent.ID}}
	store.CreateMember(ctx, &member)
	cost := models.Cost{ID: uuid.New(), MemberID: member.ID, Title: "Vadnina", Amount: 50, Status: models.CostPending}
	store.CreateCost(ctx, &cost)

	payment, err := svc.CreateManualPayment(ctx, &models.Payment{
		ParentID: &parent.ID, Amount: 50, PaymentDate: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.CommitAllocation(ctx, payment.ID, []allocation.Entry{{CostID: cost.ID, Amount: 50}}, nil); err != nil {
		t.Fatal(err)
	}

	want := []models.PaymentStatus{models.PaymentAllocated, models.PaymentConfirmed}
	if len(store.statuses) != len(want) {
		t.Fatalf("status writes = %v, want %v", store.statuses, want)
	}
	for i := range want {
		if store.statuses[i] != want[i] {
			t.Errorf("status write %d = %v, want %v", i, store.statuses[i], want[i])
		}
	}
}

func TestCancelAllocationRollsBack(t *testing.T) {
	svc, store := testService(t)
	seedRoster(t, store)
	ctx := context.Background()

	if _, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML)); err != nil {
		t.Fatal(err)
	}
	payment := confirmFirstMatched(t, svc, store)
	txID := *payment.BankTransactionID

	rolledBack, err := svc.CancelAllocation(ctx, payment.ID)
	if err != nil {
		t.Fatalf("CancelAllocation failed: %v", err)
	}
	if !rolledBack {
		t.Fatal("freshly confirmed payment must roll back on cancel")
	}

	if _, err := storage.FindPayment(ctx, store, payment.ID); err == nil {
		t.Error("payment must be deleted on rollback")
	}
	tx, _ := storage.FindTransaction(ctx, store, txID)
	if tx.Status != models.TransactionMatched {
		t.Errorf("tx status = %v, want reverted to matched", tx.Status)
	}
	if tx.PaymentID != nil {
		t.Error("tx payment link must be cleared")
	}
	allocations, _ := store.Allocations(ctx)
	if len(allocations) != 0 {
		t.Errorf("allocations after rollback = %d, want 0", len(allocations))
	}
}

func TestCancelAfterCommitIsNoOp(t *testing.T) {
	svc, store := testService(t)
	_, member := seedRoster(t, store)
	ctx := context.Background()

	cost := models.Cost{ID: uuid.New(), MemberID: member.ID, Title: "Vadnina", Amount: 50, Status: models.CostPending}
	store.CreateCost(ctx, &cost)

	if _, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML)); err != nil {
		t.Fatal(err)
	}
	payment := confirmFirstMatched(t, svc, store)
	if err := svc.CommitAllocation(ctx, payment.ID, []allocation.Entry{{CostID: cost.ID, Amount: 50}}, nil); err != nil {
		t.Fatal(err)
	}

	rolledBack, err := svc.CancelAllocation(ctx, payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rolledBack {
		t.Error("cancel after commit must not roll anything back")
	}
	if _, err := storage.FindPayment(ctx, store, payment.ID); err != nil {
		t.Error("committed payment must survive a late cancel")
	}
}

func TestDeleteStatementRemovesTransactions(t *testing.T) {
	svc, store := testService(t)
	seedRoster(t, store)
	ctx := context.Background()

	stmt, _, err := svc.ImportStatement(ctx, "izpisek.xml", []byte(statementXML))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteStatement(ctx, stmt.ID); err != nil {
		t.Fatalf("DeleteStatement failed: %v", err)
	}
	transactions, _ := store.Transactions(ctx)
	if len(transactions) != 0 {
		t.Errorf("transactions left = %d, want 0", len(transactions))
	}
	statements, _ := store.Statements(ctx)
	if len(statements) != 0 {
		t.Errorf("statements left = %d, want 0", len(statements))
	}
}
