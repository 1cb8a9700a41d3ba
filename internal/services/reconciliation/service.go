// Package reconciliation orchestrates statement import, transaction
// confirmation and payment allocation.
package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"tskpay-backend/internal/camt"
	"tskpay-backend/internal/metrics"
	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/allocation"
	"tskpay-backend/internal/services/cascade"
	"tskpay-backend/internal/services/matching"
	"tskpay-backend/internal/storage"
)

type Service struct {
	store   storage.Store
	cascade *cascade.Manager
	log     *slog.Logger

	// pendingNew tracks payments created for an allocation dialog that has
	// not been committed yet. The flag is checked and cleared synchronously
	// under the mutex, so a cancel racing a commit resolves to exactly one
	// winner.
	mu         sync.Mutex
	pendingNew map[uuid.UUID]bool
}

func NewService(store storage.Store, cascadeMgr *cascade.Manager, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		cascade:    cascadeMgr,
		log:        log,
		pendingNew: make(map[uuid.UUID]bool),
	}
}

// ImportSummary reports what one statement import did.
type ImportSummary struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
}

// ImportStatement parses a camt.052 file, matches each credit entry to a
// payer and persists the results. Entries whose bank reference was already
// imported are skipped, so re-importing the same file is idempotent for
// referenced entries. A parse failure marks the statement failed and leaves
// previously imported data untouched.
func (s *Service) ImportStatement(ctx context.Context, fileName string, raw []byte) (*models.BankStatement, *ImportSummary, error) {
	stmt := &models.BankStatement{
		ID:         uuid.New(),
		FileName:   fileName,
		ImportedAt: time.Now(),
		Status:     models.StatementProcessing,
	}
	if err := s.store.CreateStatement(ctx, stmt); err != nil {
		return nil, nil, err
	}

	header, parsed, err := camt.Parse(raw)
	if err != nil {
		stmt.Status = models.StatementFailed
		if uerr := s.store.UpdateStatement(ctx, stmt); uerr != nil {
			s.log.Error("mark statement failed", "statement", stmt.ID, "error", uerr)
		}
		return stmt, nil, err
	}
	stmt.AccountIBAN = header.AccountIBAN
	stmt.MessageID = header.MessageID

	existing, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, tx := range existing {
		if tx.BankReference != "" {
			seen[tx.BankReference] = true
		}
	}

	parents, err := s.store.Parents(ctx)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, nil, err
	}

	summary := &ImportSummary{}
	for _, p := range parsed {
		if seen[p.ID] {
			summary.Skipped++
			metrics.TransactionsImported.WithLabelValues("skipped").Inc()
			continue
		}
		seen[p.ID] = true

		match := matching.Match(matching.Candidate{
			PayerName:   p.PayerName,
			PayerIBAN:   p.PayerIBAN,
			Description: p.Description,
		}, parents, members)

		tx := &models.BankTransaction{
			ID:              uuid.New(),
			BankStatementID: stmt.ID,
			TransactionDate: p.BookingDate,
			Amount:          p.Amount,
			Currency:        p.Currency,
			PayerName:       p.PayerName,
			PayerIBAN:       p.PayerIBAN,
			Description:     p.Description,
			Reference:       p.Reference,
			BankReference:   p.ID,
			BankFee:         p.BankFee,
			MatchedParentID: match.ParentID,
			MatchConfidence: match.Confidence,
			MatchDetails:    matchDetails(match),
			Status:          models.TransactionUnmatched,
			CreatedAt:       time.Now(),
		}
		if match.ParentID != nil {
			tx.Status = models.TransactionMatched
			summary.Matched++
		} else {
			summary.Unmatched++
		}
		if err := s.store.CreateTransaction(ctx, tx); err != nil {
			stmt.Status = models.StatementFailed
			if uerr := s.store.UpdateStatement(ctx, stmt); uerr != nil {
				s.log.Error("mark statement failed", "statement", stmt.ID, "error", uerr)
			}
			return stmt, nil, fmt.Errorf("persist transaction %s: %w", tx.BankReference, err)
		}
		metrics.TransactionsImported.WithLabelValues("imported").Inc()
		metrics.MatchesByConfidence.WithLabelValues(string(match.Confidence)).Inc()
	}

	stmt.Status = models.StatementCompleted
	stmt.TotalTransactions = summary.Matched + summary.Unmatched
	stmt.MatchedTransactions = summary.Matched
	stmt.UnmatchedTransactions = summary.Unmatched
	stmt.SkippedTransactions = summary.Skipped
	if err := s.store.UpdateStatement(ctx, stmt); err != nil {
		return nil, nil, err
	}

	s.log.Info("statement imported",
		"file", fileName,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"skipped", summary.Skipped)
	return stmt, summary, nil
}

func matchDetails(m matching.Result) datatypes.JSON {
	if m.Confidence == models.ConfidenceNone {
		return nil
	}
	details, _ := json.Marshal(map[string]any{
		"confidence": m.Confidence,
		"reason":     m.Reason,
	})
	return details
}

// SetTransactionMatch applies an operator override of the matched payer.
// Manual picks carry low confidence; clearing the payer clears the match.
func (s *Service) SetTransactionMatch(ctx context.Context, txID uuid.UUID, parentID *uuid.UUID) (*models.BankTransaction, error) {
	tx, err := storage.FindTransaction(ctx, s.store, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionConfirmed {
		return nil, fmt.Errorf("transaction %s is already confirmed", txID)
	}
	tx.MatchedParentID = parentID
	if parentID != nil {
		tx.MatchConfidence = models.ConfidenceLow
		tx.Status = models.TransactionMatched
	} else {
		tx.MatchConfidence = models.ConfidenceNone
		tx.Status = models.TransactionUnmatched
	}
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// ConfirmTransaction creates a pending payment from a matched transaction
// and opens the allocation flow. The payment stays flagged as uncommitted
// until CommitAllocation or CancelAllocation resolves it.
func (s *Service) ConfirmTransaction(ctx context.Context, txID uuid.UUID) (*models.Payment, error) {
	tx, err := storage.FindTransaction(ctx, s.store, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionConfirmed {
		return nil, fmt.Errorf("transaction %s is already confirmed", txID)
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		ParentID:          tx.MatchedParentID,
		PayerName:         tx.PayerName,
		Amount:            tx.Amount,
		PaymentDate:       tx.TransactionDate,
		PaymentMethod:     models.MethodBankTransfer,
		ReferenceNumber:   tx.Reference,
		Notes:             "Plačilo iz bančnega izpiska: " + tx.Description,
		ImportedFromBank:  true,
		BankTransactionID: &tx.ID,
		Status:            models.PaymentPending,
		CreatedAt:         time.Now(),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	tx.Status = models.TransactionConfirmed
	tx.PaymentID = &payment.ID
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.markPendingNew(payment.ID)
	s.audit(ctx, models.AuditImportConfirmed,
		fmt.Sprintf("Transakcija %s potrjena v plačilo %.2f", tx.BankReference, tx.Amount),
		map[string]any{"transactionId": tx.ID, "paymentId": payment.ID})
	return payment, nil
}

// CreateManualPayment records a payment entered by hand. When it has a
// resolved payer the allocation flow opens immediately, so the payment is
// flagged for rollback-on-cancel like an imported one.
func (s *Service) CreateManualPayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New()
	payment.ImportedFromBank = false
	payment.BankTransactionID = nil
	payment.Status = models.PaymentPending
	payment.CreatedAt = time.Now()
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = models.MethodOther
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	if payment.ParentID != nil {
		s.markPendingNew(payment.ID)
	}
	s.audit(ctx, models.AuditPaymentCreated,
		fmt.Sprintf("Ročno plačilo %.2f", payment.Amount),
		map[string]any{"paymentId": payment.ID})
	return payment, nil
}

// CandidateCosts returns the pending costs a payment may be allocated to:
// the costs of the payer's members when the payment has a payer, otherwise
// every pending cost. Sorted by due date, nulls last.
func (s *Service) CandidateCosts(ctx context.Context, paymentID uuid.UUID) ([]models.Cost, error) {
	payment, err := storage.FindPayment(ctx, s.store, paymentID)
	if err != nil {
		return nil, err
	}
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return nil, err
	}

	var memberFilter map[uuid.UUID]bool
	if payment.ParentID != nil {
		members, err := s.store.Members(ctx)
		if err != nil {
			return nil, err
		}
		memberFilter = make(map[uuid.UUID]bool)
		for _, m := range members {
			if m.HasParent(*payment.ParentID) {
				memberFilter[m.ID] = true
			}
		}
	}

	var candidates []models.Cost
	for _, c := range costs {
		if c.Status != models.CostPending || c.IsTemplate() {
			continue
		}
		if memberFilter != nil && !memberFilter[c.MemberID] {
			continue
		}
		candidates = append(candidates, c)
	}
	allocation.SortByDueDate(candidates)
	return candidates, nil
}

// AutoSelect proposes an allocation set for the payment without persisting
// anything.
func (s *Service) AutoSelect(ctx context.Context, paymentID uuid.UUID) ([]allocation.Entry, error) {
	payment, err := storage.FindPayment(ctx, s.store, paymentID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.CandidateCosts(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return allocation.AutoSelect(payment.Amount, candidates), nil
}

// CommitAllocation validates and persists the allocation set, marks fully
// covered costs paid and confirms the payment. The payment must have a
// payer; linking one at commit time is allowed for previously unmatched
// payments. Each entry is capped at the cost's remaining amount, so a cost
// never collects allocations beyond its own amount. The payment moves
// through allocated to confirmed. Committing clears the uncommitted flag
// first, so a concurrent cancel becomes a no-op.
func (s *Service) CommitAllocation(ctx context.Context, paymentID uuid.UUID, entries []allocation.Entry, parentID *uuid.UUID) error {
	s.takePendingNew(paymentID)

	payment, err := storage.FindPayment(ctx, s.store, paymentID)
	if err != nil {
		return err
	}
	if payment.ParentID == nil && parentID == nil {
		return fmt.Errorf("payment %s has no payer; link a parent before allocating", paymentID)
	}
	if err := allocation.Validate(payment.Amount, entries); err != nil {
		return err
	}

	existing, err := s.store.Allocations(ctx)
	if err != nil {
		return err
	}
	committed := make(map[uuid.UUID]float64, len(entries))
	for _, e := range entries {
		cost, err := storage.FindCost(ctx, s.store, e.CostID)
		if err != nil {
			return err
		}
		remaining := cost.Amount - allocation.AllocatedTotal(e.CostID, existing) - committed[e.CostID]
		if e.Amount > remaining+allocation.Epsilon {
			return fmt.Errorf("allocation %.2f exceeds remaining %.2f on cost %s", e.Amount, remaining, cost.ID)
		}
		committed[e.CostID] += e.Amount
		alloc := &models.PaymentAllocation{
			ID:              uuid.New(),
			PaymentID:       paymentID,
			CostID:          e.CostID,
			AllocatedAmount: e.Amount,
			CreatedAt:       time.Now(),
		}
		if err := s.store.CreateAllocation(ctx, alloc); err != nil {
			return err
		}
	}

	payment.Status = models.PaymentAllocated
	if parentID != nil {
		payment.ParentID = parentID
	}
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return err
	}

	allocations, err := s.store.Allocations(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		cost, err := storage.FindCost(ctx, s.store, e.CostID)
		if err != nil {
			return err
		}
		if cost.Status == models.CostPending && allocation.Covered(*cost, allocations) {
			cost.Status = models.CostPaid
			if err := s.store.UpdateCost(ctx, cost); err != nil {
				return err
			}
		}
	}

	payment.Status = models.PaymentConfirmed
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return err
	}
	metrics.PaymentsConfirmed.Inc()
	s.log.Info("payment allocated", "payment", paymentID, "allocations", len(entries))
	return nil
}

// CancelAllocation closes an allocation dialog without committing. If the
// payment was created for this dialog and never confirmed, it is rolled
// back: the payment is deleted and a linked transaction reverts to its
// pre-confirmation status. Returns whether a rollback happened.
func (s *Service) CancelAllocation(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	if !s.takePendingNew(paymentID) {
		return false, nil
	}
	if _, err := s.cascade.DeletePayment(ctx, paymentID); err != nil {
		return false, err
	}
	s.log.Info("uncommitted payment rolled back", "payment", paymentID)
	return true, nil
}

// DeletePayment removes a payment with full cascade.
func (s *Service) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*cascade.Result, error) {
	result, err := s.cascade.DeletePayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditPaymentDeleted,
		"Plačilo izbrisano",
		map[string]any{"paymentId": paymentID})
	return result, nil
}

// DeleteStatement removes a statement and its transactions. Payments made
// from confirmed transactions survive; only the transaction link is lost.
func (s *Service) DeleteStatement(ctx context.Context, statementID uuid.UUID) error {
	if _, err := storage.FindStatement(ctx, s.store, statementID); err != nil {
		return err
	}
	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		return err
	}
	for _, tx := range transactions {
		if tx.BankStatementID == statementID {
			if err := s.store.DeleteTransaction(ctx, tx.ID); err != nil {
				return err
			}
		}
	}
	if err := s.store.DeleteStatement(ctx, statementID); err != nil {
		return err
	}
	s.audit(ctx, models.AuditStatementDeleted,
		"Bančni izpisek izbrisan",
		map[string]any{"statementId": statementID})
	return nil
}

func (s *Service) markPendingNew(paymentID uuid.UUID) {
	s.mu.Lock()
	s.pendingNew[paymentID] = true
	s.mu.Unlock()
}

// takePendingNew atomically checks and clears the uncommitted flag.
func (s *Service) takePendingNew(paymentID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingNew[paymentID] {
		delete(s.pendingNew, paymentID)
		return true
	}
	return false
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
