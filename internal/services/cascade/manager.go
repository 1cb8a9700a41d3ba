// Package cascade re-derives dependent state when a payment is edited or
// deleted: allocations are removed, touched costs are re-evaluated against
// their remaining allocations, and a linked bank transaction reverts to its
// pre-confirmation status.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/services/allocation"
	"tskpay-backend/internal/storage"
)

type Manager struct {
	store storage.Store
	log   *slog.Logger
}

func NewManager(store storage.Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Result reports what a cascade touched.
type Result struct {
	AffectedCostIDs       []uuid.UUID `json:"affectedCostIds"`
	RevertedTransactionID *uuid.UUID  `json:"revertedTransactionId"`
}

// DeletePayment removes the payment, its allocations, re-evaluates every
// cost the payment touched and reverts the linked bank transaction.
func (m *Manager) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*Result, error) {
	payment, err := storage.FindPayment(ctx, m.store, paymentID)
	if err != nil {
		return nil, err
	}

	allocations, err := m.store.Allocations(ctx)
	if err != nil {
		return nil, err
	}

	touched := make(map[uuid.UUID]bool)
	for _, a := range allocations {
		if a.PaymentID == paymentID {
			if err := m.store.DeleteAllocation(ctx, a.ID); err != nil {
				return nil, fmt.Errorf("delete allocation %s: %w", a.ID, err)
			}
			touched[a.CostID] = true
		}
	}

	result := &Result{}
	for costID := range touched {
		if err := m.reevaluateCost(ctx, costID); err != nil {
			return nil, err
		}
		result.AffectedCostIDs = append(result.AffectedCostIDs, costID)
	}

	if payment.BankTransactionID != nil {
		if err := m.revertTransaction(ctx, *payment.BankTransactionID); err != nil {
			return nil, err
		}
		result.RevertedTransactionID = payment.BankTransactionID
	}

	if err := m.store.DeletePayment(ctx, paymentID); err != nil {
		return nil, err
	}
	m.log.Info("payment deleted with cascade",
		"payment", paymentID,
		"costs_affected", len(result.AffectedCostIDs),
		"transaction_reverted", result.RevertedTransactionID != nil)
	return result, nil
}

// UpdatePaymentAmount changes the payment amount, drops its allocations and
// re-evaluates the costs they covered. The payment falls back to pending so
// the operator re-allocates against the new amount.
func (m *Manager) UpdatePaymentAmount(ctx context.Context, paymentID uuid.UUID, newAmount float64) (*Result, error) {
	payment, err := storage.FindPayment(ctx, m.store, paymentID)
	if err != nil {
		return nil, err
	}

	allocations, err := m.store.Allocations(ctx)
	if err != nil {
		return nil, err
	}

	touched := make(map[uuid.UUID]bool)
	for _, a := range allocations {
		if a.PaymentID == paymentID {
			if err := m.store.DeleteAllocation(ctx, a.ID); err != nil {
				return nil, err
			}
			touched[a.CostID] = true
		}
	}

	result := &Result{}
	for costID := range touched {
		if err := m.reevaluateCost(ctx, costID); err != nil {
			return nil, err
		}
		result.AffectedCostIDs = append(result.AffectedCostIDs, costID)
	}

	payment.Amount = newAmount
	payment.Status = models.PaymentPending
	if err := m.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}
	return result, nil
}

// ReevaluateCost recomputes the cost status from its remaining allocations.
// A cost stays paid only while allocations cover it in full.
func (m *Manager) reevaluateCost(ctx context.Context, costID uuid.UUID) error {
	cost, err := storage.FindCost(ctx, m.store, costID)
	if err != nil {
		return err
	}
	if cost.Status == models.CostCancelled {
		return nil
	}
	remaining, err := m.store.Allocations(ctx)
	if err != nil {
		return err
	}

	status := models.CostPending
	if allocation.Covered(*cost, remaining) {
		status = models.CostPaid
	}
	if cost.Status == status {
		return nil
	}
	cost.Status = status
	return m.store.UpdateCost(ctx, cost)
}

// revertTransaction returns a confirmed transaction to matched or unmatched,
// depending on whether it still has a matched payer, and clears its payment
// link.
func (m *Manager) revertTransaction(ctx context.Context, txID uuid.UUID) error {
	tx, err := storage.FindTransaction(ctx, m.store, txID)
	if err != nil {
		return err
	}
	if tx.MatchedParentID != nil {
		tx.Status = models.TransactionMatched
	} else {
		tx.Status = models.TransactionUnmatched
	}
	tx.PaymentID = nil
	return m.store.UpdateTransaction(ctx, tx)
}
