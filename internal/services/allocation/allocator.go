// Package allocation selects and validates the split of a payment across
// outstanding costs.
package allocation

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
)

// Epsilon is the currency minor unit tolerance for amount comparisons.
const Epsilon = 0.01

// Entry is one proposed allocation of part of a payment to a cost.
type Entry struct {
	CostID uuid.UUID `json:"costId"`
	Amount float64   `json:"amount"`
}

// AutoSelect greedily fills the payment amount from the given pending costs
// in due-date order (earliest first, costs without a due date last). Each
// cost receives min(remaining, cost amount); the final cost touched may get
// a partial allocation. This is a deterministic bin-fill, not a subset-sum
// solver.
func AutoSelect(paymentAmount float64, costs []models.Cost) []Entry {
	sorted := make([]models.Cost, len(costs))
	copy(sorted, costs)
	SortByDueDate(sorted)

	var entries []Entry
	remaining := paymentAmount
	for _, c := range sorted {
		if remaining <= Epsilon {
			break
		}
		amount := math.Min(c.Amount, remaining)
		entries = append(entries, Entry{CostID: c.ID, Amount: amount})
		remaining -= amount
	}
	return entries
}

// Validate accepts a proposed allocation set only when it sums exactly to
// the payment amount within Epsilon. Over- and under-allocation are both
// rejected with the same error kind; the caller words them differently.
func Validate(paymentAmount float64, entries []Entry) error {
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	if math.Abs(total-paymentAmount) > Epsilon {
		return &apperr.MismatchError{PaymentAmount: paymentAmount, Allocated: total}
	}
	return nil
}

// SortByDueDate orders costs by due date ascending with nil due dates last.
// The order is part of the auto-select contract.
func SortByDueDate(costs []models.Cost) {
	sort.SliceStable(costs, func(i, j int) bool {
		a, b := costs[i].DueDate, costs[j].DueDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// AllocatedTotal sums the allocations targeting one cost.
func AllocatedTotal(costID uuid.UUID, allocations []models.PaymentAllocation) float64 {
	var total float64
	for _, a := range allocations {
		if a.CostID == costID {
			total += a.AllocatedAmount
		}
	}
	return total
}

// Covered reports whether the cost's allocations reach its full amount.
// There is no partial-paid state: a cost is paid only when covered in full.
func Covered(cost models.Cost, allocations []models.PaymentAllocation) bool {
	return AllocatedTotal(cost.ID, allocations) >= cost.Amount-Epsilon
}
