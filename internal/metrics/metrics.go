// Package metrics exposes prometheus counters for the reconciliation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tskpay_transactions_imported_total",
		Help: "Bank transactions processed during statement import.",
	}, []string{"result"}) // imported or skipped

	MatchesByConfidence = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tskpay_matches_total",
		Help: "Payer match outcomes by confidence tier.",
	}, []string{"confidence"})

	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tskpay_payments_confirmed_total",
		Help: "Payments whose allocations were committed.",
	})

	RecurringGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tskpay_recurring_costs_generated_total",
		Help: "Cost instances generated from recurring templates.",
	})
)
