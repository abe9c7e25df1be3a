package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastobot_messages_total",
		Help: "Inbound messages handled, by routing mode.",
	}, []string{"mode"})

	expensesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastobot_expenses_total",
		Help: "Expenses committed to the ledger, by extraction source.",
	}, []string{"source"})

	paymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gastobot_payments_total",
		Help: "Group payments committed to the ledger.",
	})

	oracleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastobot_oracle_requests_total",
		Help: "Model extraction calls, by outcome.",
	}, []string{"outcome"})

	proposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastobot_proposals_total",
		Help: "Confirmation proposals, by final state.",
	}, []string{"state"})
)
