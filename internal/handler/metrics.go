package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_engine",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders persisted successfully",
		},
	)

	ordersRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_engine",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Total number of orders rejected by validation or total reconciliation",
		},
	)

	ordersFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_engine",
			Subsystem: "orders",
			Name:      "failed_total",
			Help:      "Total number of order operations that failed on persistence",
		},
	)

	statusChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_engine",
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Total number of successful status transitions",
		},
	)
)
