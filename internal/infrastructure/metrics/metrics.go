package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated  *prometheus.CounterVec
	TransactionsApproved prometheus.Counter
	TransactionsRejected prometheus.Counter
	TransactionDuration  prometheus.Histogram
	TransactionAmount    *prometheus.HistogramVec
	TransactionErrors    *prometheus.CounterVec

	// Account metrics
	AccountsCreated   *prometheus.CounterVec
	AccountOperations *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationDiscrepancies prometheus.Gauge

	// Store metrics
	StoreRetries *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_transactions_created_total",
				Help: "Total number of transactions created by type and status",
			},
			[]string{"type", "status"},
		),
		TransactionsApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_transactions_approved_total",
			Help: "Total number of deferred transactions approved",
		}),
		TransactionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_transactions_rejected_total",
			Help: "Total number of deferred transactions rejected",
		}),
		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankledger_transaction_duration_seconds",
			Help:    "Duration of transaction processing",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_transaction_amount",
				Help:    "Transaction amounts in the canonical currency",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),
		TransactionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_transaction_errors_total",
				Help: "Total number of rejected transaction requests by reason",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_accounts_created_total",
				Help: "Total number of accounts created by type",
			},
			[]string{"type"},
		),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_account_operations_total",
				Help: "Total account lifecycle operations by type",
			},
			[]string{"operation"},
		),

		ReconciliationDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankledger_reconciliation_discrepancies",
			Help: "Accounts whose balance disagreed with their transactions at the last check",
		}),

		StoreRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_store_retries_total",
				Help: "Total retried store transactions by reason",
			},
			[]string{"reason"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_rate_limit_hits_total",
			Help: "Total rate limit hits",
		}),
	}
}
