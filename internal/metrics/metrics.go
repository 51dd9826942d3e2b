package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts transfers reaching a status
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_total",
			Help: "Total number of bridge transfers by status reached",
		},
		[]string{"status"},
	)

	// TransitionsTotal counts state machine transitions
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transitions_total",
			Help: "Total number of transfer status transitions",
		},
		[]string{"from", "to"},
	)

	// TransferDuration tracks time from submission to a terminal status
	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_duration_seconds",
			Help:    "Transfer duration from submission to terminal status in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"status"},
	)

	// TransferAmount tracks the amount of tokens accepted for transfer
	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_amount",
			Help:    "Amount of tokens accepted for transfer",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000, 10000},
		},
		[]string{"route", "token"},
	)

	// QuotesTotal counts quote requests by outcome
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_quotes_total",
			Help: "Total number of quote requests",
		},
		[]string{"result"},
	)

	// PendingTransfers is the number of non-terminal transfers seen by the last relayer scan
	PendingTransfers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_pending_transfers",
			Help: "Number of non-terminal transfers by status",
		},
		[]string{"status"},
	)

	// SignaturesTotal counts validator signature submissions
	SignaturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_signatures_total",
			Help: "Total number of validator signature submissions",
		},
		[]string{"result"},
	)

	// MessagesTotal counts cross-chain messages reaching a status
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_messages_total",
			Help: "Total number of cross-chain messages by status reached",
		},
		[]string{"status"},
	)

	// SweepExpired counts records closed by the deadline sweep
	SweepExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_sweep_closed_total",
			Help: "Total number of records closed by the deadline sweep",
		},
		[]string{"kind"},
	)

	// TransactionsSent counts transactions sent to each chain
	TransactionsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transactions_sent_total",
			Help: "Total number of transactions sent",
		},
		[]string{"chain", "status"},
	)

	// LatestObservedBlock tracks the latest block number seen per chain
	LatestObservedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_latest_observed_block",
			Help: "Latest block number observed on each chain",
		},
		[]string{"chain"},
	)

	// GasUsed tracks gas used for transactions
	GasUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_gas_used",
			Help:    "Gas used for transactions",
			Buckets: []float64{21000, 50000, 100000, 200000, 500000, 1000000},
		},
		[]string{"operation"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_rate_limited_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"route"},
	)

	// WebsocketClients tracks connected status subscribers
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_websocket_clients",
			Help: "Number of connected websocket subscribers",
		},
	)

	// ErrorsTotal counts errors by component
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
