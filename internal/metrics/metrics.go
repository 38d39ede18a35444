package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for wmgr. A nil *Metrics is valid
// and records nothing, so components can take one unconditionally.
type Metrics struct {
	// Trade pipeline
	tradesTotal      *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	quoteDuration    *prometheus.HistogramVec
	priceImpact      *prometheus.HistogramVec

	// Solana RPC
	rpcCallsTotal     *prometheus.CounterVec
	rpcCallDuration   *prometheus.HistogramVec
	rpcRetries        *prometheus.CounterVec
	rpcRateLimitHits  prometheus.Counter
	confirmationWaits prometheus.Histogram

	// Trade journal
	journalWrites *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		tradesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wmgr_trades_total",
				Help: "Trades that reached a terminal state, by side and status",
			},
			[]string{"side", "status"},
		),
		stateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wmgr_trade_state_transitions_total",
				Help: "Trade state machine transitions by entered state",
			},
			[]string{"state"},
		),
		quoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wmgr_quote_duration_seconds",
				Help:    "Time from pool resolution to a slippage-bounded quote",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"side"},
		),
		priceImpact: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wmgr_quote_price_impact_percent",
				Help:    "Price impact of computed quotes in percent",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"side"},
		),
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wmgr_rpc_calls_total",
				Help: "Solana JSON-RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wmgr_rpc_call_duration_seconds",
				Help:    "Duration of Solana JSON-RPC calls including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		rpcRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wmgr_rpc_retries_total",
				Help: "Solana JSON-RPC retry attempts by method",
			},
			[]string{"method"},
		),
		rpcRateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wmgr_rpc_rate_limit_hits_total",
				Help: "Responses with HTTP 429 from the RPC endpoint",
			},
		),
		confirmationWaits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wmgr_confirmation_wait_seconds",
				Help:    "Time between submission and reaching the requested commitment",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		journalWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wmgr_journal_writes_total",
				Help: "Trade journal writes by sink and status",
			},
			[]string{"sink", "status"},
		),
	}
}

// RecordTrade records a trade reaching Done or Aborted.
func (m *Metrics) RecordTrade(side, status string) {
	if m == nil {
		return
	}
	m.tradesTotal.WithLabelValues(side, status).Inc()
}

func (m *Metrics) RecordStateTransition(state string) {
	if m == nil {
		return
	}
	m.stateTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordQuote(side string, d time.Duration, impactPercent float64) {
	if m == nil {
		return
	}
	m.quoteDuration.WithLabelValues(side).Observe(d.Seconds())
	m.priceImpact.WithLabelValues(side).Observe(impactPercent)
}

// RecordRPCCall records one logical RPC call (all attempts).
func (m *Metrics) RecordRPCCall(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcCallsTotal.WithLabelValues(method, status).Inc()
	m.rpcCallDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) RecordRPCRetry(method string) {
	if m == nil {
		return
	}
	m.rpcRetries.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.rpcRateLimitHits.Inc()
}

func (m *Metrics) RecordConfirmationWait(d time.Duration) {
	if m == nil {
		return
	}
	m.confirmationWaits.Observe(d.Seconds())
}

func (m *Metrics) RecordJournalWrite(sink, status string) {
	if m == nil {
		return
	}
	m.journalWrites.WithLabelValues(sink, status).Inc()
}
