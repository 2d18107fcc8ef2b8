package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FundCycle Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all FundCycle metrics
type Collector struct {
	// Cycle metrics
	PhaseTransitionsTotal *prometheus.CounterVec
	CurrentCycle          prometheus.Gauge
	PhaseAge              prometheus.Gauge
	SettlementLatency     *prometheus.HistogramVec

	// Fund metrics
	PoolValue        prometheus.Gauge
	CommissionPool   prometheus.Gauge
	ShareSupply      prometheus.Gauge
	ReputationSupply prometheus.Gauge
	ProfitTotal      *prometheus.CounterVec
	CommissionPaid   *prometheus.CounterVec

	// Flow metrics
	DepositsTotal    *prometheus.CounterVec
	DepositValue     *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	WithdrawalValue  *prometheus.CounterVec

	// Investment metrics
	InvestmentsOpened *prometheus.CounterVec
	InvestmentsClosed *prometheus.CounterVec
	InvestmentReturn  *prometheus.HistogramVec
	TradesTotal       *prometheus.CounterVec
	TradeValue        *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
	BlockTime   prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
		collector.registerAll()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{}

	// Cycle metrics
	c.PhaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "cycle",
			Name:      "phase_transitions_total",
			Help:      "Total number of phase transitions",
		},
		[]string{"from", "to"},
	)

	c.CurrentCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "cycle",
			Name:      "current_number",
			Help:      "Current cycle number",
		},
	)

	c.PhaseAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "cycle",
			Name:      "phase_age_seconds",
			Help:      "Seconds since the current phase started",
		},
	)

	c.SettlementLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundcycle",
			Subsystem: "cycle",
			Name:      "settlement_latency_ms",
			Help:      "End-of-cycle settlement latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"result"},
	)

	// Fund metrics
	c.PoolValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "pool_value",
			Help:      "Pool value in reference units",
		},
	)

	c.CommissionPool = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "commission_pool",
			Help:      "Undistributed commission in reference units",
		},
	)

	c.ShareSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "share_supply",
			Help:      "Total outstanding fund shares",
		},
	)

	c.ReputationSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "reputation_supply",
			Help:      "Total outstanding reputation tokens",
		},
	)

	c.ProfitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "profit_total",
			Help:      "Cumulative settled profit in reference units",
		},
		[]string{"sign"},
	)

	c.CommissionPaid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "fund",
			Name:      "commission_paid_total",
			Help:      "Cumulative commission paid out in reference units",
		},
		[]string{"form"},
	)

	// Flow metrics
	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "flows",
			Name:      "deposits_total",
			Help:      "Total number of deposits",
		},
		[]string{"asset"},
	)

	c.DepositValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "flows",
			Name:      "deposit_value",
			Help:      "Cumulative deposit value in reference units",
		},
		[]string{"asset"},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "flows",
			Name:      "withdrawals_total",
			Help:      "Total number of withdrawals",
		},
		[]string{"asset"},
	)

	c.WithdrawalValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "flows",
			Name:      "withdrawal_value",
			Help:      "Cumulative withdrawal value in reference units",
		},
		[]string{"asset"},
	)

	// Investment metrics
	c.InvestmentsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "investments",
			Name:      "opened_total",
			Help:      "Total number of investments opened",
		},
		[]string{"asset"},
	)

	c.InvestmentsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "investments",
			Name:      "closed_total",
			Help:      "Total number of investments closed",
		},
		[]string{"asset", "outcome"},
	)

	c.InvestmentReturn = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundcycle",
			Subsystem: "investments",
			Name:      "return_ratio",
			Help:      "Sell/buy price ratio at investment close",
			Buckets:   []float64{0.25, 0.5, 0.75, 0.9, 1.0, 1.1, 1.25, 1.5, 2.0, 4.0},
		},
		[]string{"asset"},
	)

	c.TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "trades",
			Name:      "total",
			Help:      "Total number of venue trades executed",
		},
		[]string{"src", "dest"},
	)

	c.TradeValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "trades",
			Name:      "value",
			Help:      "Cumulative traded value in reference units",
		},
		[]string{"src", "dest"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundcycle",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message delivery latency in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active channel subscriptions",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundcycle",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundcycle",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "code"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.BlockTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundcycle",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Last block processing time in milliseconds",
		},
	)

	return c
}

func (c *Collector) registerAll() {
	// Cycle metrics
	prometheus.MustRegister(c.PhaseTransitionsTotal)
	prometheus.MustRegister(c.CurrentCycle)
	prometheus.MustRegister(c.PhaseAge)
	prometheus.MustRegister(c.SettlementLatency)

	// Fund metrics
	prometheus.MustRegister(c.PoolValue)
	prometheus.MustRegister(c.CommissionPool)
	prometheus.MustRegister(c.ShareSupply)
	prometheus.MustRegister(c.ReputationSupply)
	prometheus.MustRegister(c.ProfitTotal)
	prometheus.MustRegister(c.CommissionPaid)

	// Flow metrics
	prometheus.MustRegister(c.DepositsTotal)
	prometheus.MustRegister(c.DepositValue)
	prometheus.MustRegister(c.WithdrawalsTotal)
	prometheus.MustRegister(c.WithdrawalValue)

	// Investment metrics
	prometheus.MustRegister(c.InvestmentsOpened)
	prometheus.MustRegister(c.InvestmentsClosed)
	prometheus.MustRegister(c.InvestmentReturn)
	prometheus.MustRegister(c.TradesTotal)
	prometheus.MustRegister(c.TradeValue)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)

	// System metrics
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
}

// ============ Recording Helpers ============

// RecordPhaseTransition records a phase transition
func (c *Collector) RecordPhaseTransition(from, to string, cycleNumber uint64) {
	c.PhaseTransitionsTotal.WithLabelValues(from, to).Inc()
	c.CurrentCycle.Set(float64(cycleNumber))
	c.PhaseAge.Set(0)
}

// RecordSettlement records an end-of-cycle settlement
func (c *Collector) RecordSettlement(result string, latencyMs float64, profit float64) {
	c.SettlementLatency.WithLabelValues(result).Observe(latencyMs)
	if profit >= 0 {
		c.ProfitTotal.WithLabelValues("profit").Add(profit)
	} else {
		c.ProfitTotal.WithLabelValues("loss").Add(-profit)
	}
}

// RecordFundState updates the fund state gauges
func (c *Collector) RecordFundState(poolValue, commissionPool, shareSupply, reputationSupply float64) {
	c.PoolValue.Set(poolValue)
	c.CommissionPool.Set(commissionPool)
	c.ShareSupply.Set(shareSupply)
	c.ReputationSupply.Set(reputationSupply)
}

// RecordDeposit records a deposit event
func (c *Collector) RecordDeposit(asset string, value float64) {
	c.DepositsTotal.WithLabelValues(asset).Inc()
	c.DepositValue.WithLabelValues(asset).Add(value)
}

// RecordWithdrawal records a withdrawal event
func (c *Collector) RecordWithdrawal(asset string, value float64) {
	c.WithdrawalsTotal.WithLabelValues(asset).Inc()
	c.WithdrawalValue.WithLabelValues(asset).Add(value)
}

// RecordInvestmentOpened records an investment open event
func (c *Collector) RecordInvestmentOpened(asset string) {
	c.InvestmentsOpened.WithLabelValues(asset).Inc()
}

// RecordInvestmentClosed records an investment close event
func (c *Collector) RecordInvestmentClosed(asset string, returnRatio float64) {
	outcome := "loss"
	if returnRatio > 1 {
		outcome = "profit"
	}
	c.InvestmentsClosed.WithLabelValues(asset, outcome).Inc()
	c.InvestmentReturn.WithLabelValues(asset).Observe(returnRatio)
}

// RecordTrade records a venue trade
func (c *Collector) RecordTrade(src, dest string, value float64) {
	c.TradesTotal.WithLabelValues(src, dest).Inc()
	c.TradeValue.WithLabelValues(src, dest).Add(value)
}

// RecordCommissionPaid records a commission payout
func (c *Collector) RecordCommissionPaid(form string, value float64) {
	c.CommissionPaid.WithLabelValues(form).Add(value)
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// UpdateSystemMetrics updates system-level metrics
func (c *Collector) UpdateSystemMetrics(blockHeight int64, blockTimeMs float64) {
	c.BlockHeight.Set(float64(blockHeight))
	c.BlockTime.Set(blockTimeMs)
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
