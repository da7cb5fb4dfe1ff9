// Package metrics exposes Prometheus metrics for scans, signals and order
// execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	symbolsScanned  *prometheus.CounterVec
	signalsTotal    *prometheus.CounterVec
	ordersTotal     *prometheus.CounterVec
	scanCycles      prometheus.Counter
	scanDuration    prometheus.Histogram
	cashBalance     prometheus.Gauge
	openPositions   prometheus.Gauge
	watchlistSize   prometheus.Gauge
	notificationsTx *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		symbolsScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrobo_symbols_scanned_total",
				Help: "Symbols processed by the scanner, by outcome",
			},
			[]string{"outcome"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrobo_signals_total",
				Help: "Signals emitted, by strategy and kind",
			},
			[]string{"strategy", "kind"},
		),
		ordersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrobo_orders_total",
				Help: "Order tickets processed, by type and status",
			},
			[]string{"type", "status"},
		),
		scanCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stockrobo_scan_cycles_total",
				Help: "Completed scan cycles",
			},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockrobo_scan_duration_seconds",
				Help:    "Scan cycle duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		cashBalance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockrobo_cash_balance",
				Help: "Current paper-portfolio cash balance",
			},
		),
		openPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockrobo_open_positions",
				Help: "Number of open positions",
			},
		),
		watchlistSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockrobo_watchlist_symbols",
				Help: "Number of symbols in the current watchlist",
			},
		),
		notificationsTx: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrobo_notifications_total",
				Help: "Notifications dispatched, by channel and status",
			},
			[]string{"channel", "status"},
		),
	}

	reg.MustRegister(r.symbolsScanned)
	reg.MustRegister(r.signalsTotal)
	reg.MustRegister(r.ordersTotal)
	reg.MustRegister(r.scanCycles)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.cashBalance)
	reg.MustRegister(r.openPositions)
	reg.MustRegister(r.watchlistSize)
	reg.MustRegister(r.notificationsTx)

	return r
}

// RecordSymbol records a scanned symbol by outcome (scanned, skipped, error).
func (r *Registry) RecordSymbol(outcome string) {
	r.symbolsScanned.WithLabelValues(outcome).Inc()
}

// RecordSignal records an emitted signal.
func (r *Registry) RecordSignal(strategy, kind string) {
	r.signalsTotal.WithLabelValues(strategy, kind).Inc()
}

// RecordOrder records a processed order ticket.
func (r *Registry) RecordOrder(orderType, status string) {
	r.ordersTotal.WithLabelValues(orderType, status).Inc()
}

// RecordScanCycle records a completed scan cycle.
func (r *Registry) RecordScanCycle(duration float64) {
	r.scanCycles.Inc()
	r.scanDuration.Observe(duration)
}

// SetCashBalance publishes the current cash balance.
func (r *Registry) SetCashBalance(cash float64) {
	r.cashBalance.Set(cash)
}

// SetOpenPositions publishes the open position count.
func (r *Registry) SetOpenPositions(n int) {
	r.openPositions.Set(float64(n))
}

// SetWatchlistSize publishes the watchlist size.
func (r *Registry) SetWatchlistSize(n int) {
	r.watchlistSize.Set(float64(n))
}

// RecordNotification records a dispatched notification.
func (r *Registry) RecordNotification(channel, status string) {
	r.notificationsTx.WithLabelValues(channel, status).Inc()
}
