// Package metrics exposes the copy-trading engine's Prometheus metrics:
// cycles run, copies recorded/skipped, settlements, and a gauge of the
// follower's current exposure.
//
// Registered once as package-level collectors and served by
// /metrics in the control plane's HTTP mux (see internal/control).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_cycles_total",
		Help: "Monitor cycles run.",
	})

	TradesSeenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_trades_seen_total",
		Help: "Leader trades observed across all cycles.",
	})

	CopiesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_copies_total",
		Help: "Copies recorded, by side.",
	}, []string{"side"})

	SkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_skipped_total",
		Help: "Leader trades skipped, by reason.",
	}, []string{"reason"})

	SettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_settled_total",
		Help: "Movements settled against closed leader positions.",
	})

	CycleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_cycle_errors_total",
		Help: "Monitor cycles whose leader-trades fetch failed.",
	})

	ExposureUSD = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "copytrader_exposure_usd",
		Help: "Follower's current unsettled copied notional, in USD.",
	})
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		TradesSeenTotal,
		CopiesTotal,
		SkippedTotal,
		SettledTotal,
		CycleErrorsTotal,
		ExposureUSD,
	)
}
