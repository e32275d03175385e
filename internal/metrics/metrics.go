package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "tester", Subsystem: "suite", Name: "runs_total", Help: "Suite runs started"},
	)
	runsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "tester", Subsystem: "suite", Name: "runs_failed_total", Help: "Suite runs with at least one failing check"},
	)
	checkOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tester", Subsystem: "check", Name: "outcomes_total", Help: "Check outcomes by check name"},
		[]string{"check", "outcome"},
	)
	checkLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "tester", Subsystem: "check", Name: "duration_seconds", Help: "Check duration", Buckets: prometheus.DefBuckets},
		[]string{"check"},
	)
	targetLatency = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{Namespace: "tester", Subsystem: "target", Name: "latency_seconds", Help: "Latency of calls to the service under test"},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, runsFailed, checkOutcomes, checkLatency, targetLatency)
}

func IncRun() { runsTotal.Inc() }
func IncRunFailed() { runsFailed.Inc() }

func ObserveCheck(name string, passed bool, d time.Duration) {
	outcome := "fail"
	if passed {
		outcome = "ok"
	}
	checkOutcomes.WithLabelValues(name, outcome).Inc()
	checkLatency.WithLabelValues(name).Observe(d.Seconds())
}

func ObserveTarget(op string, d time.Duration) { targetLatency.WithLabelValues(op).Observe(d.Seconds()) }
