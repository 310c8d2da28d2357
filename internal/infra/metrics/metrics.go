// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_exchanges_total",
			Help: "Message exchanges by outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	remoteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_remote_errors_total",
			Help: "Remote call failures by taxonomy class.",
		},
		[]string{"class"},
	)

	restoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_restores_total",
			Help: "Session restoration attempts by result (hit/miss/fail).",
		},
		[]string{"result"},
	)

	upgradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_upgrades_total",
			Help: "Depth upgrades by target tier.",
		},
		[]string{"depth"},
	)

	completionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_completions_total",
			Help: "Successful session completions.",
		},
	)

	remoteLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_remote_latency_ms",
			Help:    "Remote call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"op", "success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			exchangesTotal, remoteErrors, restoresTotal,
			upgradesTotal, completionsTotal, remoteLatencyMs,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncExchange(outcome string) {
	exchangesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncRemoteError(class string) {
	remoteErrors.WithLabelValues(norm(class)).Inc()
}

func IncRestore(result string) {
	restoresTotal.WithLabelValues(norm(result)).Inc()
}

func IncUpgrade(depth string) {
	upgradesTotal.WithLabelValues(norm(depth)).Inc()
}

func IncCompletion() {
	completionsTotal.Inc()
}

func ObserveRemoteLatency(op string, latencyMs int, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	remoteLatencyMs.WithLabelValues(norm(op), s).Observe(float64(latencyMs))
}
