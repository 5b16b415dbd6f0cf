package keyindexer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics
)

// lookupMetrics returns process-wide indexer metrics, registering them on the
// default registry on first use.
func lookupMetrics() *metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &metrics{
			lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "walletcore",
				Subsystem: "keyindexer",
				Name:      "lookups_total",
				Help:      "Key indexer lookups by network and outcome.",
			}, []string{"network", "status"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "walletcore",
				Subsystem: "keyindexer",
				Name:      "lookup_duration_seconds",
				Help:      "Key indexer lookup latency by network.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"network"}),
		}
		prometheus.MustRegister(sharedMetrics.lookups, sharedMetrics.duration)
	})
	return sharedMetrics
}

func (m *metrics) observe(network ChainID, status string, seconds float64) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(string(network), status).Inc()
	m.duration.WithLabelValues(string(network)).Observe(seconds)
}
