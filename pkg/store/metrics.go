package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records constraint rejections and transaction latency. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	rejections *prometheus.CounterVec
	txSeconds  prometheus.Histogram
}

// NewMetrics registers the store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexter_store_rejections_total",
			Help: "Writes rejected by a schema constraint, by kind.",
		}, []string{"kind"}),
		txSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dexter_store_tx_seconds",
			Help:    "Duration of store transactions.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.rejections, m.txSeconds)
	return m
}

func (m *Metrics) reject(err error) error {
	if m == nil || err == nil {
		return err
	}
	if kind := rejectionKind(err); kind != "" {
		m.rejections.WithLabelValues(kind).Inc()
	}
	return err
}

func (m *Metrics) observeTx(start time.Time) {
	if m == nil {
		return
	}
	m.txSeconds.Observe(time.Since(start).Seconds())
}
