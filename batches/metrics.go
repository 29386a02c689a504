package batches

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts verification outcomes and commits, and times the ledger
// read. A nil *Metrics records nothing.
type Metrics struct {
	VerificationsTotal *prometheus.CounterVec
	CommitsTotal       *prometheus.CounterVec
	RemoteFetchSeconds prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merklebatch_verifications_total",
				Help: "Batch verification runs by outcome",
			},
			[]string{"outcome"},
		),
		CommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merklebatch_commits_total",
				Help: "Batch commits and anchors by result",
			},
			[]string{"result"},
		),
		RemoteFetchSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "merklebatch_remote_fetch_seconds",
				Help:    "Time taken to read a batch record from the ledger",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}

func (m *Metrics) verification(outcome Outcome) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) commit(result string) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) remoteFetch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RemoteFetchSeconds.Observe(elapsed.Seconds())
}
