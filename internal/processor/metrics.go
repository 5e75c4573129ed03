package processor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the processor's Prometheus collectors.
type Metrics struct {
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	transactions  prometheus.Counter
	events        prometheus.Counter
	chunks        prometheus.Counter
	lastVersion   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "event_processor_batches_total", Help: "Processed batches"},
			[]string{"status"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "event_processor_batch_duration_seconds", Help: "Batch processing latency", Buckets: prometheus.DefBuckets},
			[]string{"status"},
		),
		transactions: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "event_processor_transactions_total", Help: "Transactions seen"},
		),
		events: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "event_processor_events_total", Help: "Tracked events extracted"},
		),
		chunks: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "event_processor_chunks_total", Help: "Chunks written to the store"},
		),
		lastVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "event_processor_last_version", Help: "End version of the last committed batch"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.batches, m.batchDuration, m.transactions, m.events, m.chunks, m.lastVersion)
	}
	return m
}
