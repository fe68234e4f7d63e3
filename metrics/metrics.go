// Package metrics holds the Prometheus collectors of a GLCC run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "glcc"

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	StageDuration  *prometheus.HistogramVec
	ChunksComputed *prometheus.CounterVec
	MaskedCells    prometheus.Counter
	CacheRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of load and render stages.",
			Buckets:   []float64{0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 30, 60, 300},
		}, []string{"stage"}),
		ChunksComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_computed_total",
			Help:      "Chunks materialised, by variable.",
		}, []string{"variable"}),
		MaskedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "masked_cells_total",
			Help:      "Cells whose coordinates could not be transformed.",
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_cache_requests_total",
			Help:      "Chunk cache lookups, by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.StageDuration, m.ChunksComputed, m.MaskedCells, m.CacheRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Stage starts timing stage. Call the returned func when it ends.
func (m *Metrics) Stage(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// Chunk counts one computed chunk of variable.
func (m *Metrics) Chunk(variable string) {
	if m == nil {
		return
	}
	m.ChunksComputed.WithLabelValues(variable).Inc()
}

// Masked adds n masked cells.
func (m *Metrics) Masked(n int) {
	if m == nil || n == 0 {
		return
	}
	m.MaskedCells.Add(float64(n))
}

// Cache records a cache lookup.
func (m *Metrics) Cache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// WriteTextfile writes everything g gathers to path in the node exporter
// textfile format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
