package observability

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

const namespace = "finstore"

const (
	metricStoreOpDuration = namespace + "_store_operation_duration_seconds"
	metricStoreErrors     = namespace + "_store_errors_total"
)

// Metrics holds all Prometheus metrics for the store and its HTTP adapter.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	storeOpDuration *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	initTotal       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// metrics in it. A private registry lets tests call NewMetrics repeatedly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		storeOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricStoreOpDuration,
				Help:    "Duration of store operations by collection and operation.",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"collection", "op"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricStoreErrors,
				Help: "Total failed store operations by error kind.",
			},
			[]string{"collection", "kind"},
		),
		initTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: namespace + "_database_init_total",
				Help: "Database initializations by result.",
			},
			[]string{"result"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: namespace + "_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: namespace + "_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// ObserveStoreOp records the duration of one store operation.
func (m *Metrics) ObserveStoreOp(collection, op string, d time.Duration) {
	m.storeOpDuration.WithLabelValues(collection, op).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(collection, kind string) {
	m.storeErrors.WithLabelValues(collection, kind).Inc()
}

// IncrInit counts a database initialization attempt ("success" or "failure").
func (m *Metrics) IncrInit(result string) {
	m.initTotal.WithLabelValues(result).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Snapshot gathers the registry into the stats payload for GET /v1/stats.
func (m *Metrics) Snapshot() (*domain.StoreStats, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	stats := &domain.StoreStats{
		InitSuccess:       uint64(getCounterValue(m.initTotal, "success")),
		InitFailure:       uint64(getCounterValue(m.initTotal, "failure")),
		IdempotencyHits:   uint64(getCounterValue(m.cacheHits, "idempotency")),
		IdempotencyMisses: uint64(getCounterValue(m.cacheMisses, "idempotency")),
		Operations:        []domain.OperationStat{},
		Errors:            []domain.ErrorStat{},
	}
	if total := stats.IdempotencyHits + stats.IdempotencyMisses; total > 0 {
		stats.IdempotencyHitRate = float64(stats.IdempotencyHits) / float64(total)
	}

	for _, mf := range families {
		switch mf.GetName() {
		case metricStoreOpDuration:
			for _, metric := range mf.GetMetric() {
				h := metric.GetHistogram()
				op := domain.OperationStat{
					Collection: labelValue(metric, "collection"),
					Op:         labelValue(metric, "op"),
					Count:      h.GetSampleCount(),
				}
				if op.Count > 0 {
					op.AvgLatencyMs = h.GetSampleSum() * 1000 / float64(op.Count)
				}
				stats.Operations = append(stats.Operations, op)
			}
		case metricStoreErrors:
			for _, metric := range mf.GetMetric() {
				stats.Errors = append(stats.Errors, domain.ErrorStat{
					Collection: labelValue(metric, "collection"),
					Kind:       labelValue(metric, "kind"),
					Count:      uint64(metric.GetCounter().GetValue()),
				})
			}
		}
	}

	sort.Slice(stats.Operations, func(i, j int) bool {
		a, b := stats.Operations[i], stats.Operations[j]
		if a.Collection != b.Collection {
			return a.Collection < b.Collection
		}
		return a.Op < b.Op
	})
	sort.Slice(stats.Errors, func(i, j int) bool {
		a, b := stats.Errors[i], stats.Errors[j]
		if a.Collection != b.Collection {
			return a.Collection < b.Collection
		}
		return a.Kind < b.Kind
	})
	return stats, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
