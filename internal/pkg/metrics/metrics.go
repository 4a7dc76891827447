package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds configuration for metrics initialization
type Config struct {
	Namespace string
	Registry  *prometheus.Registry
}

// Metrics holds all Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	CheckInsTotal        *prometheus.CounterVec
	CheckOutsTotal       prometheus.Counter
	AttendanceRejections *prometheus.CounterVec
	BulkItemsTotal       *prometheus.CounterVec
	BulkDuration         *prometheus.HistogramVec
	CacheHits            *prometheus.CounterVec
	CacheMisses          *prometheus.CounterVec
	CacheErrors          *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
	JobRuns              *prometheus.CounterVec
	namespace            string
	registry             *prometheus.Registry
}

// New creates metrics on a fresh registry that also carries the Go runtime and
// process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithConfig(Config{Namespace: namespace, Registry: reg})
}

func NewWithConfig(cfg Config) *Metrics {
	factory := promauto.With(cfg.Registry)
	m := &Metrics{namespace: cfg.Namespace, registry: cfg.Registry}

	// Attendance
	m.CheckInsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "attendance_check_ins_total",
			Help:      "Accepted check-ins by resulting status",
		},
		[]string{"status"},
	)
	m.CheckOutsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "attendance_check_outs_total",
			Help:      "Accepted check-outs",
		},
	)
	m.AttendanceRejections = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "attendance_rejections_total",
			Help:      "Rejected check-ins and check-outs by reason",
		},
		[]string{"operation", "reason"},
	)

	// Bulk assignment
	m.BulkItemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "checkpoint_bulk_items_total",
			Help:      "Bulk assignment items by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	m.BulkDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "checkpoint_bulk_duration_seconds",
			Help:      "Duration of bulk assignment batches in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// Cache
	m.CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name",
		},
		[]string{"cache"},
	)
	m.CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by cache name",
		},
		[]string{"cache"},
	)
	m.CacheErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_errors_total",
			Help:      "Cache backend errors by cache name and operation",
		},
		[]string{"cache", "operation"},
	)
	m.CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"name"},
	)

	// Background jobs
	m.JobRuns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result",
		},
		[]string{"job", "result"},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFeedSubscribers exposes count as the live feed subscriber gauge. It
// is sampled on every scrape and must be registered once.
func (m *Metrics) ObserveFeedSubscribers(count func() int) {
	if m == nil {
		return
	}
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      "attendance_feed_subscribers",
			Help:      "Clients connected to the live attendance feed",
		},
		func() float64 { return float64(count()) },
	)
}

func (m *Metrics) CheckIn(status string) {
	if m == nil {
		return
	}
	m.CheckInsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) CheckOut() {
	if m == nil {
		return
	}
	m.CheckOutsTotal.Inc()
}

func (m *Metrics) Rejection(operation, reason string) {
	if m == nil {
		return
	}
	m.AttendanceRejections.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) BulkItems(operation string, successful, failed int) {
	if m == nil {
		return
	}
	m.BulkItemsTotal.WithLabelValues(operation, "success").Add(float64(successful))
	m.BulkItemsTotal.WithLabelValues(operation, "failure").Add(float64(failed))
}

// BulkTimer starts timing a batch; call the returned func when it finishes.
func (m *Metrics) BulkTimer(operation string) func() {
	if m == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(m.BulkDuration.WithLabelValues(operation))
	return func() { timer.ObserveDuration() }
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) CacheError(cache, operation string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(cache, operation).Inc()
}

func (m *Metrics) BreakerState(name string, value float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(value)
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
}
