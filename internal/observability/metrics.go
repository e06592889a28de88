// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	TokensDiscovered  *prometheus.CounterVec
	DiscoveryErrors   *prometheus.CounterVec
	DuplicateMints    prometheus.Counter

	// Queue metrics
	TasksEnqueued    *prometheus.CounterVec
	TasksClaimed     prometheus.Counter
	TasksRequeued    prometheus.Counter
	StaleClaimsFreed prometheus.Counter
	QueueDepth       prometheus.Gauge

	// Stage execution metrics
	StageRunsTotal *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	TokensPruned   *prometheus.CounterVec

	// Adapter metrics
	AdapterErrors  *prometheus.CounterVec
	AdapterLatency *prometheus.HistogramVec
	BreakerOpen    *prometheus.GaugeVec

	// Scoring metrics
	ScoreDistribution *prometheus.HistogramVec
	ScoresCapped      prometheus.Counter
	ScoreDivergences  prometheus.Counter

	// Signal metrics
	SignalsEmitted  *prometheus.CounterVec
	GateRejections  *prometheus.CounterVec
	DecayDowngrades *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}

	return &Metrics{
		TokensDiscovered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "tokens_discovered_total",
			Help:      "Total number of new tokens discovered by source",
		}, []string{"source"}),
		DiscoveryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "errors_total",
			Help:      "Total number of discovery errors by source",
		}, []string{"source"}),
		DuplicateMints: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "duplicate_mints_total",
			Help:      "Total number of already-known mints seen again",
		}),

		TasksEnqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_enqueued_total",
			Help:      "Total number of enrichment tasks enqueued by stage",
		}, []string{"stage"}),
		TasksClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_claimed_total",
			Help:      "Total number of tasks claimed by workers",
		}),
		TasksRequeued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_requeued_total",
			Help:      "Total number of tasks put back after a failed run",
		}),
		StaleClaimsFreed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "stale_claims_freed_total",
			Help:      "Total number of expired claims returned to pending",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of pending tasks",
		}),

		StageRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stage",
			Name:      "runs_total",
			Help:      "Total number of stage executions by stage and outcome",
		}, []string{"stage", "status"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Stage execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		TokensPruned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stage",
			Name:      "tokens_pruned_total",
			Help:      "Total number of tokens dropped from the pipeline by stage",
		}, []string{"stage"}),

		AdapterErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "errors_total",
			Help:      "Total number of adapter fetch errors by adapter",
		}, []string{"adapter"}),
		AdapterLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "fetch_duration_seconds",
			Help:      "Adapter fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"adapter"}),
		BreakerOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "breaker_open",
			Help:      "Whether the circuit breaker for a source is open (1) or closed (0)",
		}, []string{"source"}),

		ScoreDistribution: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score",
			Help:      "Distribution of computed scores by variant",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"variant"}),
		ScoresCapped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "scores_capped_total",
			Help:      "Total number of scores capped by the completeness gate",
		}),
		ScoreDivergences: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "divergences_total",
			Help:      "Total number of variant score divergences above threshold",
		}),

		SignalsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "emitted_total",
			Help:      "Total number of signal decisions by action",
		}, []string{"action"}),
		GateRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "gate_rejections_total",
			Help:      "Total number of decisions forced to AVOID by gate",
		}, []string{"gate"}),
		DecayDowngrades: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "decay_downgrades_total",
			Help:      "Total number of decay downgrades by resulting status",
		}, []string{"to"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTokenDiscovered increments the discovery counter for a source.
func RecordTokenDiscovered(source string) {
	DefaultMetrics.TokensDiscovered.WithLabelValues(source).Inc()
}

// RecordTaskEnqueued increments the enqueue counter for a stage.
func RecordTaskEnqueued(stage string) {
	DefaultMetrics.TasksEnqueued.WithLabelValues(stage).Inc()
}

// RecordStageRun records one stage execution.
func RecordStageRun(stage, status string, durationSeconds float64) {
	DefaultMetrics.StageRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordAdapterError increments the error counter for an adapter.
func RecordAdapterError(adapter string) {
	DefaultMetrics.AdapterErrors.WithLabelValues(adapter).Inc()
}

// RecordAdapterLatency observes one adapter fetch duration in seconds.
func RecordAdapterLatency(adapter string, seconds float64) {
	DefaultMetrics.AdapterLatency.WithLabelValues(adapter).Observe(seconds)
}

// RecordDiscoveryError increments the discovery error counter for a source.
func RecordDiscoveryError(source string) {
	DefaultMetrics.DiscoveryErrors.WithLabelValues(source).Inc()
}

// SetBreakerOpen updates the breaker gauge for a source.
func SetBreakerOpen(source string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	DefaultMetrics.BreakerOpen.WithLabelValues(source).Set(v)
}

// RecordScore records a computed score for a variant.
func RecordScore(variant string, score float64, capped bool) {
	DefaultMetrics.ScoreDistribution.WithLabelValues(variant).Observe(score)
	if capped {
		DefaultMetrics.ScoresCapped.Inc()
	}
}

// RecordSignal records an emitted decision.
func RecordSignal(action string) {
	DefaultMetrics.SignalsEmitted.WithLabelValues(action).Inc()
}

// RecordDecayDowngrade records a downgrade to the given status.
func RecordDecayDowngrade(to string) {
	DefaultMetrics.DecayDowngrades.WithLabelValues(to).Inc()
}
