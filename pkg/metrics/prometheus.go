// Package metrics provides Prometheus metrics for the meritor expertise
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ledger metrics
	ratingsSubmitted   prometheus.Counter
	ratingsAmended     prometheus.Counter
	ratingsRejected    *prometheus.CounterVec
	aggregateRecompute prometheus.Histogram
	ledgerEvents       prometheus.Gauge
	ledgerKeys         prometheus.Gauge

	// Score blending metrics
	scoreRecalculations prometheus.Counter
	scoreChanges        prometheus.Counter
	challengeAttempts   *prometheus.CounterVec
	votingWeightReads   prometheus.Counter

	// Recalculation queue and worker metrics
	recalcQueueSize        prometheus.Gauge
	recalcQueueCapacity    prometheus.Gauge
	recalcQueueUtilization prometheus.Gauge
	recalcEnqueued         prometheus.Counter
	recalcDropped          prometheus.Counter
	workerCount            prometheus.Gauge
	workerJobLatency       prometheus.Histogram
	workerErrors           prometheus.Counter

	// Expert ranking store metrics
	rankstoreUpdateLatency prometheus.Histogram
	rankstoreQueryLatency  prometheus.Histogram
	rankedAccounts         prometheus.Gauge

	// Notification metrics
	notificationsPublished *prometheus.CounterVec
	notificationsDropped   prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsTotal *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "meritor",
		subsystem:        "expertise",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ratingsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratings_submitted_total",
		Help:      "Total number of first-contact ratings accepted by the ledger",
	})

	m.ratingsAmended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratings_amended_total",
		Help:      "Total number of accepted rating amendments",
	})

	m.ratingsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ratings_rejected_total",
			Help:      "Total number of rejected submissions by reason",
		},
		[]string{"reason"},
	)

	m.aggregateRecompute = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregate_recompute_latency_milliseconds",
		Help:      "Latency of full aggregate recomputation on append",
		Buckets:   m.histogramBuckets,
	})

	m.ledgerEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_events",
		Help:      "Total rating events ever appended (append-only, never shrinks)",
	})

	m.ledgerKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_keys",
		Help:      "Distinct (ratee, topic) pairs with at least one rating",
	})

	m.scoreRecalculations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_recalculations_total",
		Help:      "Total score refresh evaluations",
	})

	m.scoreChanges = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_changes_total",
		Help:      "Score refreshes that produced a different cached value",
	})

	m.challengeAttempts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "challenge_attempts_total",
			Help:      "Recorded validation challenge attempts by result",
		},
		[]string{"result"},
	)

	m.votingWeightReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "voting_weight_reads_total",
		Help:      "Reads of the cached score by the voting consumer surface",
	})

	m.recalcQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalc_queue_size",
		Help:      "Current size of the recalculation job queue",
	})

	m.recalcQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalc_queue_capacity",
		Help:      "Configured capacity of the recalculation job queue",
	})

	m.recalcQueueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalc_queue_utilization_ratio",
		Help:      "Recalculation queue utilization (size / capacity)",
	})

	m.recalcEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalc_enqueued_total",
		Help:      "Recalculation jobs accepted into the queue",
	})

	m.recalcDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recalc_dropped_total",
		Help:      "Recalculation jobs dropped on backpressure or shutdown",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of recalculation workers",
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_job_latency_milliseconds",
		Help:      "Latency of one recalculation job",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Recalculation jobs that failed",
	})

	m.rankstoreUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_update_latency_milliseconds",
		Help:      "Expert ranking store update latency",
		Buckets:   m.histogramBuckets,
	})

	m.rankstoreQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_query_latency_milliseconds",
		Help:      "Expert ranking store query latency",
		Buckets:   m.histogramBuckets,
	})

	m.rankedAccounts = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranked_accounts",
		Help:      "Total ranked (account, topic) entries across all topics",
	})

	m.notificationsPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "notifications_published_total",
			Help:      "Notifications published to the bus by kind",
		},
		[]string{"kind"},
	)

	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_dropped_total",
		Help:      "Notifications dropped because a subscriber was not keeping up",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Errors by component and kind",
		},
		[]string{"component", "kind"},
	)
}

// Ledger helpers.

func RecordRatingSubmitted() {
	if globalManager.enabled {
		globalManager.ratingsSubmitted.Inc()
	}
}

func RecordRatingAmended() {
	if globalManager.enabled {
		globalManager.ratingsAmended.Inc()
	}
}

func RecordRatingRejected(reason string) {
	if globalManager.enabled {
		globalManager.ratingsRejected.WithLabelValues(reason).Inc()
	}
}

func RecordAggregateRecompute(latencyMs float64) {
	if globalManager.enabled {
		globalManager.aggregateRecompute.Observe(latencyMs)
	}
}

func UpdateLedgerEvents(count int) {
	if globalManager.enabled {
		globalManager.ledgerEvents.Set(float64(count))
	}
}

func UpdateLedgerKeys(count int) {
	if globalManager.enabled {
		globalManager.ledgerKeys.Set(float64(count))
	}
}

// Score blending helpers.

func RecordScoreRecalculation() {
	if globalManager.enabled {
		globalManager.scoreRecalculations.Inc()
	}
}

func RecordScoreChange() {
	if globalManager.enabled {
		globalManager.scoreChanges.Inc()
	}
}

func RecordChallengeAttempt(correct bool) {
	if globalManager.enabled {
		result := "incorrect"
		if correct {
			result = "correct"
		}
		globalManager.challengeAttempts.WithLabelValues(result).Inc()
	}
}

func RecordVotingWeightRead() {
	if globalManager.enabled {
		globalManager.votingWeightReads.Inc()
	}
}

// Queue and worker helpers.

func UpdateRecalcQueueSize(size int) {
	if globalManager.enabled {
		globalManager.recalcQueueSize.Set(float64(size))
	}
}

func UpdateRecalcQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.recalcQueueCapacity.Set(float64(capacity))
	}
}

func UpdateRecalcQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.recalcQueueUtilization.Set(utilization)
	}
}

func RecordRecalcEnqueued() {
	if globalManager.enabled {
		globalManager.recalcEnqueued.Inc()
	}
}

func RecordRecalcDropped() {
	if globalManager.enabled {
		globalManager.recalcDropped.Inc()
	}
}

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func RecordWorkerJobLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerJobLatency.Observe(latencyMs)
	}
}

func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// Ranking store helpers.

func RecordRankStoreUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.rankstoreUpdateLatency.Observe(latencyMs)
	}
}

func RecordRankStoreQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.rankstoreQueryLatency.Observe(latencyMs)
	}
}

func UpdateRankedAccounts(count int) {
	if globalManager.enabled {
		globalManager.rankedAccounts.Set(float64(count))
	}
}

// Notification helpers.

func RecordNotificationPublished(kind string) {
	if globalManager.enabled {
		globalManager.notificationsPublished.WithLabelValues(kind).Inc()
	}
}

func RecordNotificationDropped() {
	if globalManager.enabled {
		globalManager.notificationsDropped.Inc()
	}
}

// HTTP helpers.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Error helpers.

func RecordErrorByComponent(component, kind string) {
	if globalManager.enabled {
		globalManager.errorsTotal.WithLabelValues(component, kind).Inc()
	}
}

// GetRegistry exposes the registry backing the global manager for the
// /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
