package metrics

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentiment"

var (
	registry = prometheus.NewRegistry()

	analysisStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_started_total",
		Help:      "Total analyses started",
	}, []string{"mode"})

	analysisCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_completed_total",
		Help:      "Total analyses completed, by resulting label",
	}, []string{"mode", "sentiment"})

	analysisFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_failed_total",
		Help:      "Total analyses failed",
	}, []string{"mode"})

	analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_ms",
		Help:      "Analysis duration in milliseconds",
		Buckets:   []float64{1, 5, 25, 100, 250, 500, 1000, 2000, 5000},
	}, []string{"mode"})

	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_requests_total",
		Help:      "Result cache lookups by outcome",
	}, []string{"outcome"})

	workerJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_jobs_total",
		Help:      "Queue jobs handled by the worker, by outcome",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		analysisStarted,
		analysisCompleted,
		analysisFailed,
		analysisDuration,
		cacheRequests,
		workerJobs,
	)
}

// Registry exposes the process registry, mostly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted(mode string) {
	analysisStarted.WithLabelValues(mode).Inc()
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted(mode, sentiment string) {
	analysisCompleted.WithLabelValues(mode, sentiment).Inc()
}

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed(mode string) {
	analysisFailed.WithLabelValues(mode).Inc()
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(mode string, value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.WithLabelValues(mode).Observe(value)
}

// IncCacheHit counts a result cache hit.
func IncCacheHit() {
	cacheRequests.WithLabelValues("hit").Inc()
}

// IncCacheMiss counts a result cache miss.
func IncCacheMiss() {
	cacheRequests.WithLabelValues("miss").Inc()
}

// IncWorkerJobsReceived counts a queue message picked up by the worker.
func IncWorkerJobsReceived() {
	workerJobs.WithLabelValues("received").Inc()
}

// IncWorkerJobsCompleted counts a processed and deleted queue message.
func IncWorkerJobsCompleted() {
	workerJobs.WithLabelValues("completed").Inc()
}

// IncWorkerJobsFailed counts a queue message left for redelivery.
func IncWorkerJobsFailed() {
	workerJobs.WithLabelValues("failed").Inc()
}

// IncWorkerJobsDeletedUnrecoverable counts a malformed message dropped from the queue.
func IncWorkerJobsDeletedUnrecoverable() {
	workerJobs.WithLabelValues("deleted_unrecoverable").Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return gin.WrapH(h)
}

// RegisterDBStats exports database/sql pool statistics for the named pool. Registering
// the same pool name twice is a no-op.
func RegisterDBStats(db *sql.DB, name string) error {
	err := registry.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
