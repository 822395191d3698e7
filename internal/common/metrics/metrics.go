// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_pipeline_requests_total",
			Help: "Total number of question-answering requests by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	GraphQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_graph_queries_total",
			Help: "Total number of statements sent to the graph store",
		},
		[]string{"mode", "status"},
	)

	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_model_calls_total",
			Help: "Total number of generative model calls by purpose",
		},
		[]string{"purpose", "status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

// TimeStage returns a func that observes the elapsed time for stage when called.
func TimeStage(stage string) func() {
	start := time.Now()
	return func() {
		PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveGraphQuery counts one statement against the graph store.
func ObserveGraphQuery(mode string, err error) {
	GraphQueries.WithLabelValues(mode, statusLabel(err)).Inc()
}

// ObserveModelCall counts one generative model call.
func ObserveModelCall(purpose string, err error) {
	ModelCalls.WithLabelValues(purpose, statusLabel(err)).Inc()
}
