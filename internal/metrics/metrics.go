// Package metrics provides Prometheus metrics for stage runs and jobs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
)

const namespace = "comedyanalyzer"

// Recorder implements ports.StageRecorder on a Prometheus registerer.
type Recorder struct {
	// StageRuns counts stage executions by outcome.
	StageRuns *prometheus.CounterVec
	// StageDuration measures stage execution time.
	StageDuration *prometheus.HistogramVec
	// Jobs counts job status transitions.
	Jobs *prometheus.CounterVec
}

var _ ports.StageRecorder = (*Recorder)(nil)

// NewRecorder registers the collectors on reg. A nil reg uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		StageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_runs_total",
				Help:      "Total number of stage executions",
			},
			[]string{"stage", "status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of stage executions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		Jobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Total number of job status transitions",
			},
			[]string{"status"},
		),
	}
}

// ObserveStage records one stage execution.
func (r *Recorder) ObserveStage(stageID int, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	stage := strconv.Itoa(stageID)
	r.StageRuns.WithLabelValues(stage, status).Inc()
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveJob records a job reaching status.
func (r *Recorder) ObserveJob(status domain.JobStatus) {
	r.Jobs.WithLabelValues(string(status)).Inc()
}
