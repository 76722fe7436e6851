// Package metrics exposes Prometheus collectors for the interview service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"peerprep/interview/internal/models"
)

const namespace = "interview"

var (
	executions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executions_total",
		Help:      "Judged runs by outcome",
	}, []string{"status"})

	executionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_duration_seconds",
		Help:      "Time from submission to verdict",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
	})

	submitRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "judge_submit_retries_total",
		Help:      "Submission retries against the judge by reason",
	}, []string{"reason"})

	hints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hints_total",
		Help:      "Proactive hints issued",
	}, []string{"level", "trigger"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently in progress",
	})

	endedSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Sessions ended by final status",
	}, []string{"status"})
)

// Recorder reports judge and session activity to the default registry.
type Recorder struct{}

func (Recorder) SubmitRetried(reason string) {
	submitRetries.WithLabelValues(reason).Inc()
}

func (Recorder) Executed(status models.ExecutionStatus, elapsed time.Duration) {
	executions.WithLabelValues(string(status)).Inc()
	executionLatency.Observe(elapsed.Seconds())
}

func (Recorder) SessionStarted() {
	activeSessions.Inc()
}

func (Recorder) SessionEnded(status models.SessionStatus) {
	activeSessions.Dec()
	endedSessions.WithLabelValues(string(status)).Inc()
}

func (Recorder) HintIssued(level int, trigger models.HintTrigger) {
	hints.WithLabelValues(strconv.Itoa(level), string(trigger)).Inc()
}
