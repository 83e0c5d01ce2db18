// Package metrics provides Prometheus metrics for the HA recorder system.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// These metrics are exposed on a separate internal listener, never under
// the authenticated /api/sessions surface.

var (
	// Session controller

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "harecorder",
		Name:      "active_sessions",
		Help:      "Current number of sessions not in a terminal status.",
	})

	sessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "session_transitions_total",
		Help:      "Total number of session status transitions, by target status.",
	}, []string{"status"})

	// Reaper

	reaperFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "reaper_failures_total",
		Help:      "Total number of sessions failed by the reaper, by cause.",
	}, []string{"cause"})

	reaperTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "reaper_ticks_total",
		Help:      "Total number of reaper sweep ticks executed.",
	})

	// Recorder pipeline

	uploadAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "upload_attempts_total",
		Help:      "Total number of chunk upload attempts, by outcome.",
	}, []string{"outcome"})

	downloadAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "download_attempts_total",
		Help:      "Total number of chunk download attempts, by outcome.",
	}, []string{"outcome"})

	joinDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "harecorder",
		Name:      "join_duration_seconds",
		Help:      "Time spent concatenating chunks into the final artifact.",
		Buckets:   prometheus.DefBuckets,
	})

	joinResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "join_result_total",
		Help:      "Total number of join operations, by outcome.",
	}, []string{"outcome"})

	// Process group lifecycle (consumed by internal/procgroup)

	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "proc_terminate_total",
		Help:      "Total number of process-group termination signals sent, by signal and result.",
	}, []string{"signal", "result"})

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harecorder",
		Name:      "proc_wait_total",
		Help:      "Total number of process-group wait outcomes.",
	}, []string{"outcome"})
)

// SetActiveSessions reports the current count of non-terminal sessions.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// IncSessionTransition records a session reaching status.
func IncSessionTransition(status string) {
	sessionTransitionsTotal.WithLabelValues(status).Inc()
}

// IncReaperFailure records the reaper forcing a session to FAILED for cause.
func IncReaperFailure(cause string) {
	reaperFailuresTotal.WithLabelValues(cause).Inc()
}

// IncReaperTick records one completed sweep.
func IncReaperTick() {
	reaperTicksTotal.Inc()
}

// IncUploadAttempt records a chunk upload attempt with outcome
// "success", "skipped", or "failed".
func IncUploadAttempt(outcome string) {
	uploadAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncDownloadAttempt records a chunk download attempt with outcome
// "success" or "failed".
func IncDownloadAttempt(outcome string) {
	downloadAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveJoinDuration records how long a join operation took.
func ObserveJoinDuration(seconds float64) {
	joinDuration.Observe(seconds)
}

// IncJoinResult records a join operation outcome, "success" or "failed".
func IncJoinResult(outcome string) {
	joinResultTotal.WithLabelValues(outcome).Inc()
}

// IncProcTerminate records a termination signal sent to a process group.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records the outcome of waiting on a terminated process group.
func IncProcWait(outcome string) {
	procWaitTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the Prometheus exposition endpoint for the internal
// metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
