package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveTimers     prometheus.Gauge
	TimerEvents      *prometheus.CounterVec
	FeedbackRequests *prometheus.CounterVec
	AIRetries        prometheus.Counter
	RateRejections   prometheus.Counter
	FeedbackLatency  prometheus.Histogram

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveTimers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Number of live per-user pomodoro timers.",
		}),
		TimerEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_events_total",
			Help:      "Timer state machine events by type.",
		}, []string{"event"}),
		FeedbackRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_requests_total",
			Help:      "AI feedback requests by outcome.",
		}, []string{"outcome"}),
		AIRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_retries_total",
			Help:      "Retried connectivity failures against the AI API.",
		}),
		RateRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_rejections_total",
			Help:      "Feedback requests rejected by the admission window.",
		}),
		FeedbackLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feedback_latency_ms",
			Help:      "End-to-end feedback pipeline latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
		stages: newStageWindow(256),
	}
}

func (m *Metrics) ObserveFeedbackLatency(d time.Duration) {
	m.FeedbackLatency.Observe(float64(d.Milliseconds()))
}

// ObserveStage records one feedback pipeline stage duration in the sliding
// latency window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Microseconds())/1000.0)
}

// SnapshotStages returns the current stage latency percentiles.
func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
