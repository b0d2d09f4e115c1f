package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	WebhookEvents   *prometheus.CounterVec
	Replies         *prometheus.CounterVec
	Pushes          *prometheus.CounterVec
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	NotifierRuns    *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total inbound LINE webhook events by type.",
			}, []string{"type"}),
			Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_total",
				Help:      "Total reply messages by message kind and outcome.",
			}, []string{"kind", "status"}),
			Pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pushes_total",
				Help:      "Total daily push notifications by outcome.",
			}, []string{"status"}),
			StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total record store operations by operation and outcome.",
			}, []string{"op", "status"}),
			StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Latency distribution for record store operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			NotifierRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifier_runs_total",
				Help:      "Total daily notifier runs by outcome.",
			}, []string{"status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.WebhookEvents,
			metricsInstance.Replies,
			metricsInstance.Pushes,
			metricsInstance.StoreOperations,
			metricsInstance.StoreLatency,
			metricsInstance.NotifierRuns,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}

// Status maps an error to the outcome label used by the counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
