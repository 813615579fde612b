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
	// Ingestion metrics
	EventsProcessed  *prometheus.CounterVec
	EventsApplied    prometheus.Counter
	EventApplyErrors prometheus.Counter

	// Alert metrics
	AlertsEmitted     prometheus.Counter
	AlertsSuppressed  prometheus.Counter
	EvaluationErrors  prometheus.Counter
	EvaluationLatency prometheus.Histogram

	// Delivery metrics
	NotifyErrors prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the given registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "gift_scanner"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_processed_total",
			Help:      "Total number of market events received from the feed",
		}, []string{"kind"}),
		EventsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_applied_total",
			Help:      "Total number of market events persisted and mirrored",
		}),
		EventApplyErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "event_apply_errors_total",
			Help:      "Total number of market events that failed to apply",
		}),

		// Alert metrics
		AlertsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts delivered to users",
		}),
		AlertsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "alerts_suppressed_total",
			Help:      "Total number of evaluations rejected by a gate",
		}),
		EvaluationErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "evaluation_errors_total",
			Help:      "Total number of evaluations that failed with an error",
		}),
		EvaluationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "evaluation_latency_seconds",
			Help:      "Alert evaluation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Delivery metrics
		NotifyErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "notify_errors_total",
			Help:      "Total number of alert deliveries that failed",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer, "")
