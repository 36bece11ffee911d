package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "phase_monitor_"

	resultSuccess = "success"
	resultError   = "error"
	resultStale   = "stale"
)

var (
	registerOnce sync.Once

	feedRequests *prometheus.CounterVec
	feedLatency  *prometheus.HistogramVec

	refreshTotal  *prometheus.CounterVec
	classifyTotal *prometheus.CounterVec

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec

	sinkPublishTotal *prometheus.CounterVec
)

// Init registers the collectors once per process.
func Init() {
	registerOnce.Do(func() {
		feedRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_requests_total",
				Help: "Telemetry feed requests by phase, query kind and result",
			},
			[]string{"phase", "kind", "result"},
		)
		feedLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "feed_latency_seconds",
				Help:    "Telemetry feed latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase", "result"},
		)
		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_total",
				Help: "Dashboard refresh cycles by view and result",
			},
			[]string{"view", "result"},
		)
		classifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "classifications_total",
				Help: "Live reading classifications by parameter and class",
			},
			[]string{"parameter", "class"},
		)
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Report builds by format and result",
			},
			[]string{"format", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		sinkPublishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sink_publish_total",
				Help: "Display sink publishes by sink and result",
			},
			[]string{"sink", "result"},
		)

		prometheus.MustRegister(
			feedRequests,
			feedLatency,
			refreshTotal,
			classifyTotal,
			reportTotal,
			reportLatency,
			sinkPublishTotal,
		)
	})
}

// ObserveFeed records one feed request.
func ObserveFeed(phase, kind, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if feedRequests != nil {
		feedRequests.WithLabelValues(phase, kind, result).Inc()
	}
	if feedLatency != nil {
		feedLatency.WithLabelValues(phase, result).Observe(duration.Seconds())
	}
}

// IncRefresh counts a refresh cycle of a dashboard view.
func IncRefresh(view, result string) {
	if result == "" {
		result = resultSuccess
	}
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(view, result).Inc()
	}
}

// IncClassification counts one classified live reading.
func IncClassification(parameter, class string) {
	if classifyTotal != nil {
		classifyTotal.WithLabelValues(parameter, class).Inc()
	}
}

// ObserveReport records report build latency and result.
func ObserveReport(format, result string, duration time.Duration) {
	if format == "" {
		format = "json"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(format, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// IncSinkPublish counts a publish attempt on a display sink.
func IncSinkPublish(sink, result string) {
	if sinkPublishTotal != nil {
		sinkPublishTotal.WithLabelValues(sink, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultStale   = resultStale
)
