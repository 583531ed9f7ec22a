package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	documentsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docsummary_documents_ingested_total",
		Help: "Documents committed by upload requests.",
	})
	ingestFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docsummary_ingest_failures_total",
		Help: "Per-file ingestion failures by pipeline stage.",
	}, []string{"stage"})
	summarizeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsummary_summarize_duration_seconds",
		Help:    "Summarizer call latency.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"provider", "outcome"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docsummary_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		documentsIngested,
		ingestFailures,
		summarizeDuration,
		httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// AddDocumentsIngested counts committed document rows.
func AddDocumentsIngested(n int) {
	if n > 0 {
		documentsIngested.Add(float64(n))
	}
}

// IncIngestFailed counts one failed file at the given stage.
func IncIngestFailed(stage string) {
	ingestFailures.WithLabelValues(stage).Inc()
}

// ObserveSummarize records one summarizer call.
func ObserveSummarize(provider string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	summarizeDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// ObserveHTTPRequest counts a finished request. Unmatched routes share one label.
func ObserveHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
