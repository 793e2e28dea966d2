// Package prometheus records pipeline and HTTP telemetry as Prometheus metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

const namespace = "sercha_rag"

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder owns a registry and the metrics registered on it.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	queriesTotal   *prometheus.CounterVec
	rerankDegraded prometheus.Counter
	uploadsTotal   prometheus.Counter
	uploadChunks   prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a recorder with its own registry, including Go and process
// collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of answer pipeline stages in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "queries_total",
				Help:      "Total number of answered queries by outcome",
			},
			[]string{"outcome"},
		),
		rerankDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rerank",
			Name:      "degraded_total",
			Help:      "Reranks that fell back to similarity order",
		}),
		uploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents ingested",
		}),
		uploadChunks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_per_document",
			Help:      "Chunks created per ingested document",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveStage records the duration of a pipeline stage.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncQuery counts a finished query by outcome.
func (r *Recorder) IncQuery(outcome string) {
	r.queriesTotal.WithLabelValues(outcome).Inc()
}

// IncRerankDegraded counts reranks that fell back to similarity order.
func (r *Recorder) IncRerankDegraded() {
	r.rerankDegraded.Inc()
}

// ObserveUpload records an ingested document and its chunk count.
func (r *Recorder) ObserveUpload(chunks int) {
	r.uploadsTotal.Inc()
	r.uploadChunks.Observe(float64(chunks))
}

// ObserveHTTP records one served request. path should be the route
// template, not the raw URL, to bound label cardinality.
func (r *Recorder) ObserveHTTP(method, path string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
