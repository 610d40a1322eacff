package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/credence/internal/model"
)

const namespace = "credence"

// Recorder implements pipeline.Observer on its own registry
type Recorder struct {
	registry *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	fusedScore       prometheus.Histogram
	signalScore      *prometheus.HistogramVec
	signalDegraded   *prometheus.CounterVec
	producerDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// NewRecorder creates a recorder with Go runtime and process collectors registered
func NewRecorder() *Recorder {
	scoreBuckets := prometheus.LinearBuckets(0.1, 0.1, 10)

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by verdict.",
		}, []string{"verdict"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis.",
			Buckets:   prometheus.DefBuckets,
		}),
		fusedScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fused_score",
			Help:      "Distribution of fused credibility scores.",
			Buckets:   scoreBuckets,
		}),
		signalScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signal_score",
			Help:      "Distribution of per-signal credibility scores.",
			Buckets:   scoreBuckets,
		}, []string{"signal"}),
		signalDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_degraded_total",
			Help:      "Signals computed under a fallback policy.",
		}, []string{"signal"}),
		producerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "producer_duration_seconds",
			Help:      "Time spent in each signal producer.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"signal"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.analyses,
		r.analysisDuration,
		r.fusedScore,
		r.signalScore,
		r.signalDegraded,
		r.producerDuration,
		r.httpRequests,
	)

	return r
}

// ObserveSignal records one producer result
func (r *Recorder) ObserveSignal(name model.SignalName, s model.SignalScore, elapsed time.Duration) {
	r.signalScore.WithLabelValues(string(name)).Observe(s.Value)
	r.producerDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
	if s.Degraded {
		r.signalDegraded.WithLabelValues(string(name)).Inc()
	}
}

// ObserveReport records one completed analysis
func (r *Recorder) ObserveReport(report model.Report, elapsed time.Duration) {
	r.analyses.WithLabelValues(string(report.Verdict.Verdict)).Inc()
	r.fusedScore.Observe(report.Verdict.Score)
	r.analysisDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one API request
func (r *Recorder) ObserveRequest(route string, code int) {
	r.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
