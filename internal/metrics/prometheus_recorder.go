package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	httpRequests   *prom.CounterVec
	commits        *prom.CounterVec
	renderDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grup",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "status"})
		pr.commits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grup",
			Name:      "commits_total",
			Help:      "Document commits by result",
		}, []string{"result"})
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "grup",
			Name:      "render_duration_seconds",
			Help:      "Duration of markdown render and commit",
			Buckets:   prom.DefBuckets,
		})
		reg.MustRegister(pr.httpRequests, pr.commits, pr.renderDuration)
	})
	return pr
}

func (p *PrometheusRecorder) IncHTTPRequest(route string, status int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncCommit(result CommitResult) {
	if p == nil || p.commits == nil {
		return
	}
	p.commits.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
