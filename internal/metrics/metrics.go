// Package metrics collects and exposes Prometheus metrics for the club manager.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the stores, storage adapters and HTTP middleware.
type Recorder interface {
	RecordEnrollment(result string)
	RecordPromotion()
	RecordPersistFailure(key string)
	RecordTeamsGenerated()
	RecordHTTPRequest(route, method string, status int, d time.Duration)
	RecordKVOp(op string, d time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	enrollments     *prometheus.CounterVec
	promotions      prometheus.Counter
	persistFailures *prometheus.CounterVec
	teamsGenerated  prometheus.Counter
	httpDuration    *prometheus.HistogramVec
	kvDuration      *prometheus.HistogramVec
}

// Compile-time check that *Collector satisfies Recorder.
var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// PRE: reg has no eagles_* metrics registered yet
// POST: all collectors registered; panics on duplicate registration
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eagles_enrollments_total",
			Help: "Enrollment attempts by result.",
		}, []string{"result"}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eagles_promotions_total",
			Help: "Players promoted from a waitlist.",
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eagles_persist_failures_total",
			Help: "Failed writes to the key-value backend by key.",
		}, []string{"key"}),
		teamsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eagles_teams_generated_total",
			Help: "Balanced team generations.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eagles_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		kvDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eagles_kv_op_duration_seconds",
			Help:    "Key-value backend operation latency in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.enrollments,
		c.promotions,
		c.persistFailures,
		c.teamsGenerated,
		c.httpDuration,
		c.kvDuration,
	)

	return c
}

// RecordEnrollment counts one enrollment attempt.
func (c *Collector) RecordEnrollment(result string) {
	c.enrollments.WithLabelValues(result).Inc()
}

// RecordPromotion counts one waitlist promotion.
func (c *Collector) RecordPromotion() {
	c.promotions.Inc()
}

// RecordPersistFailure counts one failed write for key.
func (c *Collector) RecordPersistFailure(key string) {
	c.persistFailures.WithLabelValues(key).Inc()
}

// RecordTeamsGenerated counts one team generation.
func (c *Collector) RecordTeamsGenerated() {
	c.teamsGenerated.Inc()
}

// RecordHTTPRequest observes one request's latency under its route pattern.
func (c *Collector) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	c.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordKVOp observes one backend operation's latency.
func (c *Collector) RecordKVOp(op string, d time.Duration) {
	c.kvDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Noop discards every observation. Used by the CLI and in tests.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordEnrollment(string)                              {}
func (Noop) RecordPromotion()                                     {}
func (Noop) RecordPersistFailure(string)                          {}
func (Noop) RecordTeamsGenerated()                                {}
func (Noop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Noop) RecordKVOp(string, time.Duration)                     {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
