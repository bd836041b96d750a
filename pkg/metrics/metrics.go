package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carpool"

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	reg *prometheus.Registry

	ReservationsNormalized *prometheus.CounterVec // display_status
	ReservationIssues      *prometheus.CounterVec // issue
	ReservationActions     *prometheus.CounterVec // action, outcome
	UpstreamDuration       *prometheus.HistogramVec
	CacheRequests          *prometheus.CounterVec // result: hit|miss|error
	EventPublishErrs       prometheus.Counter
	WebsocketClients       prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ReservationsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_normalized_total",
			Help:      "Reservations reconciled, by display status.",
		}, []string{"display_status"}),
		ReservationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_issues_total",
			Help:      "Data issues found on reconciled reservations.",
		}, []string{"issue"}),
		ReservationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_actions_total",
			Help:      "Cancel and respond attempts, by outcome.",
		}, []string{"action", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of calls to the reservation backend.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"operation"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Reservation list cache lookups.",
		}, []string{"result"}),
		EventPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Domain events that could not be published.",
		}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	reg.MustRegister(
		c.ReservationsNormalized, c.ReservationIssues, c.ReservationActions,
		c.UpstreamDuration, c.CacheRequests, c.EventPublishErrs, c.WebsocketClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// The helpers below are nil-safe so callers can run without metrics.

func (c *Collector) ObserveNormalized(displayStatus string, issues []string) {
	if c == nil {
		return
	}
	c.ReservationsNormalized.WithLabelValues(displayStatus).Inc()
	for _, issue := range issues {
		c.ReservationIssues.WithLabelValues(issue).Inc()
	}
}

func (c *Collector) ObserveAction(action, outcome string) {
	if c == nil {
		return
	}
	c.ReservationActions.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) ObserveUpstream(operation string, d time.Duration) {
	if c == nil {
		return
	}
	c.UpstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) ObserveCache(result string) {
	if c == nil {
		return
	}
	c.CacheRequests.WithLabelValues(result).Inc()
}

func (c *Collector) ObservePublishError() {
	if c == nil {
		return
	}
	c.EventPublishErrs.Inc()
}

func (c *Collector) SetWebsocketClients(n int) {
	if c == nil {
		return
	}
	c.WebsocketClients.Set(float64(n))
}
