package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// Every recording method is safe to call on a nil Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	MessagesSent      prometheus.Counter
	RequestsCreated   prometheus.Counter
	RequestsResponded *prometheus.CounterVec

	// Live channel metrics
	ActiveConnections prometheus.Gauge
	FramesDelivered   prometheus.Counter
	FramesDropped     prometheus.Counter
	FramesRelayed     prometheus.Counter

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry under namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of direct messages appended",
		}),
		RequestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaboration_requests_created_total",
			Help:      "Total number of collaboration requests created",
		}),
		RequestsResponded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaboration_requests_responded_total",
			Help:      "Total number of collaboration requests accepted or declined",
		}, []string{"status"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_active_connections",
			Help:      "Number of registered live channel connections",
		}),
		FramesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_delivered_total",
			Help:      "Frames enqueued to live channel connections",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_dropped_total",
			Help:      "Frames dropped because a connection could not keep up",
		}),
		FramesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_relayed_total",
			Help:      "Client frames relayed to other connections",
		}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		}, []string{"operation", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Record store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MessagesSent,
		c.RequestsCreated,
		c.RequestsResponded,
		c.ActiveConnections,
		c.FramesDelivered,
		c.FramesDropped,
		c.FramesRelayed,
		c.StoreOperations,
		c.StoreDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records a completed HTTP request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMessageSent counts an appended message
func (c *Collector) RecordMessageSent() {
	if c == nil {
		return
	}
	c.MessagesSent.Inc()
}

// RecordRequestCreated counts a new collaboration request
func (c *Collector) RecordRequestCreated() {
	if c == nil {
		return
	}
	c.RequestsCreated.Inc()
}

// RecordRequestResponded counts a request reaching status
func (c *Collector) RecordRequestResponded(status string) {
	if c == nil {
		return
	}
	c.RequestsResponded.WithLabelValues(status).Inc()
}

// SetActiveConnections updates the live connection gauge
func (c *Collector) SetActiveConnections(n int) {
	if c == nil {
		return
	}
	c.ActiveConnections.Set(float64(n))
}

// RecordBroadcast records the outcome of one fan-out
func (c *Collector) RecordBroadcast(delivered, dropped int) {
	if c == nil {
		return
	}
	c.FramesDelivered.Add(float64(delivered))
	c.FramesDropped.Add(float64(dropped))
}

// RecordRelay records a relayed client frame
func (c *Collector) RecordRelay(delivered, dropped int) {
	if c == nil {
		return
	}
	c.FramesRelayed.Inc()
	c.FramesDelivered.Add(float64(delivered))
	c.FramesDropped.Add(float64(dropped))
}

// RecordStoreOperation records a record store call
func (c *Collector) RecordStoreOperation(operation string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(operation, status).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
