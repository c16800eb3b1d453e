package providers

import (
	"barcodedrop/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(format string)
	IncCacheMisses(format string)
	ObservePersistenceDuration(duration time.Duration)
	IncChannelMessages(kind string)
	IncProtocolErrors()
	IncReconnects()
	SetChannelState(state int)
	IncAutoCopy(result string)
	IncTransportErrors(operation string)
	SetScansTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	channelMessages     *prometheus.CounterVec
	protocolErrors      prometheus.Counter
	reconnects          prometheus.Counter
	channelState        prometheus.Gauge
	autoCopy            *prometheus.CounterVec
	transportErrors     *prometheus.CounterVec
	scansTotal          prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(format string) {
	m.cacheHits.WithLabelValues(format).Inc()
}

func (m *MetricsProvider) IncCacheMisses(format string) {
	m.cacheMisses.WithLabelValues(format).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncChannelMessages(kind string) {
	m.channelMessages.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncProtocolErrors() {
	m.protocolErrors.Inc()
}

func (m *MetricsProvider) IncReconnects() {
	m.reconnects.Inc()
}

func (m *MetricsProvider) SetChannelState(state int) {
	m.channelState.Set(float64(state))
}

func (m *MetricsProvider) IncAutoCopy(result string) {
	m.autoCopy.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncTransportErrors(operation string) {
	m.transportErrors.WithLabelValues(operation).Inc()
}

func (m *MetricsProvider) SetScansTotal(count int) {
	m.scansTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_requests_total",
			Help: "Total number of control HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barcodedrop_request_duration_seconds",
			Help:    "Control HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_export_cache_hits_total",
			Help: "Export cache hits, by format",
		}, []string{"format"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_export_cache_misses_total",
			Help: "Export cache misses, by format",
		}, []string{"format"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "barcodedrop_persistence_duration_seconds",
			Help:    "Duration of preference persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		channelMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_channel_messages_total",
			Help: "Live channel messages applied, by kind",
		}, []string{"kind"}),

		protocolErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barcodedrop_protocol_errors_total",
			Help: "Live channel messages dropped as unparseable or unknown",
		}),

		reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barcodedrop_reconnects_total",
			Help: "Live channel reconnect attempts",
		}),

		channelState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "barcodedrop_channel_state",
			Help: "Current live channel state (0 idle, 1 connecting, 2 open, 3 closed, 4 errored, 5 disabled)",
		}),

		autoCopy: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_autocopy_total",
			Help: "Auto-copy decisions, by result",
		}, []string{"result"}),

		transportErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barcodedrop_transport_errors_total",
			Help: "Failed API requests, by operation",
		}, []string{"operation"}),

		scansTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "barcodedrop_scans_total",
			Help: "Number of scans in the live collection",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncChannelMessages(_ string)                      {}
func (n *noopMetrics) IncProtocolErrors()                               {}
func (n *noopMetrics) IncReconnects()                                   {}
func (n *noopMetrics) SetChannelState(_ int)                            {}
func (n *noopMetrics) IncAutoCopy(_ string)                             {}
func (n *noopMetrics) IncTransportErrors(_ string)                      {}
func (n *noopMetrics) SetScansTotal(_ int)                              {}
