package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Bridge metrics
	BridgeCalls    *prometheus.CounterVec
	BridgeDuration *prometheus.HistogramVec
	BridgeDenials  *prometheus.CounterVec

	// Manifest and catalog metrics
	ManifestParses *prometheus.CounterVec
	CatalogApps    prometheus.Gauge

	// Instance metrics
	InstancesActive prometheus.Gauge
	InstancesTotal  prometheus.Counter
	Relaunches      prometheus.Counter

	// Internal operations (catalog scans, resource reads, host signals)
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once

	registry prometheus.Gatherer

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	BridgeCalls     int64   `json:"bridge_calls"`
	BridgeDenials   int64   `json:"bridge_denials"`
	ActiveInstances int64   `json:"active_instances"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	UptimeSeconds   float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics registers metrics on the default Prometheus registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewRegistryMetrics registers metrics on a fresh registry; used by tests and
// by embedders that run several runtimes in one process
func NewRegistryMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers metrics on reg and serves them from gatherer
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		stop:      make(chan struct{}),
		registry:  gatherer,

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webruntime_http_requests_total",
				Help: "Total number of ops HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webruntime_http_request_duration_seconds",
				Help:    "Ops HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webruntime_http_request_size_bytes",
				Help:    "Ops HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webruntime_http_response_size_bytes",
				Help:    "Ops HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Bridge metrics
		BridgeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webruntime_bridge_calls_total",
				Help: "Total number of bridge calls by capability and outcome",
			},
			[]string{"capability", "status"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webruntime_bridge_call_duration_seconds",
				Help:    "Bridge call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"capability"},
		),
		BridgeDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webruntime_bridge_denials_total",
				Help: "Total number of bridge calls denied by trust policy",
			},
			[]string{"capability"},
		),

		// Manifest and catalog metrics
		ManifestParses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webruntime_manifest_parses_total",
				Help: "Total number of descriptor parses by result",
			},
			[]string{"result"},
		),
		CatalogApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webruntime_catalog_apps",
				Help: "Number of applications in the catalog",
			},
		),

		// Instance metrics
		InstancesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webruntime_instances_active",
				Help: "Number of running application instances",
			},
		),
		InstancesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webruntime_instances_total",
				Help: "Total number of application instances launched",
			},
		),
		Relaunches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webruntime_relaunches_total",
				Help: "Total number of launches delivered to a running instance",
			},
		),

		// Internal operations
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webruntime_operations_total",
				Help: "Total number of internal operations",
			},
			[]string{"component", "operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webruntime_operation_duration_seconds",
				Help:    "Internal operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"component", "operation"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webruntime_uptime_seconds",
				Help: "Runtime uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime refreshes the uptime gauge until Close
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveBridgeCall records one dispatched bridge message
func (m *Metrics) ObserveBridgeCall(capability, status string, duration time.Duration) {
	m.BridgeCalls.WithLabelValues(capability, status).Inc()
	m.BridgeDuration.WithLabelValues(capability).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.BridgeCalls++
	m.mu.Unlock()
}

// ObserveBridgeDenial records a call rejected by trust policy
func (m *Metrics) ObserveBridgeDenial(capability string) {
	m.BridgeDenials.WithLabelValues(capability).Inc()

	m.mu.Lock()
	m.snapshot.BridgeDenials++
	m.mu.Unlock()
}

// RecordManifestParse records a descriptor parse; result is "ok" or an error kind
func (m *Metrics) RecordManifestParse(result string) {
	m.ManifestParses.WithLabelValues(result).Inc()
}

func (m *Metrics) SetCatalogApps(count int) {
	m.CatalogApps.Set(float64(count))
}

// SetInstancesActive sets the number of running instances
func (m *Metrics) SetInstancesActive(count int) {
	m.InstancesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveInstances = int64(count)
	m.mu.Unlock()
}

func (m *Metrics) IncInstancesTotal() {
	m.InstancesTotal.Inc()
}

func (m *Metrics) IncRelaunches() {
	m.Relaunches.Inc()
}

// RecordOperation records an internal operation
func (m *Metrics) RecordOperation(component, operation, status string, duration time.Duration) {
	m.Operations.WithLabelValues(component, operation, status).Inc()
	m.OperationDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// Snapshot returns current values for the JSON health endpoint
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
