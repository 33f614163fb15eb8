package http

import (
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper; nil metrics disables tracking
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackCatalogOperation tracks catalog operations. Call the returned
// function with the outcome.
func (hm *HandlerMetrics) TrackCatalogOperation(operation string) func(status string) {
	return hm.track("catalog", operation)
}

// TrackInstanceOperation tracks instance manager operations
func (hm *HandlerMetrics) TrackInstanceOperation(operation string) func(status string) {
	return hm.track("instances", operation)
}

func (hm *HandlerMetrics) track(component, operation string) func(status string) {
	var metrics *monitoring.Metrics
	if hm != nil {
		metrics = hm.metrics
	}
	timer := monitoring.NewTimer(metrics, component, operation)
	return func(status string) {
		timer.Stop(status)
	}
}
