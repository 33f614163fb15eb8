package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/tracing"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all ops HTTP handlers
type Handlers struct {
	manager   *app.Manager
	catalog   *registry.Catalog
	metrics   *monitoring.Metrics
	hm        *HandlerMetrics
	tracer    *tracing.Tracer
	log       *zap.Logger
	startedAt time.Time
}

// NewHandlers creates a new handler set. metrics and tracer may be nil.
func NewHandlers(
	manager *app.Manager,
	catalog *registry.Catalog,
	metrics *monitoring.Metrics,
	tracer *tracing.Tracer,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:   manager,
		catalog:   catalog,
		metrics:   metrics,
		hm:        NewHandlerMetrics(metrics),
		tracer:    tracer,
		log:       logger.With(zap.String("component", "ops")),
		startedAt: time.Now(),
	}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "webruntime",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"instances": h.manager.Stats(),
		"catalog": gin.H{
			"root": h.catalog.Root(),
			"apps": h.catalog.Len(),
		},
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
