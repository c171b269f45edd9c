package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/PenBox/backend/internal/api/ws"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/pen"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PenBox/backend/internal/providers/sandbox"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the handlers call into. Pool, Hub, Relay,
// Metrics and Breaker are optional.
type Dependencies struct {
	Store   *pen.Store
	Pool    *sandbox.Pool
	Hub     *ws.Hub
	Relay   *relay.Relay
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
	// Breaker guards the remote store, when one is configured
	Breaker *resilience.Breaker
	// Backend names the store implementation, for /health
	Backend string
	Version string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store   *pen.Store
	pool    *sandbox.Pool
	hub     *ws.Hub
	relay   *relay.Relay
	metrics *monitoring.Metrics
	logger  *zap.Logger
	breaker *resilience.Breaker
	backend string
	version string
}

// NewHandlers creates a new handler set
func NewHandlers(deps Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handlers{
		store:   deps.Store,
		pool:    deps.Pool,
		hub:     deps.Hub,
		relay:   deps.Relay,
		metrics: deps.Metrics,
		logger:  logger,
		breaker: deps.Breaker,
		backend: deps.Backend,
		version: version,
	}
}

// Root handles the status check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "PenBox",
		"version": h.version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	store := gin.H{"backend": h.backend}
	if h.breaker != nil {
		state := h.breaker.State()
		store["breaker"] = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}

	body := gin.H{
		"status": status,
		"store":  store,
	}
	if h.pool != nil {
		body["sandbox"] = h.pool.Stats()
	}
	if h.hub != nil {
		body["editor_sessions"] = h.hub.Len()
	}
	if h.relay != nil {
		body["live_generations"] = h.relay.Registry().Len()
	}

	c.JSON(http.StatusOK, body)
}

// fail maps a domain error onto a response. Store and sandbox outages are
// retryable; everything unexpected is logged.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pen.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pen.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pen.ErrUnavailable),
		errors.Is(err, sandbox.ErrBusy),
		errors.Is(err, sandbox.ErrPoolClosed),
		errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("dependency unavailable",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
