package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/pkg/circuitbreaker"
	"github.com/fleetdocs/backend/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater is an external client guarded by a circuit breaker.
type BreakerStater interface {
	BreakerState() circuitbreaker.State
}

type HealthHandler struct {
	deps     map[string]Pinger
	breakers map[string]BreakerStater
}

// NewHealthHandler checks each named dependency on /ready and reports the
// breakers of the OCR, LLM and file storage clients on /health.
func NewHealthHandler(deps map[string]Pinger, breakers map[string]BreakerStater) *HealthHandler {
	return &HealthHandler{deps: deps, breakers: breakers}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

// Health stays 200 with an open breaker; uploads degrade to manual entry
// rather than stop.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	states := make(fiber.Map, len(h.breakers))
	for name, b := range h.breakers {
		st := b.BreakerState()
		states[name] = st.String()
		if st == circuitbreaker.StateOpen {
			status = "degraded"
		}
	}
	return c.JSON(fiber.Map{"status": status, "breakers": states})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready", "checks": checks})
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": checks})
}
