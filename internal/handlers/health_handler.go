package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/pkg/utils"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler takes the dependencies checked by the readiness check, keyed by name. Nil
// entries are reported as disabled.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, fiber.StatusOK, "OK", fiber.Map{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		check := h.checks[name]
		if check == nil {
			status[name] = "disabled"
			continue
		}
		if err := check.Ping(ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.Response{
			Success: false,
			Message: "Service not ready",
			Data:    status,
			Code:    utils.CodeUnavailable,
		})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Ready", status)
}
