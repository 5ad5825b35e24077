package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActionLoggerConfig struct {
	Enabled     bool
	SkipPaths   []string
	SkipMethods []string
	Logger      *zap.Logger
}

// ActionLogger writes one structured entry per state-changing request made by an authenticated user.
func ActionLogger(config ActionLoggerConfig) fiber.Handler {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	skipMethods := make(map[string]bool)
	for _, method := range config.SkipMethods {
		skipMethods[method] = true
	}

	return func(c *fiber.Ctx) error {
		if !config.Enabled || config.Logger == nil {
			return c.Next()
		}

		if skipPaths[c.Path()] || skipMethods[c.Method()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		userID, ok := c.Locals("user_id").(uuid.UUID)
		if !ok {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("user_id", userID.String()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		}
		if status >= fiber.StatusBadRequest {
			config.Logger.Warn("action failed", fields...)
		} else {
			config.Logger.Info("action", fields...)
		}

		return err
	}
}
