package middleware

import (
	"time"

	"github.com/filesmanager/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		logger.StartRequest(c)

		err := c.Next()

		status := c.Response().StatusCode()
		logger.Request(c, logger.LevelForStatus(status), "http_request", err, map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get("User-Agent"),
			"ip":            c.IP(),
			"request_body":  logger.BodySummary(c),
			"response_size": logger.ResponseSize(c),
		})
		return err
	}
}

// SecurityLogger records rejected tokens and lookups of missing or hidden
// records.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var action string
		switch c.Response().StatusCode() {
		case fiber.StatusUnauthorized:
			action = "unauthorized"
		case fiber.StatusNotFound:
			action = "not_found"
		default:
			return err
		}
		if logger.GetUserIDFromContext(c) == nil {
			action += "_unauthenticated"
		}

		logger.Request(c, logger.LevelWarn, action, nil, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
		})
		return err
	}
}
