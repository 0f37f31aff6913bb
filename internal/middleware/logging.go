package middleware

import (
	"time"

	"DermaScan/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// newLoggingMiddleware writes one access line per request. Bodies are not
// logged since uploads carry raw image bytes.
func newLoggingMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the app error handler write the response before logging it
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				return handlerErr
			}
		}

		requestID, ok := c.Locals(RequestIDKey).(string)
		if !ok || requestID == "" {
			requestID = "unknown"
		}

		status := c.Response().StatusCode()
		fields := log.Fields{
			"request_id":     requestID,
			"method":         c.Method(),
			"path":           c.Path(),
			"status":         status,
			"latency_ms":     time.Since(start).Milliseconds(),
			"ip":             c.IP(),
			"user_agent":     c.Get("User-Agent"),
			"content_length": c.Request().Header.ContentLength(),
			"response_size":  len(c.Response().Body()),
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Success")
		}

		return nil
	}
}
