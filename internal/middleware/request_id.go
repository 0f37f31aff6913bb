package middleware

import (
	"time"

	contextPkg "DermaScan/pkg/context"
	"DermaScan/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = "X-Request-ID"

// newRequestIDMiddleware echoes a client supplied X-Request-ID or mints a
// ULID, and stores it both in Locals and in the user context so services
// can log it without seeing fiber.
func newRequestIDMiddleware(u utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)
		if requestID == "" {
			id, err := u.NewULIDFromTimestamp(time.Now())
			if err != nil {
				id = "unknown"
			}
			requestID = id
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
