package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type requestIDKey struct{}

const requestIDLocal = "X-Request-ID"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx returns the request's user context, attaching the request id
// from Locals when the middleware did not already do so.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if GetRequestID(ctx) != "unknown" {
		return ctx
	}

	requestID, ok := c.Locals(requestIDLocal).(string)
	if !ok || requestID == "" {
		requestID = c.Get(requestIDLocal)
	}
	if requestID == "" {
		return ctx
	}

	return WithRequestID(ctx, requestID)
}
