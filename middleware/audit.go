package middleware

import (
	"strings"

	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// Headers set by the upstream gateway that authenticated the caller
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// AuditContext is middleware that extracts actor info for audit logging.
// The actor is stored on the echo context and on the request context so
// services can read it through services.AuditContextFrom.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			actor := services.AuditContext{
				ActorID:   strings.TrimSpace(req.Header.Get(HeaderActorID)),
				ActorName: strings.TrimSpace(req.Header.Get(HeaderActorName)),
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			}

			c.Set(ContextKeyAuditContext, actor)
			c.SetRequest(req.WithContext(services.WithAuditContext(req.Context(), actor)))
			return next(c)
		}
	}
}

// GetAuditContext retrieves the audit context from the request
func GetAuditContext(c echo.Context) services.AuditContext {
	if ctx, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return ctx
	}
	return services.AuditContext{}
}
