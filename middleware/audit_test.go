package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"claims_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("FullContext", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(HeaderActorID, " handler-123 ")
		req.Header.Set(HeaderActorName, "Test Handler")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var fromRequest services.AuditContext
		handler := AuditContext()(func(c echo.Context) error {
			fromRequest = services.AuditContextFrom(c.Request().Context())
			return c.NoContent(http.StatusOK)
		})

		err := handler(c)
		assert.NoError(t, err)

		auditCtx := GetAuditContext(c)
		assert.Equal(t, "handler-123", auditCtx.ActorID)
		assert.Equal(t, "Test Handler", auditCtx.ActorName)
		assert.Equal(t, "test-agent", auditCtx.UserAgent)
		assert.NotEmpty(t, auditCtx.IPAddress)
		assert.Equal(t, auditCtx, fromRequest)
	})

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		err := handler(c)
		assert.NoError(t, err)

		auditCtx := GetAuditContext(c)
		assert.Empty(t, auditCtx.ActorID)
		assert.Empty(t, auditCtx.ActorName)
	})
}

func TestGetAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("Exists", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		expected := services.AuditContext{ActorID: "123"}
		c.Set(ContextKeyAuditContext, expected)

		result := GetAuditContext(c)
		assert.Equal(t, expected, result)
	})

	t.Run("NotExists", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		result := GetAuditContext(c)
		assert.Equal(t, services.AuditContext{}, result)
	})
}
