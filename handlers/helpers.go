package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"claims_app_go/config"
	"claims_app_go/db"
	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// getConfig returns the config placed on the context by the server, or defaults
func getConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get("config").(*config.Config); ok && cfg != nil {
		return cfg
	}
	return &config.Config{
		ClaimNumberPrefix: config.DefaultClaimNumberPrefix,
		MaxUploadMB:       25,
		EmailTestMode:     true,
	}
}

func caseService(c echo.Context) *services.CaseService {
	svc := services.NewCaseService(db.DB, services.Storage)
	svc.ClaimNumberPrefix = getConfig(c).ClaimNumberPrefix
	return svc
}

func documentService() *services.DocumentService {
	return services.NewDocumentService(db.DB, services.Storage)
}

func correspondenceService(c echo.Context) *services.CorrespondenceService {
	return services.NewCorrespondenceService(db.DB, services.Storage, getConfig(c))
}

func transferService() *services.TransferService {
	return services.NewTransferService(db.DB, services.Storage)
}

// respondError maps service errors onto HTTP status codes
func respondError(err error) error {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]string{
			"error":  "validation_failed",
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.Is(err, services.ErrValidationFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConcurrencyConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrTransferFailed), errors.Is(err, services.ErrStorageError):
		log.Printf("[WARNING] Storage failure: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusRequestTimeout, "Request cancelled")
	}
	log.Printf("[ERROR] Unhandled service error: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// bindJSON decodes the request body, turning decode errors into 400s
func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func ctxOf(c echo.Context) context.Context {
	return c.Request().Context()
}
