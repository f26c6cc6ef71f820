package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"claims_app_go/config"
	"claims_app_go/db"
	"claims_app_go/handlers"
	"claims_app_go/middleware"
	"claims_app_go/models"
	"claims_app_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	services.InitializeStorage(cfg)
	if cfg.ChromePath != "" {
		services.ChromePath = cfg.ChromePath
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit(cfg)))
	e.Use(middleware.AuditContext())

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	uploadLimiter := middleware.NewUploadRateLimiter(cfg.UploadRatePerMinute)
	transferLimiter := middleware.NewTransferRateLimiter(cfg.TransferRatePerMinute)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Cases
	cases := api.Group("/cases")
	{
		cases.POST("", handlers.CreateCaseHandler)
		cases.GET("", handlers.ListCasesHandler)
		cases.GET("/export", handlers.ExportCasesHandler)
		cases.POST("/import", handlers.ImportCasesHandler, uploadLimiter.Middleware())
		cases.GET("/:id", handlers.GetCaseHandler)
		cases.PUT("/:id", handlers.UpsertCaseHandler)
		cases.PUT("/:id/status", handlers.UpdateCaseStatusHandler)
		cases.DELETE("/:id", handlers.DeleteCaseHandler)
		cases.GET("/:id/history", handlers.CaseHistoryHandler)
		cases.GET("/:id/messages", handlers.ListCaseMessagesHandler)
		cases.POST("/:id/report", handlers.GenerateCaseReportHandler)

		cases.GET("/:id/notifications", handlers.ListCaseNotificationsHandler)
		cases.PUT("/:id/notifications/read", handlers.MarkAllNotificationsReadHandler)
		cases.PUT("/:id/notifications/:notificationId/read", handlers.MarkNotificationReadHandler)

		cases.GET("/:id/documents", handlers.ListCaseDocumentsHandler)
		cases.POST("/:id/documents", handlers.UploadCaseDocumentHandler, uploadLimiter.Middleware())
		cases.GET("/:id/documents/:docId/download", handlers.DownloadCaseDocumentHandler)
		cases.DELETE("/:id/documents/:docId", handlers.DeleteCaseDocumentHandler)
	}

	// Correspondence
	messages := api.Group("/messages")
	{
		messages.POST("", handlers.CreateMessageHandler, uploadLimiter.Middleware())
		messages.GET("", handlers.ListMessagesHandler)
		messages.GET("/folders", handlers.FolderCountsHandler)
		messages.GET("/:id", handlers.GetMessageHandler)
		messages.PATCH("/:id/flags", handlers.UpdateMessageFlagsHandler)
		messages.PUT("/:id/status", handlers.UpdateMessageStatusHandler)
		messages.DELETE("/:id", handlers.DeleteMessageHandler)
		messages.POST("/:id/assignments", handlers.AssignMessageHandler)
		messages.DELETE("/:id/assignments/:caseId", handlers.UnassignMessageHandler)
	}

	// Attachments
	attachments := api.Group("/attachments")
	{
		attachments.GET("/:id/download", handlers.DownloadAttachmentHandler)
		attachments.POST("/:id/transfer", handlers.TransferAttachmentHandler, transferLimiter.Middleware())
	}

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARNING] Graceful shutdown failed: %v", err)
	}
	services.WaitForAuditWrites()
}

// bodyLimit leaves room for base64 encoded attachments in message JSON
func bodyLimit(cfg *config.Config) string {
	mb := cfg.MaxUploadMB*2 + 1
	return strconv.Itoa(mb) + "M"
}
