package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"claims_app_go/metrics"
	"claims_app_go/models"

	"gorm.io/gorm"
)

// AuditContext contains contextual information for audit logging
type AuditContext struct {
	ActorID   string
	ActorName string
	IPAddress string
	UserAgent string
}

type auditContextKey struct{}

// WithAuditContext attaches the actor to a request context
func WithAuditContext(ctx context.Context, a AuditContext) context.Context {
	return context.WithValue(ctx, auditContextKey{}, a)
}

// AuditContextFrom returns the actor attached to ctx, or the zero value
func AuditContextFrom(ctx context.Context) AuditContext {
	if a, ok := ctx.Value(auditContextKey{}).(AuditContext); ok {
		return a
	}
	return AuditContext{}
}

// AuditEvent describes one audited operation
type AuditEvent struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	CaseID       string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// auditWrites tracks the detached audit goroutines still running
var auditWrites sync.WaitGroup

// WaitForAuditWrites blocks until every pending audit write has finished
func WaitForAuditWrites() {
	auditWrites.Wait()
}

// LogAuditEvent creates a new audit log entry asynchronously
func LogAuditEvent(db *gorm.DB, actor AuditContext, event AuditEvent) {
	// Run in goroutine to avoid blocking the request
	auditWrites.Add(1)
	go func() {
		defer auditWrites.Done()
		if err := db.Create(buildAuditLog(actor, event)).Error; err != nil {
			log.Printf("[AUDIT] Failed to create audit log: %v", err)
		}
	}()
}

func buildAuditLog(actor AuditContext, event AuditEvent) *models.AuditLog {
	var oldJSON, newJSON string

	if event.OldValues != nil {
		if bytes, err := json.Marshal(event.OldValues); err == nil {
			oldJSON = string(bytes)
		}
	}
	if event.NewValues != nil {
		if bytes, err := json.Marshal(event.NewValues); err == nil {
			newJSON = string(bytes)
		}
	}

	return &models.AuditLog{
		ActorID:      ptrIfNotEmpty(actor.ActorID),
		ActorName:    actor.ActorName,
		CaseID:       ptrIfNotEmpty(event.CaseID),
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		ResourceName: event.ResourceName,
		Action:       event.Action,
		Description:  event.Description,
		OldValues:    oldJSON,
		NewValues:    newJSON,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
	}
}

// LogCleanupFailure records a best-effort deletion that did not happen.
// The failure is never retried; the audit row and the case notification are
// the hand-off for manual follow-up.
func LogCleanupFailure(db *gorm.DB, ctx context.Context, source, resourceType, resourceID, caseID, details string) {
	log.Printf("[CLEANUP] %s | %s %s | Case: %s | Details: %s", source, resourceType, resourceID, caseID, details)
	metrics.RecordCleanupFailure(source)

	actor := AuditContextFrom(ctx)
	auditWrites.Add(1)
	go func() {
		defer auditWrites.Done()
		entry := buildAuditLog(actor, AuditEvent{
			Action:       models.AuditActionCleanupFailed,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			CaseID:       caseID,
			Description:  details,
			NewValues:    map[string]string{"source": source},
		})
		if err := db.Create(entry).Error; err != nil {
			log.Printf("[AUDIT] Failed to create cleanup audit log: %v", err)
		}

		if caseID == "" {
			return
		}
		notification := &models.Notification{
			CaseID:  &caseID,
			Type:    models.NotificationTypeCleanupFailed,
			Title:   "Manual cleanup required",
			Message: details,
			LinkURL: "/api/cases/" + caseID,
		}
		if err := NewNotificationService(db).CreateNotification(notification); err != nil {
			log.Printf("[AUDIT] Failed to create cleanup notification: %v", err)
		}
	}()
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory retrieves the audit history for a specific resource
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// GetCaseAuditLogs retrieves paginated audit logs recorded against a case
func GetCaseAuditLogs(
	db *gorm.DB,
	caseID string,
	filters AuditLogFilters,
	page, pageSize int,
) ([]models.AuditLog, int64, error) {
	query := db.Model(&models.AuditLog{}).Where("case_id = ?", caseID)

	// Apply filters
	if filters.ActorID != "" {
		query = query.Where("actor_id = ?", filters.ActorID)
	}
	if filters.ResourceType != "" {
		query = query.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}

// AuditLogFilters contains filter options for audit log queries
type AuditLogFilters struct {
	ActorID      string
	ResourceType string
	Action       string
	DateFrom     time.Time
	DateTo       time.Time
}
