package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"claims_app_go/models"

	"gorm.io/gorm"
)

// DocumentService manages the documents owned by a case
type DocumentService struct {
	DB      *gorm.DB
	Storage StorageProvider
}

func NewDocumentService(db *gorm.DB, storage StorageProvider) *DocumentService {
	return &DocumentService{DB: db, Storage: storage}
}

// NewDocumentInput describes a document to be created from bytes
type NewDocumentInput struct {
	CaseID             string
	FileName           string
	ContentType        string
	Category           string
	Description        *string
	Data               []byte
	UploadedBy         *string
	SourceAttachmentID *string
	SourceMessageID    *string
}

// UploadCaseDocument stores bytes under a fresh key and creates the document row.
// If the row cannot be created the bytes are removed again.
func (s *DocumentService) UploadCaseDocument(ctx context.Context, in NewDocumentInput) (*models.CaseDocument, error) {
	name := SanitizeFileName(in.FileName)
	if name == "" {
		return nil, invalid("file_name", "is required")
	}
	if len(in.Data) == 0 {
		return nil, invalid("file", "is empty")
	}
	if err := caseExists(s.DB.WithContext(ctx), in.CaseID); err != nil {
		return nil, err
	}

	in.FileName = name
	document, err := createDocumentWithBytes(ctx, s.DB, s.Storage, in)
	if err != nil {
		return nil, err
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: "CaseDocument",
		ResourceID:   document.ID,
		ResourceName: document.FileOriginalName,
		CaseID:       document.CaseID,
		Description:  fmt.Sprintf("Document uploaded (%s, %d bytes)", document.Category, document.FileSize),
	})
	announceDocument(ctx, s.DB, document)

	return document, nil
}

// announceDocument posts a DOCUMENT_ADDED notification to the case feed
func announceDocument(ctx context.Context, db *gorm.DB, document *models.CaseDocument) {
	caseID, documentID := document.CaseID, document.ID
	notification := &models.Notification{
		CaseID:     &caseID,
		DocumentID: &documentID,
		Type:       models.NotificationTypeDocumentAdded,
		Title:      "New document: " + truncate(document.FileOriginalName, 120),
		Message:    fmt.Sprintf("%s document added (%d bytes)", document.Category, document.FileSize),
		LinkURL:    document.GetDownloadURL(),
	}
	if err := NewNotificationService(db.WithContext(ctx)).CreateNotification(notification); err != nil {
		log.Printf("[WARNING] Failed to create document notification for case %s: %v", caseID, err)
	}
}

// createDocumentWithBytes writes the bytes, then inserts the row in a
// transaction that re-checks the case. Shared by upload, transfer and report generation.
func createDocumentWithBytes(ctx context.Context, db *gorm.DB, storage StorageProvider, in NewDocumentInput) (*models.CaseDocument, error) {
	contentType := in.ContentType
	if contentType == "" {
		contentType = DetectContentType(in.FileName, in.Data)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DocumentCategoryOther
	}

	key := GenerateCaseDocumentKey(in.CaseID, in.FileName)
	result, err := StoreBytes(ctx, storage, key, contentType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to write document bytes: %v", ErrStorageError, err)
	}

	document := &models.CaseDocument{
		CaseID:             in.CaseID,
		FileName:           result.FileName,
		FileOriginalName:   in.FileName,
		StorageKey:         result.Key,
		FileSize:           int64(len(in.Data)),
		MimeType:           contentType,
		Checksum:           Checksum(in.Data),
		Category:           category,
		Description:        in.Description,
		SourceAttachmentID: in.SourceAttachmentID,
		SourceMessageID:    in.SourceMessageID,
		UploadedBy:         in.UploadedBy,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := caseExists(tx, in.CaseID); err != nil {
			return err
		}
		var position int64
		if err := tx.Model(&models.CaseDocument{}).Where("case_id = ?", in.CaseID).Count(&position).Error; err != nil {
			return err
		}
		document.SortOrder = int(position)
		return tx.Create(document).Error
	})
	if err != nil {
		if delErr := storage.Delete(context.WithoutCancel(ctx), result.Key); delErr != nil {
			LogCleanupFailure(db, ctx, "document_create", "StorageObject", result.Key, "",
				fmt.Sprintf("failed to delete orphaned bytes %s: %v", result.Key, delErr))
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to create document row: %v", ErrStorageError, err)
	}

	return document, nil
}

func caseExists(db *gorm.DB, caseID string) error {
	if caseID == "" {
		return invalid("case_id", "is required")
	}
	var count int64
	if err := db.Model(&models.Case{}).Where("id = ?", caseID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check case: %w", err)
	}
	if count == 0 {
		return notFound("case", caseID)
	}
	return nil
}

// GetCaseDocuments retrieves all documents for a case in display order
func (s *DocumentService) GetCaseDocuments(ctx context.Context, caseID string) ([]models.CaseDocument, error) {
	if err := caseExists(s.DB.WithContext(ctx), caseID); err != nil {
		return nil, err
	}
	var documents []models.CaseDocument
	if err := s.DB.WithContext(ctx).Where("case_id = ?", caseID).
		Order("sort_order ASC, created_at ASC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch case documents: %w", err)
	}
	return documents, nil
}

// GetCaseDocument returns one document scoped to its case
func (s *DocumentService) GetCaseDocument(ctx context.Context, caseID, documentID string) (*models.CaseDocument, error) {
	var document models.CaseDocument
	if err := s.DB.WithContext(ctx).Where("id = ? AND case_id = ?", documentID, caseID).First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("document", documentID)
		}
		return nil, err
	}
	return &document, nil
}

// OpenCaseDocument returns the document with its bytes
func (s *DocumentService) OpenCaseDocument(ctx context.Context, caseID, documentID string) (*models.CaseDocument, []byte, error) {
	document, err := s.GetCaseDocument(ctx, caseID, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := ReadObject(ctx, s.Storage, document.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read document %s: %v", ErrStorageError, documentID, err)
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionDownload,
		ResourceType: "CaseDocument",
		ResourceID:   document.ID,
		ResourceName: document.FileOriginalName,
		CaseID:       caseID,
		Description:  "Document downloaded",
	})

	return document, data, nil
}

// DeleteCaseDocument removes the row, then the bytes best-effort
func (s *DocumentService) DeleteCaseDocument(ctx context.Context, caseID, documentID string) error {
	document, err := s.GetCaseDocument(ctx, caseID, documentID)
	if err != nil {
		return err
	}

	result := s.DB.WithContext(ctx).Where("id = ? AND case_id = ?", documentID, caseID).Delete(&models.CaseDocument{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("document", documentID)
	}

	deleteObjects(ctx, s.DB, s.Storage, "document_delete", caseID, []string{document.StorageKey})

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionDelete,
		ResourceType: "CaseDocument",
		ResourceID:   document.ID,
		ResourceName: document.FileOriginalName,
		CaseID:       caseID,
		Description:  "Document deleted",
	})

	log.Printf("[INFO] Document %s deleted from case %s", documentID, caseID)
	return nil
}
