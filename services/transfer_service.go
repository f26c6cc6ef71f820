package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"claims_app_go/metrics"
	"claims_app_go/models"

	"gorm.io/gorm"
)

// TransferService turns message attachments into case documents
type TransferService struct {
	DB      *gorm.DB
	Storage StorageProvider
}

func NewTransferService(db *gorm.DB, storage StorageProvider) *TransferService {
	return &TransferService{DB: db, Storage: storage}
}

// TransferRequest selects the attachment, the target case and the mode
type TransferRequest struct {
	AttachmentID string  `json:"attachment_id"`
	CaseID       string  `json:"case_id"`
	Category     string  `json:"category"`
	Description  *string `json:"description"`
	Move         bool    `json:"move"`
}

// TransferAttachment copies an attachment's bytes into a new case document.
// With Move the attachment row and bytes are removed afterwards; a failure there
// leaves the document in place and is reported for manual cleanup.
func (s *TransferService) TransferAttachment(ctx context.Context, req TransferRequest) (doc *models.CaseDocument, err error) {
	outcome := metrics.OutcomeFailed
	defer func() {
		if errors.Is(err, ErrNotFound) {
			outcome = metrics.OutcomeNotFound
		}
		metrics.RecordTransfer(req.Move, outcome)
	}()

	var attachment models.Attachment
	if err := s.DB.WithContext(ctx).First(&attachment, "id = ?", req.AttachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("attachment", req.AttachmentID)
		}
		return nil, err
	}

	data, err := ReadObject(ctx, s.Storage, attachment.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: attachment %s bytes are unreadable: %v", ErrTransferFailed, attachment.ID, err)
	}
	if attachment.Checksum != "" && Checksum(data) != attachment.Checksum {
		return nil, fmt.Errorf("%w: attachment %s checksum mismatch", ErrTransferFailed, attachment.ID)
	}

	if err := caseExists(s.DB.WithContext(ctx), req.CaseID); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Past this point a half-finished transfer is worse than a slow one
	work := context.WithoutCancel(ctx)

	category := req.Category
	if category == "" {
		category = models.DocumentCategoryCorrespondence
	}
	actor := AuditContextFrom(ctx)
	doc, err = createDocumentWithBytes(work, s.DB, s.Storage, NewDocumentInput{
		CaseID:             req.CaseID,
		FileName:           attachment.FileName,
		ContentType:        attachment.MimeType,
		Category:           category,
		Description:        req.Description,
		Data:               data,
		UploadedBy:         ptrIfNotEmpty(actor.ActorID),
		SourceAttachmentID: &attachment.ID,
		SourceMessageID:    &attachment.MessageID,
	})
	if err != nil {
		return nil, err
	}

	if req.Move {
		s.removeSource(work, &attachment, req.CaseID)
	}
	outcome = metrics.OutcomeSuccess

	mode := "copied"
	if req.Move {
		mode = "moved"
	}
	LogAuditEvent(s.DB, actor, AuditEvent{
		Action:       models.AuditActionTransfer,
		ResourceType: "CaseDocument",
		ResourceID:   doc.ID,
		ResourceName: doc.FileOriginalName,
		CaseID:       req.CaseID,
		Description:  fmt.Sprintf("Attachment %s %s into case documents", attachment.ID, mode),
		NewValues:    map[string]interface{}{"attachment_id": attachment.ID, "message_id": attachment.MessageID, "move": req.Move},
	})
	log.Printf("[INFO] Attachment %s %s to case %s as document %s", attachment.ID, mode, req.CaseID, doc.ID)
	announceDocument(work, s.DB, doc)

	return doc, nil
}

// removeSource deletes the attachment row, then its bytes. Never retried.
func (s *TransferService) removeSource(ctx context.Context, attachment *models.Attachment, caseID string) {
	result := s.DB.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", attachment.ID)
	if result.Error != nil {
		LogCleanupFailure(s.DB, ctx, "transfer_move", "Attachment", attachment.ID, caseID,
			fmt.Sprintf("document created but attachment row %s could not be deleted: %v", attachment.ID, result.Error))
		return
	}
	if err := s.Storage.Delete(ctx, attachment.StorageKey); err != nil {
		LogCleanupFailure(s.DB, ctx, "transfer_move", "StorageObject", attachment.StorageKey, caseID,
			fmt.Sprintf("attachment %s removed but its bytes %s could not be deleted: %v", attachment.ID, attachment.StorageKey, err))
	}
}
