package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"claims_app_go/config"
	"claims_app_go/metrics"
	"claims_app_go/models"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// htmlPolicy strips scripts, event handlers and other active content from message bodies
var htmlPolicy = bluemonday.UGCPolicy()

// CorrespondenceService stores messages, their attachments and their case assignments
type CorrespondenceService struct {
	DB      *gorm.DB
	Storage StorageProvider
	Config  *config.Config // optional, enables assignment e-mails
}

func NewCorrespondenceService(db *gorm.DB, storage StorageProvider, cfg *config.Config) *CorrespondenceService {
	return &CorrespondenceService{DB: db, Storage: storage, Config: cfg}
}

// AttachmentInput is one file received or composed with a message
type AttachmentInput struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 in JSON
}

// CreateMessageInput describes a new message
type CreateMessageInput struct {
	Direction         string            `json:"direction"`
	Status            string            `json:"status"`
	ExternalMessageID *string           `json:"external_message_id"`
	Subject           string            `json:"subject"`
	FromAddress       string            `json:"from_address"`
	ToAddresses       []string          `json:"to_addresses"`
	CcAddresses       []string          `json:"cc_addresses"`
	BodyText          string            `json:"body_text"`
	BodyHTML          string            `json:"body_html"`
	IsImportant       bool              `json:"is_important"`
	OccurredAt        *time.Time        `json:"occurred_at"`
	Attachments       []AttachmentInput `json:"attachments"`
}

// CreateMessage stores attachment bytes first, then inserts the message and its
// attachment rows in one transaction. Written bytes are removed if the transaction fails.
func (s *CorrespondenceService) CreateMessage(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	direction := strings.ToLower(strings.TrimSpace(in.Direction))
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" && direction == models.MessageDirectionInbound {
		status = models.MessageStatusReceived
	}
	if status == "" && direction == models.MessageDirectionOutbound {
		status = models.MessageStatusDraft
	}
	if !models.IsValidMessageState(direction, status) {
		return nil, invalid("status", fmt.Sprintf("%q is not allowed for direction %q", status, direction))
	}
	for i, a := range in.Attachments {
		if SanitizeFileName(a.FileName) == "" {
			return nil, invalid(fmt.Sprintf("attachments[%d].file_name", i), "is required")
		}
	}

	message := &models.Message{
		ID:                uuid.New().String(),
		Direction:         direction,
		Status:            status,
		ExternalMessageID: in.ExternalMessageID,
		Subject:           strings.TrimSpace(in.Subject),
		FromAddress:       strings.TrimSpace(in.FromAddress),
		ToAddresses:       joinAddresses(in.ToAddresses),
		CcAddresses:       joinAddresses(in.CcAddresses),
		BodyText:          in.BodyText,
		BodyHTML:          htmlPolicy.Sanitize(in.BodyHTML),
		IsImportant:       in.IsImportant,
	}
	if in.OccurredAt != nil {
		message.OccurredAt = *in.OccurredAt
	}

	attachments := make([]models.Attachment, 0, len(in.Attachments))
	var written []string
	for _, a := range in.Attachments {
		name := SanitizeFileName(a.FileName)
		contentType := a.ContentType
		if contentType == "" {
			contentType = DetectContentType(name, a.Data)
		}
		key := GenerateAttachmentKey(message.ID, name)
		if _, err := StoreBytes(ctx, s.Storage, key, contentType, a.Data); err != nil {
			deleteObjects(ctx, s.DB, s.Storage, "message_create", "", written)
			return nil, fmt.Errorf("%w: failed to write attachment %s: %v", ErrStorageError, name, err)
		}
		written = append(written, key)
		attachments = append(attachments, models.Attachment{
			MessageID:  message.ID,
			FileName:   name,
			MimeType:   contentType,
			FileSize:   int64(len(a.Data)),
			StorageKey: key,
			Checksum:   Checksum(a.Data),
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(message).Error; err != nil {
			return err
		}
		if len(attachments) > 0 {
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, s.DB, s.Storage, "message_create", "", written)
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	message.Attachments = attachments
	message.Assignments = []models.MessageAssignment{}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: "Message",
		ResourceID:   message.ID,
		ResourceName: message.Subject,
		Description:  fmt.Sprintf("%s message created (%s) with %d attachments", message.Direction, message.Status, len(attachments)),
	})

	return message, nil
}

func joinAddresses(addresses []string) string {
	cleaned := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	return strings.Join(cleaned, ", ")
}

// GetMessage returns a message with its attachments and assignment set
func (s *CorrespondenceService) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := s.DB.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("message", id)
		}
		return nil, err
	}
	return &message, nil
}

// UpdateFlags writes a single flag column and nothing else
func (s *CorrespondenceService) UpdateFlags(ctx context.Context, id, flag string, value bool) (*models.Message, error) {
	flag = strings.ToLower(strings.TrimSpace(flag))
	if !models.IsValidMessageFlag(flag) {
		return nil, invalid("flag", fmt.Sprintf("%q is not a message flag", flag))
	}

	result := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		UpdateColumn(models.MessageFlagColumn(flag), value)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, notFound("message", id)
	}

	return s.GetMessage(ctx, id)
}

// UpdateMessageStatus moves an outbound message along draft, sent and failed
func (s *CorrespondenceService) UpdateMessageStatus(ctx context.Context, id, status string) (*models.Message, error) {
	status = strings.ToLower(strings.TrimSpace(status))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var message models.Message
		if err := tx.First(&message, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("message", id)
			}
			return err
		}
		if message.Direction != models.MessageDirectionOutbound {
			return invalid("status", "only outbound messages change status")
		}
		if !models.CanTransitionMessageStatus(message.Status, status) {
			return invalid("status", fmt.Sprintf("cannot change from %q to %q", message.Status, status))
		}
		return tx.Model(&models.Message{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      status,
			"occurred_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetMessage(ctx, id)
}

// DeleteMessage removes the message, its attachments and its assignment edges.
// Attachment bytes are removed after commit, best-effort.
func (s *CorrespondenceService) DeleteMessage(ctx context.Context, id string) error {
	var message models.Message
	var keys []string
	var caseIDs []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("message", id)
			}
			return err
		}
		if err := tx.Model(&models.Attachment{}).Where("message_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MessageAssignment{}).Where("message_id = ?", id).Pluck("case_id", &caseIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&models.MessageAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	deleteObjects(ctx, s.DB, s.Storage, "message_delete", "", keys)

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionDelete,
		ResourceType: "Message",
		ResourceID:   id,
		ResourceName: message.Subject,
		Description:  fmt.Sprintf("Message deleted with %d attachments, unassigned from %d cases", len(keys), len(caseIDs)),
	})

	return nil
}

// AssignToCase links a message to every given case. Existing edges are kept as
// they are, so repeating the call is harmless. Any missing case fails the whole call.
// Returns the case ids that were newly assigned.
func (s *CorrespondenceService) AssignToCase(ctx context.Context, messageID string, caseIDs []string) ([]string, error) {
	ids := dedupeIDs(caseIDs)
	if len(ids) == 0 {
		return nil, invalid("case_ids", "at least one case is required")
	}

	actor := AuditContextFrom(ctx)
	var message models.Message
	var cases []models.Case
	var added []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("message", messageID)
			}
			return err
		}

		if err := tx.Where("id IN ?", ids).Find(&cases).Error; err != nil {
			return err
		}
		if len(cases) != len(ids) {
			found := make(map[string]bool, len(cases))
			for _, c := range cases {
				found[c.ID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return notFound("case", id)
				}
			}
		}

		for _, caseID := range ids {
			edge := models.MessageAssignment{
				MessageID: messageID,
				CaseID:    caseID,
				CreatedBy: ptrIfNotEmpty(actor.ActorID),
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
			if result.Error != nil {
				return fmt.Errorf("failed to assign message to case %s: %w", caseID, result.Error)
			}
			if result.RowsAffected > 0 {
				added = append(added, caseID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Case, len(cases))
	for i := range cases {
		byID[cases[i].ID] = &cases[i]
	}
	for _, caseID := range added {
		metrics.MessageAssignments.Inc()
		s.announceAssignment(ctx, &message, byID[caseID])
	}

	return added, nil
}

// announceAssignment writes the case notification, the audit row and the handler e-mail
func (s *CorrespondenceService) announceAssignment(ctx context.Context, message *models.Message, caseRecord *models.Case) {
	caseID := caseRecord.ID
	messageID := message.ID

	notification := &models.Notification{
		CaseID:    &caseID,
		HandlerID: caseRecord.HandlerID,
		MessageID: &messageID,
		Type:      models.NotificationTypeCorrespondenceAssigned,
		Title:     "New correspondence: " + truncate(message.Subject, 120),
		Message:   fmt.Sprintf("%s message from %s assigned to %s", message.Direction, message.FromAddress, caseRecord.ClaimNumber),
		LinkURL:   "/api/messages/" + messageID,
	}
	if err := NewNotificationService(s.DB.WithContext(ctx)).CreateNotification(notification); err != nil {
		log.Printf("[WARNING] Failed to create assignment notification for case %s: %v", caseID, err)
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionAssign,
		ResourceType: "Message",
		ResourceID:   messageID,
		ResourceName: message.Subject,
		CaseID:       caseID,
		Description:  "Message assigned to case " + caseRecord.ClaimNumber,
	})

	if s.Config == nil || caseRecord.HandlerEmail == nil || *caseRecord.HandlerEmail == "" {
		return
	}
	email := BuildAssignmentEmail(*caseRecord.HandlerEmail, AssignmentEmailData{
		ClaimNumber: caseRecord.ClaimNumber,
		CaseTitle:   caseRecord.DisplayTitle(),
		Subject:     message.Subject,
		From:        message.FromAddress,
		Direction:   message.Direction,
		CaseURL:     strings.TrimRight(s.Config.AppURL, "/") + "/api/cases/" + caseID,
	})
	SendEmailAsync(s.Config, email)
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// UnassignFromCase removes one edge. Removing an edge that does not exist is not an error.
func (s *CorrespondenceService) UnassignFromCase(ctx context.Context, messageID, caseID string) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", messageID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("message", messageID)
	}

	result := s.DB.WithContext(ctx).
		Where("message_id = ? AND case_id = ?", messageID, caseID).
		Delete(&models.MessageAssignment{})
	if result.Error != nil {
		return fmt.Errorf("failed to unassign message: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
			Action:       models.AuditActionUnassign,
			ResourceType: "Message",
			ResourceID:   messageID,
			CaseID:       caseID,
			Description:  "Message unassigned from case",
		})
	}
	return nil
}

func (s *CorrespondenceService) loadAllMessages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := s.DB.WithContext(ctx).Preload("Assignments").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// ListFolder returns the messages of one folder, newest first
func (s *CorrespondenceService) ListFolder(ctx context.Context, folder models.Folder) ([]models.Message, error) {
	f, err := models.ParseFolder(string(folder))
	if err != nil {
		return nil, invalid("folder", err.Error())
	}
	messages, err := s.loadAllMessages(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterFolder(messages, f), nil
}

// ListFolders classifies one load of messages into several folders.
// No folders means every folder.
func (s *CorrespondenceService) ListFolders(ctx context.Context, folders ...models.Folder) (map[models.Folder][]models.Message, error) {
	if len(folders) == 0 {
		folders = models.AllFolders
	}
	parsed := make([]models.Folder, 0, len(folders))
	for _, raw := range folders {
		f, err := models.ParseFolder(string(raw))
		if err != nil {
			return nil, invalid("folder", err.Error())
		}
		parsed = append(parsed, f)
	}

	messages, err := s.loadAllMessages(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Folder][]models.Message, len(parsed))
	for _, f := range parsed {
		out[f] = models.FilterFolder(messages, f)
	}
	return out, nil
}

// ListCaseMessages returns the messages assigned to a case, newest first
func (s *CorrespondenceService) ListCaseMessages(ctx context.Context, caseID string) ([]models.Message, error) {
	if err := caseExists(s.DB.WithContext(ctx), caseID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Preload("Assignments").
		Preload("Attachments").
		Where("id IN (?)", s.DB.Model(&models.MessageAssignment{}).Select("message_id").Where("case_id = ?", caseID)).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load case messages: %w", err)
	}
	models.SortForListing(messages)
	return messages, nil
}

// GetAttachment returns the attachment row
func (s *CorrespondenceService) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := s.DB.WithContext(ctx).First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("attachment", id)
		}
		return nil, err
	}
	return &attachment, nil
}

// OpenAttachment returns the attachment with its bytes
func (s *CorrespondenceService) OpenAttachment(ctx context.Context, id string) (*models.Attachment, []byte, error) {
	attachment, err := s.GetAttachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := ReadObject(ctx, s.Storage, attachment.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read attachment %s: %v", ErrStorageError, id, err)
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionDownload,
		ResourceType: "Attachment",
		ResourceID:   attachment.ID,
		ResourceName: attachment.FileName,
		Description:  "Attachment downloaded",
	})

	return attachment, data, nil
}
