package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"claims_app_go/config"
	"claims_app_go/metrics"
	"claims_app_go/models"

	"gorm.io/gorm"
)

// CaseService stores insurance claim cases together with all their owned collections
type CaseService struct {
	DB                *gorm.DB
	Storage           StorageProvider
	ClaimNumberPrefix string
}

func NewCaseService(db *gorm.DB, storage StorageProvider) *CaseService {
	return &CaseService{DB: db, Storage: storage, ClaimNumberPrefix: config.DefaultClaimNumberPrefix}
}

// CaseSeed carries the fields a new case may start with
type CaseSeed struct {
	ClaimNumber  string     `json:"claim_number"`
	Title        *string    `json:"title"`
	PolicyNumber *string    `json:"policy_number"`
	Status       string     `json:"status"`
	HandlerID    *string    `json:"handler_id"`
	HandlerEmail *string    `json:"handler_email"`
	EventDate    *time.Time `json:"event_date"`
}

// CaseSummary is the flattened list-view projection of a case
type CaseSummary struct {
	ID               string     `json:"id"`
	ClaimNumber      string     `json:"claim_number"`
	Title            *string    `json:"title,omitempty"`
	Status           string     `json:"status"`
	PolicyNumber     *string    `json:"policy_number,omitempty"`
	HandlerID        *string    `json:"handler_id,omitempty"`
	EventDate        *time.Time `json:"event_date,omitempty"`
	ClaimedAmount    int64      `json:"claimed_amount"`
	ReserveAmount    int64      `json:"reserve_amount"`
	SettledAmount    int64      `json:"settled_amount"`
	ParticipantCount int64      `json:"participant_count"`
	DocumentCount    int64      `json:"document_count"`
	MessageCount     int64      `json:"message_count"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CaseFilter narrows ListCaseSummaries
type CaseFilter struct {
	Status    string
	HandlerID string
	Search    string // matches claim number, title or policy number
	Limit     int
	Offset    int
}

// GenerateClaimNumber generates the next claim number for the current year
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: CLM-2026-00042
func GenerateClaimNumber(db *gorm.DB, prefix string) (string, error) {
	currentYear := time.Now().Year()
	pattern := fmt.Sprintf("%s-%d-", prefix, currentYear)

	var maxCase models.Case
	err := db.Select("claim_number").
		Where("claim_number LIKE ?", pattern+"%").
		Order("claim_number DESC").
		First(&maxCase).Error

	sequence := 1
	if err == nil {
		var parsedSeq int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(maxCase.ClaimNumber, pattern), "%d", &parsedSeq); scanErr == nil {
			sequence = parsedSeq + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to query max claim number: %w", err)
	}

	return fmt.Sprintf("%s%05d", pattern, sequence), nil
}

// EnsureUniqueClaimNumber generates a claim number nobody holds yet
func EnsureUniqueClaimNumber(db *gorm.DB, prefix string) (string, error) {
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		claimNumber, err := GenerateClaimNumber(db, prefix)
		if err != nil {
			return "", err
		}

		var count int64
		if err := db.Model(&models.Case{}).Where("claim_number = ?", claimNumber).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check claim number uniqueness: %w", err)
		}
		if count == 0 {
			return claimNumber, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique claim number after %d retries", maxRetries)
}

// CreateCase allocates a new case with a minimal set of fields
func (s *CaseService) CreateCase(ctx context.Context, seed CaseSeed) (*models.Case, error) {
	prefix := s.ClaimNumberPrefix
	if prefix == "" {
		prefix = config.DefaultClaimNumberPrefix
	}

	caseRecord := &models.Case{
		ClaimNumber:  strings.TrimSpace(seed.ClaimNumber),
		Title:        seed.Title,
		PolicyNumber: seed.PolicyNumber,
		Status:       seed.Status,
		HandlerID:    seed.HandlerID,
		HandlerEmail: seed.HandlerEmail,
		EventDate:    seed.EventDate,
	}
	generated := caseRecord.ClaimNumber == ""

	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if generated {
				number, err := EnsureUniqueClaimNumber(tx, prefix)
				if err != nil {
					return err
				}
				caseRecord.ClaimNumber = number
			}
			return tx.Create(caseRecord).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		if !generated {
			return nil, invalid("claim_number", "is already in use")
		}
		caseRecord.ID = ""
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: "Case",
		ResourceID:   caseRecord.ID,
		ResourceName: caseRecord.ClaimNumber,
		CaseID:       caseRecord.ID,
		Description:  "Case created",
		NewValues:    seed,
	})

	return caseRecord, nil
}

func bySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, created_at ASC")
}

// GetCase loads the full case graph
func (s *CaseService) GetCase(ctx context.Context, id string) (*models.Case, error) {
	return loadCase(s.DB.WithContext(ctx), id)
}

func loadCase(db *gorm.DB, id string) (*models.Case, error) {
	var caseRecord models.Case
	err := db.
		Preload("Participants", bySortOrder).
		Preload("Participants.Drivers", bySortOrder).
		Preload("Damages", bySortOrder).
		Preload("Decisions", bySortOrder).
		Preload("Appeals", bySortOrder).
		Preload("ClientClaims", bySortOrder).
		Preload("Recourses", bySortOrder).
		Preload("Settlements", bySortOrder).
		Preload("Notes", bySortOrder).
		Preload("Documents", bySortOrder).
		First(&caseRecord, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("case", id)
		}
		return nil, err
	}
	return &caseRecord, nil
}

// ListCaseSummaries returns the list-view projection, most recently updated first
func (s *CaseService) ListCaseSummaries(ctx context.Context, filter CaseFilter) ([]CaseSummary, error) {
	query := s.DB.WithContext(ctx).Model(&models.Case{}).Select(`cases.id, cases.claim_number, cases.title,
		cases.status, cases.policy_number, cases.handler_id, cases.event_date,
		cases.claimed_amount, cases.reserve_amount, cases.updated_at,
		(SELECT COALESCE(SUM(st.amount), 0) FROM case_settlements st WHERE st.case_id = cases.id) AS settled_amount,
		(SELECT COUNT(*) FROM case_participants p WHERE p.case_id = cases.id) AS participant_count,
		(SELECT COUNT(*) FROM case_documents d WHERE d.case_id = cases.id) AS document_count,
		(SELECT COUNT(*) FROM message_assignments ma WHERE ma.case_id = cases.id) AS message_count`)

	if filter.Status != "" {
		query = query.Where("cases.status = ?", filter.Status)
	}
	if filter.HandlerID != "" {
		query = query.Where("cases.handler_id = ?", filter.HandlerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(cases.claim_number) LIKE ? OR LOWER(COALESCE(cases.title, '')) LIKE ? OR LOWER(COALESCE(cases.policy_number, '')) LIKE ?", like, like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var summaries []CaseSummary
	if err := query.Order("cases.updated_at DESC, cases.id ASC").Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return summaries, nil
}

// validateCaseGraph checks everything that can be checked without the database
func validateCaseGraph(graph *models.Case) error {
	if graph == nil {
		return invalid("case", "is required")
	}
	if strings.TrimSpace(graph.ClaimNumber) == "" {
		return invalid("claim_number", "is required")
	}
	if graph.EventDate == nil || graph.EventDate.IsZero() {
		return invalid("event_date", "is required")
	}
	for i, p := range graph.Participants {
		if !models.IsValidParticipantRole(p.Role) {
			return invalid(fmt.Sprintf("participants[%d].role", i), fmt.Sprintf("%q is not a participant role", p.Role))
		}
		if strings.TrimSpace(p.Name) == "" {
			return invalid(fmt.Sprintf("participants[%d].name", i), "is required")
		}
		for j, d := range p.Drivers {
			if !models.IsValidDriverRole(d.Role) {
				return invalid(fmt.Sprintf("participants[%d].drivers[%d].role", i, j), fmt.Sprintf("%q is not a driver role", d.Role))
			}
			if strings.TrimSpace(d.Name) == "" {
				return invalid(fmt.Sprintf("participants[%d].drivers[%d].name", i, j), "is required")
			}
		}
	}
	for i, r := range graph.Recourses {
		if strings.TrimSpace(r.AgainstParty) == "" {
			return invalid(fmt.Sprintf("recourses[%d].against_party", i), "is required")
		}
	}
	for i, d := range graph.Documents {
		if d.ID == "" {
			return invalid(fmt.Sprintf("documents[%d].id", i), "is required, documents are added by upload or transfer")
		}
	}
	return nil
}

func caseScalars(graph *models.Case, current *models.Case) map[string]interface{} {
	status := graph.Status
	if status == "" {
		status = current.Status
	}
	currency := graph.Currency
	if currency == "" {
		currency = current.Currency
	}
	return map[string]interface{}{
		"claim_number":   strings.TrimSpace(graph.ClaimNumber),
		"title":          graph.Title,
		"policy_number":  graph.PolicyNumber,
		"risk_type_code": graph.RiskTypeCode,
		"branch_code":    graph.BranchCode,
		"client_code":    graph.ClientCode,
		"handler_id":     graph.HandlerID,
		"handler_email":  graph.HandlerEmail,
		"status":         status,
		"event_date":     graph.EventDate,
		"reported_at":    graph.ReportedAt,
		"event_location": graph.EventLocation,
		"description":    graph.Description,
		"claimed_amount": graph.ClaimedAmount,
		"reserve_amount": graph.ReserveAmount,
		"currency":       currency,
		"updated_at":     time.Now(),
	}
}

// UpsertCase replaces the scalars of an existing case and reconciles every
// non-nil child collection against the stored rows in a single transaction.
func (s *CaseService) UpsertCase(ctx context.Context, id string, graph *models.Case) (*models.Case, error) {
	defer metrics.ObserveUpsert(time.Now())

	if err := validateCaseGraph(graph); err != nil {
		return nil, err
	}

	var before models.Case
	var removedKeys []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("case", id)
			}
			return err
		}

		scalars := caseScalars(graph, &before)
		update := tx.Model(&models.Case{}).Where("id = ?", id)
		if graph.Version != 0 {
			if graph.Version != before.Version {
				return staleVersion(id, before.Version, graph.Version)
			}
			update = update.Where("version = ?", graph.Version)
			scalars["version"] = graph.Version + 1
		} else {
			scalars["version"] = gorm.Expr("version + 1")
		}
		result := update.Updates(scalars)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return invalid("claim_number", "is already in use")
			}
			return fmt.Errorf("failed to update case: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return staleVersion(id, before.Version, graph.Version)
		}

		keys, err := reconcileCaseChildren(tx, id, graph)
		if err != nil {
			return err
		}
		removedKeys = keys
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			metrics.UpsertConflicts.Inc()
		}
		return nil, err
	}

	deleteObjects(ctx, s.DB, s.Storage, "case_upsert", id, removedKeys)

	after, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionUpdate,
		ResourceType: "Case",
		ResourceID:   id,
		ResourceName: after.ClaimNumber,
		CaseID:       id,
		Description:  fmt.Sprintf("Case updated to version %d", after.Version),
		OldValues:    caseScalars(&before, &before),
		NewValues:    caseScalars(after, after),
	})

	return after, nil
}

func staleVersion(id string, stored, supplied int) error {
	return fmt.Errorf("%w: case %s is at version %d, update was based on version %d",
		ErrConcurrencyConflict, id, stored, supplied)
}

// reconcileCaseChildren returns the storage keys of documents that were removed
func reconcileCaseChildren(tx *gorm.DB, caseID string, graph *models.Case) ([]string, error) {
	owned := func(collection string) reconcileOptions {
		return reconcileOptions{collection: collection, ownerColumn: "case_id", ownerID: caseID}
	}

	if graph.Participants != nil {
		opts := owned("participants")
		opts.beforeRemove = func(tx *gorm.DB, ids []string) error {
			return tx.Where("participant_id IN ?", ids).Delete(&models.Driver{}).Error
		}
		if _, err := reconcileCollection(tx, graph.Participants, opts); err != nil {
			return nil, err
		}
		for i := range graph.Participants {
			p := &graph.Participants[i]
			if p.Drivers == nil {
				continue
			}
			_, err := reconcileCollection(tx, p.Drivers, reconcileOptions{
				collection:  fmt.Sprintf("participants[%d].drivers", i),
				ownerColumn: "participant_id",
				ownerID:     p.ID,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if graph.Damages != nil {
		if _, err := reconcileCollection(tx, graph.Damages, owned("damages")); err != nil {
			return nil, err
		}
	}
	if graph.Decisions != nil {
		if _, err := reconcileCollection(tx, graph.Decisions, owned("decisions")); err != nil {
			return nil, err
		}
	}
	if graph.Appeals != nil {
		if _, err := reconcileCollection(tx, graph.Appeals, owned("appeals")); err != nil {
			return nil, err
		}
	}
	if graph.ClientClaims != nil {
		if _, err := reconcileCollection(tx, graph.ClientClaims, owned("client_claims")); err != nil {
			return nil, err
		}
	}
	if graph.Recourses != nil {
		if _, err := reconcileCollection(tx, graph.Recourses, owned("recourses")); err != nil {
			return nil, err
		}
	}
	if graph.Settlements != nil {
		if _, err := reconcileCollection(tx, graph.Settlements, owned("settlements")); err != nil {
			return nil, err
		}
	}
	if graph.Notes != nil {
		if _, err := reconcileCollection(tx, graph.Notes, owned("notes")); err != nil {
			return nil, err
		}
	}

	var removedKeys []string
	if graph.Documents != nil {
		opts := owned("documents")
		opts.forbidCreate = true
		opts.updateColumns = []string{"category", "description"}
		opts.beforeRemove = func(tx *gorm.DB, ids []string) error {
			return tx.Model(&models.CaseDocument{}).Where("id IN ?", ids).Pluck("storage_key", &removedKeys).Error
		}
		if _, err := reconcileCollection(tx, graph.Documents, opts); err != nil {
			return nil, err
		}
	}

	return removedKeys, nil
}

// DeleteCase removes a case with its whole aggregate, its assignment edges and
// its notifications. Document bytes are removed after commit, best-effort.
func (s *CaseService) DeleteCase(ctx context.Context, id string) error {
	var caseRecord models.Case
	var keys []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&caseRecord, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("case", id)
			}
			return err
		}

		if err := tx.Model(&models.CaseDocument{}).Where("case_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return fmt.Errorf("failed to load document keys: %w", err)
		}

		participantIDs := tx.Model(&models.Participant{}).Select("id").Where("case_id = ?", id)
		if err := tx.Where("participant_id IN (?)", participantIDs).Delete(&models.Driver{}).Error; err != nil {
			return fmt.Errorf("failed to delete drivers: %w", err)
		}

		owned := []interface{}{
			&models.Participant{},
			&models.Damage{},
			&models.Decision{},
			&models.Appeal{},
			&models.ClientClaim{},
			&models.Recourse{},
			&models.Settlement{},
			&models.CaseNote{},
			&models.CaseDocument{},
			&models.MessageAssignment{},
			&models.Notification{},
		}
		for _, model := range owned {
			if err := tx.Where("case_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete %T: %w", model, err)
			}
		}

		return tx.Delete(&models.Case{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	metrics.CaseDeletes.Inc()
	deleteObjects(ctx, s.DB, s.Storage, "case_delete", id, keys)

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionDelete,
		ResourceType: "Case",
		ResourceID:   id,
		ResourceName: caseRecord.ClaimNumber,
		Description:  fmt.Sprintf("Case deleted with %d documents", len(keys)),
	})

	return nil
}

// UpdateCaseStatus writes a free-form status
func (s *CaseService) UpdateCaseStatus(ctx context.Context, id, status string) (*models.Case, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, invalid("status", "is required")
	}

	var caseRecord models.Case
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&caseRecord, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("case", id)
			}
			return err
		}
		return tx.Model(&models.Case{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	LogAuditEvent(s.DB, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionUpdate,
		ResourceType: "Case",
		ResourceID:   id,
		ResourceName: caseRecord.ClaimNumber,
		CaseID:       id,
		Description:  "Status changed to " + status,
		OldValues:    map[string]string{"status": caseRecord.Status},
		NewValues:    map[string]string{"status": status},
	})

	caseRecord.Status = status
	caseRecord.Version++
	return &caseRecord, nil
}
