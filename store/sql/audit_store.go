package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tasks/core"
)

const defaultAuditPerPage = 25

// AuditStore persists the security-relevant event trail. Events are
// append-only and never influence a caller-facing outcome.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditEventRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*auditEventRecord](db, auditEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

func (s *AuditStore) Record(ctx context.Context, event core.AuditEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	action := strings.TrimSpace(event.Action)
	if action == "" {
		return fmt.Errorf("sqlstore: audit action is required")
	}
	if event.IdentityID <= 0 {
		return fmt.Errorf("sqlstore: audit identity id is required")
	}

	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := event.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	record := &auditEventRecord{
		ID:         id,
		Action:     action,
		IdentityID: event.IdentityID,
		TaskID:     event.TaskID,
		Metadata:   metadata,
		CreatedAt:  createdAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *AuditStore) List(ctx context.Context, filter core.AuditFilter) (core.AuditPage, error) {
	if s == nil || s.repo == nil {
		return core.AuditPage{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultAuditPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if filter.IdentityID > 0 {
		selectors = append(selectors, repository.SelectBy("identity_id", "=", strconv.FormatInt(filter.IdentityID, 10)))
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		selectors = append(selectors, repository.SelectBy("action", "=", action))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AuditPage{}, err
	}
	items := make([]core.AuditEvent, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.AuditPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}
