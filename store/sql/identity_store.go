package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-tasks/core"
)

type IdentityStore struct {
	db *bun.DB
}

func NewIdentityStore(db *bun.DB) (*IdentityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &IdentityStore{db: db}, nil
}

// Create inserts the identity and lets the unique indexes on username
// and email arbitrate duplicates. There is deliberately no existence
// check beforehand: under concurrent registration of the same name the
// constraint guarantees exactly one winner.
func (s *IdentityStore) Create(ctx context.Context, input core.CreateIdentityInput) (core.Identity, error) {
	if s == nil || s.db == nil {
		return core.Identity{}, fmt.Errorf("sqlstore: identity store is not configured")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return core.Identity{}, fmt.Errorf("sqlstore: username is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return core.Identity{}, fmt.Errorf("sqlstore: email is required")
	}
	if strings.TrimSpace(input.SecretHash) == "" {
		return core.Identity{}, fmt.Errorf("sqlstore: secret hash is required")
	}

	record := &identityRecord{
		Username:   username,
		Email:      email,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if field, ok := uniqueViolationField(err); ok {
			if field == "" {
				field = "username"
			}
			return core.Identity{}, core.NewConflictError(field, fmt.Sprintf("sqlstore: %s is already taken", field))
		}
		return core.Identity{}, err
	}
	return record.toDomain(), nil
}

func (s *IdentityStore) GetByID(ctx context.Context, id int64) (core.Identity, error) {
	if s == nil || s.db == nil {
		return core.Identity{}, fmt.Errorf("sqlstore: identity store is not configured")
	}
	record := &identityRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Identity{}, core.NewNotFoundError("sqlstore: identity not found")
		}
		return core.Identity{}, err
	}
	return record.toDomain(), nil
}

func (s *IdentityStore) GetByUsername(ctx context.Context, username string) (core.Identity, error) {
	if s == nil || s.db == nil {
		return core.Identity{}, fmt.Errorf("sqlstore: identity store is not configured")
	}
	record := &identityRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Identity{}, core.NewNotFoundError("sqlstore: identity not found")
		}
		return core.Identity{}, err
	}
	return record.toDomain(), nil
}
