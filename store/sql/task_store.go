package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-tasks/core"
)

type TaskStore struct {
	db *bun.DB
}

func NewTaskStore(db *bun.DB) (*TaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &TaskStore{db: db}, nil
}

func (s *TaskStore) Create(ctx context.Context, task core.Task) (core.Task, error) {
	if s == nil || s.db == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	if task.OwnerID <= 0 {
		return core.Task{}, fmt.Errorf("sqlstore: owner id is required")
	}

	record := newTaskRecord(task)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Task{}, err
	}
	return record.toDomain(), nil
}

// Get filters by owner before anything else. A task owned by somebody
// else scans as no rows, so the caller cannot tell it apart from a
// task that never existed.
func (s *TaskStore) Get(ctx context.Context, ownerID int64, taskID int64) (core.Task, error) {
	if s == nil || s.db == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	record := &taskRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.owner_id = ?", ownerID).
		Where("?TableAlias.id = ?", taskID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.NewNotFoundError(fmt.Sprintf("sqlstore: task %d not found", taskID))
		}
		return core.Task{}, err
	}
	return record.toDomain(), nil
}

// List reads the owner's total count and the requested window inside
// one transaction, so the two are consistent as of a single logical
// read point even while concurrent writes land.
func (s *TaskStore) List(ctx context.Context, ownerID int64, window core.Window) (core.TaskPage, error) {
	if s == nil || s.db == nil {
		return core.TaskPage{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	if window.Limit < 1 {
		return core.TaskPage{}, fmt.Errorf("sqlstore: list window is required")
	}

	var records []*taskRecord
	var total int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		count, countErr := tx.NewSelect().
			Model((*taskRecord)(nil)).
			Where("?TableAlias.owner_id = ?", ownerID).
			Count(ctx)
		if countErr != nil {
			return countErr
		}
		total = count

		return tx.NewSelect().
			Model(&records).
			Where("?TableAlias.owner_id = ?", ownerID).
			OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
			Limit(window.Limit).
			Offset(window.Offset).
			Scan(ctx)
	})
	if err != nil {
		return core.TaskPage{}, err
	}

	items := make([]core.Task, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.TaskPage{
		Items:   items,
		Page:    window.Page,
		PerPage: window.Limit,
		Total:   total,
		HasNext: window.Offset+len(items) < total,
	}, nil
}

// Update applies only the columns present in the patch; everything
// else keeps its stored value. Zero rows affected means the task does
// not exist in this owner's scope, whatever the reason.
func (s *TaskStore) Update(ctx context.Context, ownerID int64, taskID int64, patch core.TaskPatch) (core.Task, error) {
	if s == nil || s.db == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}

	var updated core.Task
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if !patch.IsEmpty() {
			query := tx.NewUpdate().
				Model((*taskRecord)(nil)).
				Where("owner_id = ?", ownerID).
				Where("id = ?", taskID)
			if patch.Title != nil {
				query = query.Set("title = ?", *patch.Title)
			}
			if patch.Description != nil {
				query = query.Set("description = ?", *patch.Description)
			}
			if patch.Status != nil {
				query = query.Set("status = ?", string(*patch.Status))
			}
			if patch.Priority != nil {
				query = query.Set("priority = ?", string(*patch.Priority))
			}
			if patch.DueDate != nil {
				query = query.Set("due_date = ?", patch.DueDate.String())
			}
			result, execErr := query.Exec(ctx)
			if execErr != nil {
				return execErr
			}
			affected, affectedErr := result.RowsAffected()
			if affectedErr != nil {
				return affectedErr
			}
			if affected == 0 {
				return core.NewNotFoundError(fmt.Sprintf("sqlstore: task %d not found", taskID))
			}
		}

		record := &taskRecord{}
		readErr := tx.NewSelect().
			Model(record).
			Where("?TableAlias.owner_id = ?", ownerID).
			Where("?TableAlias.id = ?", taskID).
			Limit(1).
			Scan(ctx)
		if readErr != nil {
			if errors.Is(readErr, sql.ErrNoRows) {
				return core.NewNotFoundError(fmt.Sprintf("sqlstore: task %d not found", taskID))
			}
			return readErr
		}
		updated = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Task{}, err
	}
	return updated, nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID int64, taskID int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*taskRecord)(nil)).
		Where("owner_id = ?", ownerID).
		Where("id = ?", taskID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewNotFoundError(fmt.Sprintf("sqlstore: task %d not found", taskID))
	}
	return nil
}
