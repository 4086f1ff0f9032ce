package core

import (
	"context"
	"fmt"
	"strings"
)

// CreateTask validates and defaults the raw fields, then persists the
// task under the owning identity. Ownership is fixed here and never
// changes afterwards.
func (s *Service) CreateTask(ctx context.Context, ownerID int64, input CreateTaskInput) (Task, error) {
	startedAt := s.now()
	fields := map[string]any{"owner_id": ownerID}

	task, err := s.buildTask(ownerID, input)
	if err != nil {
		s.observeOperation(ctx, startedAt, "task.create", err, fields)
		return Task{}, err
	}

	created, err := s.taskStore.Create(ctx, task)
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "task.create", mapped, fields)
		return Task{}, mapped
	}

	s.observeOperation(ctx, startedAt, "task.create", nil, fields)
	return created, nil
}

func (s *Service) GetTask(ctx context.Context, ownerID int64, taskID int64) (Task, error) {
	startedAt := s.now()
	fields := map[string]any{"owner_id": ownerID, "task_id": taskID}

	if taskID <= 0 {
		err := NewValidationError("task_id", "core: task id must be a positive integer")
		s.observeOperation(ctx, startedAt, "task.get", err, fields)
		return Task{}, err
	}

	task, err := s.taskStore.Get(ctx, ownerID, taskID)
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "task.get", mapped, fields)
		return Task{}, mapped
	}

	s.observeOperation(ctx, startedAt, "task.get", nil, fields)
	return task, nil
}

// ListTasks returns one window of the owner's tasks, newest first,
// together with the owner's total count as of the same read point.
// Unbounded listing is not expressible: the window always applies.
func (s *Service) ListTasks(ctx context.Context, ownerID int64, page *int, limit *int) (TaskPage, error) {
	startedAt := s.now()
	fields := map[string]any{"owner_id": ownerID}

	window, err := s.config.Pagination.Window(page, limit)
	if err != nil {
		s.observeOperation(ctx, startedAt, "task.list", err, fields)
		return TaskPage{}, err
	}

	result, err := s.taskStore.List(ctx, ownerID, window)
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "task.list", mapped, fields)
		return TaskPage{}, mapped
	}

	s.observeOperation(ctx, startedAt, "task.list", nil, fields)
	return result, nil
}

// UpdateTask applies a partial merge: only fields present in the input
// overwrite existing values. A task under another owner updates
// nothing and reports not found, identically to a missing task; the
// denial is recorded on the audit trail without changing that outcome.
func (s *Service) UpdateTask(ctx context.Context, ownerID int64, taskID int64, input UpdateTaskInput) (Task, error) {
	startedAt := s.now()
	fields := map[string]any{"owner_id": ownerID, "task_id": taskID}

	if taskID <= 0 {
		err := NewValidationError("task_id", "core: task id must be a positive integer")
		s.observeOperation(ctx, startedAt, "task.update", err, fields)
		return Task{}, err
	}

	patch, err := s.buildPatch(input)
	if err != nil {
		s.observeOperation(ctx, startedAt, "task.update", err, fields)
		return Task{}, err
	}

	updated, err := s.taskStore.Update(ctx, ownerID, taskID, patch)
	if err != nil {
		mapped := s.errorMapper(err)
		if IsNotFound(mapped) {
			s.recordAudit(ctx, AuditActionTaskDenied, ownerID, taskID, map[string]any{
				"operation": "update",
			})
		}
		s.observeOperation(ctx, startedAt, "task.update", mapped, fields)
		return Task{}, mapped
	}

	s.observeOperation(ctx, startedAt, "task.update", nil, fields)
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, ownerID int64, taskID int64) error {
	startedAt := s.now()
	fields := map[string]any{"owner_id": ownerID, "task_id": taskID}

	if taskID <= 0 {
		err := NewValidationError("task_id", "core: task id must be a positive integer")
		s.observeOperation(ctx, startedAt, "task.delete", err, fields)
		return err
	}

	if err := s.taskStore.Delete(ctx, ownerID, taskID); err != nil {
		mapped := s.errorMapper(err)
		if IsNotFound(mapped) {
			s.recordAudit(ctx, AuditActionTaskDenied, ownerID, taskID, map[string]any{
				"operation": "delete",
			})
		}
		s.observeOperation(ctx, startedAt, "task.delete", mapped, fields)
		return mapped
	}

	s.observeOperation(ctx, startedAt, "task.delete", nil, fields)
	return nil
}

func (s *Service) buildTask(ownerID int64, input CreateTaskInput) (Task, error) {
	if ownerID <= 0 {
		return Task{}, fmt.Errorf("core: owner id must be positive, got %d", ownerID)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Task{}, NewValidationError("title", "core: title is required")
	}
	if len(title) > MaxTitleLength {
		return Task{}, NewValidationError("title", fmt.Sprintf("core: title must be at most %d characters", MaxTitleLength))
	}

	status, err := ParseTaskStatus(input.Status)
	if err != nil {
		return Task{}, err
	}
	priority, err := ParseTaskPriority(input.Priority)
	if err != nil {
		return Task{}, err
	}

	task := Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
		CreatedAt:   s.now().UTC(),
		OwnerID:     ownerID,
	}
	if strings.TrimSpace(input.DueDate) != "" {
		dueDate, dueErr := ParseDueDate(input.DueDate)
		if dueErr != nil {
			return Task{}, dueErr
		}
		task.DueDate = &dueDate
	}
	return task, nil
}

func (s *Service) buildPatch(input UpdateTaskInput) (TaskPatch, error) {
	patch := TaskPatch{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return TaskPatch{}, NewValidationError("title", "core: title is required")
		}
		if len(title) > MaxTitleLength {
			return TaskPatch{}, NewValidationError("title", fmt.Sprintf("core: title must be at most %d characters", MaxTitleLength))
		}
		patch.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		patch.Description = &description
	}
	if input.Status != nil {
		if strings.TrimSpace(*input.Status) == "" {
			return TaskPatch{}, NewValidationError("status", "core: status must be one of todo, in_progress, done")
		}
		status, err := ParseTaskStatus(*input.Status)
		if err != nil {
			return TaskPatch{}, err
		}
		patch.Status = &status
	}
	if input.Priority != nil {
		if strings.TrimSpace(*input.Priority) == "" {
			return TaskPatch{}, NewValidationError("priority", "core: priority must be one of low, medium, high")
		}
		priority, err := ParseTaskPriority(*input.Priority)
		if err != nil {
			return TaskPatch{}, err
		}
		patch.Priority = &priority
	}
	if input.DueDate != nil {
		dueDate, err := ParseDueDate(*input.DueDate)
		if err != nil {
			return TaskPatch{}, err
		}
		patch.DueDate = &dueDate
	}
	return patch, nil
}
