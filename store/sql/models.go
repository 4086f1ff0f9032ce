package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-tasks/core"
)

type identityRecord struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Username   string    `bun:"username,notnull"`
	Email      string    `bun:"email,notnull"`
	SecretHash string    `bun:"secret_hash,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *identityRecord) toDomain() core.Identity {
	if r == nil {
		return core.Identity{}
	}
	return core.Identity{
		ID:         r.ID,
		Username:   r.Username,
		Email:      r.Email,
		SecretHash: r.SecretHash,
		CreatedAt:  r.CreatedAt,
	}
}

type taskRecord struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	Status      string    `bun:"status,notnull"`
	Priority    string    `bun:"priority,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	DueDate     *string   `bun:"due_date"`
	OwnerID     int64     `bun:"owner_id,notnull"`
}

func newTaskRecord(task core.Task) *taskRecord {
	record := &taskRecord{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		CreatedAt:   task.CreatedAt,
		OwnerID:     task.OwnerID,
	}
	if task.DueDate != nil {
		value := task.DueDate.String()
		record.DueDate = &value
	}
	return record
}

func (r *taskRecord) toDomain() core.Task {
	if r == nil {
		return core.Task{}
	}
	task := core.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      core.TaskStatus(r.Status),
		Priority:    core.TaskPriority(r.Priority),
		CreatedAt:   r.CreatedAt,
		OwnerID:     r.OwnerID,
	}
	if r.DueDate != nil {
		// Stored values were validated on the way in; anything
		// unparseable is treated as absent.
		if parsed, err := core.ParseDueDate(*r.DueDate); err == nil {
			task.DueDate = &parsed
		}
	}
	return task
}

type auditEventRecord struct {
	bun.BaseModel `bun:"table:task_audit_events,alias:tae"`

	ID         string         `bun:"id,pk"`
	Action     string         `bun:"action,notnull"`
	IdentityID int64          `bun:"identity_id,notnull"`
	TaskID     int64          `bun:"task_id"`
	Metadata   map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *auditEventRecord) toDomain() core.AuditEvent {
	if r == nil {
		return core.AuditEvent{}
	}
	return core.AuditEvent{
		ID:         r.ID,
		Action:     r.Action,
		IdentityID: r.IdentityID,
		TaskID:     r.TaskID,
		Metadata:   r.Metadata,
		CreatedAt:  r.CreatedAt,
	}
}
