package core

import (
	"strings"
	"time"
)

const (
	// MaxTitleLength bounds task titles at the edge, before anything
	// reaches the store.
	MaxTitleLength = 200

	dueDateLayout = "2006-01-02"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// ParseTaskStatus normalizes and validates a status value. An empty
// input resolves to the default status.
func ParseTaskStatus(value string) (TaskStatus, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return TaskStatusTodo, nil
	}
	switch TaskStatus(trimmed) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return TaskStatus(trimmed), nil
	}
	return "", NewValidationError("status", "core: status must be one of todo, in_progress, done")
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority normalizes and validates a priority value. An empty
// input resolves to the default priority.
func ParseTaskPriority(value string) (TaskPriority, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return TaskPriorityMedium, nil
	}
	switch TaskPriority(trimmed) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return TaskPriority(trimmed), nil
	}
	return "", NewValidationError("priority", "core: priority must be one of low, medium, high")
}

// DueDate is a calendar date with no time-of-day component. It
// marshals as YYYY-MM-DD and rejects anything that does not parse as a
// real date.
type DueDate time.Time

func ParseDueDate(value string) (DueDate, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return DueDate{}, NewValidationError("due_date", "core: due date is required")
	}
	parsed, err := time.Parse(dueDateLayout, trimmed)
	if err != nil {
		return DueDate{}, NewValidationError("due_date", "core: due date must be a calendar date in YYYY-MM-DD form")
	}
	return DueDate(parsed), nil
}

func (d DueDate) String() string {
	return time.Time(d).Format(dueDateLayout)
}

func (d DueDate) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	value := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if value == "" || value == "null" {
		*d = DueDate{}
		return nil
	}
	parsed, err := ParseDueDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Identity is a registered user account. SecretHash is the salted
// one-way digest of the login secret and never crosses the transport
// boundary.
type Identity struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Task belongs to exactly one identity, fixed at creation. A task that
// exists under another owner is indistinguishable from one that does
// not exist at all.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	DueDate     *DueDate     `json:"due_date,omitempty"`
	OwnerID     int64        `json:"user_id"`
}

type RegisterInput struct {
	Username string
	Email    string
	Secret   string
}

type LoginInput struct {
	Username string
	Secret   string
}

// LoginResult carries the issued bearer credential back to the caller.
type LoginResult struct {
	Token      string `json:"token"`
	IdentityID int64  `json:"user_id"`
}

// CreateTaskInput carries raw request fields; enum and date values are
// validated and defaulted by the service before they reach a store.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string
}

// UpdateTaskInput is a partial merge: nil means "leave untouched",
// never "reset to default".
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
}

// TaskPatch is the validated form of UpdateTaskInput handed to the
// task store.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *DueDate
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil && p.DueDate == nil
}

// AuditEvent records a security-relevant occurrence, such as an
// authorized identity touching a task id outside its own scope. The
// caller-facing outcome is never affected by the trail.
type AuditEvent struct {
	ID         string
	Action     string
	IdentityID int64
	TaskID     int64
	Metadata   map[string]any
	CreatedAt  time.Time
}

const (
	AuditActionIdentityRegistered = "identity.registered"
	AuditActionTaskDenied         = "task.denied"
)

type AuditFilter struct {
	IdentityID int64
	Action     string
	Page       int
	PerPage    int
}

type AuditPage struct {
	Items   []AuditEvent
	Page    int
	PerPage int
	Total   int
	HasNext bool
}
