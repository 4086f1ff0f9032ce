package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type memIdentityStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Identity
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{byID: map[int64]Identity{}}
}

func (s *memIdentityStore) Create(_ context.Context, input CreateIdentityInput) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == input.Username {
			return Identity{}, NewConflictError("username", "stub: username is already taken")
		}
		if existing.Email == input.Email {
			return Identity{}, NewConflictError("email", "stub: email is already taken")
		}
	}
	s.nextID++
	identity := Identity{
		ID:         s.nextID,
		Username:   input.Username,
		Email:      input.Email,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now().UTC(),
	}
	s.byID[identity.ID] = identity
	return identity, nil
}

func (s *memIdentityStore) GetByID(_ context.Context, id int64) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return Identity{}, NewNotFoundError(fmt.Sprintf("stub: identity %d not found", id))
	}
	return identity, nil
}

func (s *memIdentityStore) GetByUsername(_ context.Context, username string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.byID {
		if identity.Username == username {
			return identity, nil
		}
	}
	return Identity{}, NewNotFoundError(fmt.Sprintf("stub: identity %q not found", username))
}

type memTaskStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: map[int64]Task{}}
}

func (s *memTaskStore) Create(_ context.Context, task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = task
	return task, nil
}

func (s *memTaskStore) Get(_ context.Context, ownerID int64, taskID int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return Task{}, NewNotFoundError(fmt.Sprintf("stub: task %d not found", taskID))
	}
	return task, nil
}

func (s *memTaskStore) List(_ context.Context, ownerID int64, window Window) (TaskPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make([]Task, 0)
	for _, task := range s.tasks {
		if task.OwnerID == ownerID {
			owned = append(owned, task)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	total := len(owned)
	start := window.Offset
	if start > total {
		start = total
	}
	end := start + window.Limit
	if end > total {
		end = total
	}
	items := append([]Task{}, owned[start:end]...)
	return TaskPage{
		Items:   items,
		Page:    window.Page,
		PerPage: window.Limit,
		Total:   total,
		HasNext: window.Offset+len(items) < total,
	}, nil
}

func (s *memTaskStore) Update(_ context.Context, ownerID int64, taskID int64, patch TaskPatch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return Task{}, NewNotFoundError(fmt.Sprintf("stub: task %d not found", taskID))
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	s.tasks[taskID] = task
	return task, nil
}

func (s *memTaskStore) Delete(_ context.Context, ownerID int64, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return NewNotFoundError(fmt.Sprintf("stub: task %d not found", taskID))
	}
	delete(s.tasks, taskID)
	return nil
}

type recordingAuditStore struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingAuditStore) Record(_ context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingAuditStore) List(_ context.Context, _ AuditFilter) (AuditPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]AuditEvent{}, s.events...)
	return AuditPage{Items: items, Page: 1, PerPage: len(items), Total: len(items)}, nil
}

func (s *recordingAuditStore) byAction(action string) []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]AuditEvent, 0)
	for _, event := range s.events {
		if event.Action == action {
			matched = append(matched, event)
		}
	}
	return matched
}

// countingHasher makes digest comparisons observable so tests can
// assert both login failure paths perform the same amount of work.
type countingHasher struct {
	mu          sync.Mutex
	verifyCalls int
}

func (h *countingHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("stub: secret is required")
	}
	return "digest:" + secret, nil
}

func (h *countingHasher) Verify(digest string, secret string) error {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if !strings.HasPrefix(digest, "digest:") || digest != "digest:"+secret {
		return fmt.Errorf("stub: digest mismatch")
	}
	return nil
}

func (h *countingHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

type serviceFixture struct {
	service    *Service
	identities *memIdentityStore
	tasks      *memTaskStore
	audit      *recordingAuditStore
	hasher     *countingHasher
}

func newServiceFixture(t *testing.T, extra ...Option) serviceFixture {
	t.Helper()

	fixture := serviceFixture{
		identities: newMemIdentityStore(),
		tasks:      newMemTaskStore(),
		audit:      &recordingAuditStore{},
		hasher:     &countingHasher{},
	}
	options := []Option{
		WithIdentityStore(fixture.identities),
		WithTaskStore(fixture.tasks),
		WithAuditStore(fixture.audit),
		WithPasswordHasher(fixture.hasher),
		WithTokenCodec(LegacyTokenCodec{}),
	}
	options = append(options, extra...)

	service, err := NewService(DefaultConfig(), options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fixture.service = service
	return fixture
}

func (f serviceFixture) register(t *testing.T, username string) Identity {
	t.Helper()
	identity, err := f.service.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Secret:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return identity
}
