package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-tasks/core"
	taskmigrations "github.com/goliatone/go-tasks/migrations"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-tasks-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:tasks-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = taskmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != taskmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, taskmigrations.WithValidationTargets(taskmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func newTestFactory(t *testing.T) (*RepositoryFactory, func()) {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	factory, err := NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		cleanup()
		t.Fatalf("build factory: %v", err)
	}
	return factory, cleanup
}

func createIdentity(t *testing.T, store core.IdentityStore, username string) core.Identity {
	t.Helper()
	identity, err := store.Create(context.Background(), core.CreateIdentityInput{
		Username:   username,
		Email:      username + "@example.com",
		SecretHash: "digest-" + username,
	})
	if err != nil {
		t.Fatalf("create identity %s: %v", username, err)
	}
	return identity
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	ctx := context.Background()
	for _, table := range []string{"identities", "tasks", "task_audit_events"} {
		var name string
		err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(ctx, &name)
		if err != nil {
			t.Fatalf("lookup table %s: %v", table, err)
		}
		if name != table {
			t.Fatalf("expected table %s, got %q", table, name)
		}
	}
}

func TestIdentityStoreCreateAndLookup(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	created := createIdentity(t, factory.IdentityStore(), "ada")
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	byID, err := factory.IdentityStore().GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != "ada" || byID.SecretHash != "digest-ada" {
		t.Fatalf("unexpected record: %+v", byID)
	}

	byName, err := factory.IdentityStore().GetByUsername(ctx, "ada")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byName.ID)
	}

	if _, err := factory.IdentityStore().GetByID(ctx, 9999); !core.IsNotFound(err) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
	if _, err := factory.IdentityStore().GetByUsername(ctx, "nobody"); !core.IsNotFound(err) {
		t.Fatalf("expected not found for unknown username, got %v", err)
	}
}

func TestIdentityStoreUniqueConstraints(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	createIdentity(t, factory.IdentityStore(), "ada")

	_, err := factory.IdentityStore().Create(ctx, core.CreateIdentityInput{
		Username:   "ada",
		Email:      "other@example.com",
		SecretHash: "digest",
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}
	if core.ErrorField(err) != "username" {
		t.Fatalf("expected field username, got %q", core.ErrorField(err))
	}

	_, err = factory.IdentityStore().Create(ctx, core.CreateIdentityInput{
		Username:   "grace",
		Email:      "ada@example.com",
		SecretHash: "digest",
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
	if core.ErrorField(err) != "email" {
		t.Fatalf("expected field email, got %q", core.ErrorField(err))
	}
}

func TestIdentityStoreConcurrentDuplicateRegistration(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := factory.IdentityStore().Create(ctx, core.CreateIdentityInput{
				Username:   "ada",
				Email:      fmt.Sprintf("ada-%d@example.com", slot),
				SecretHash: "digest",
			})
			errs[slot] = err
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case core.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestTaskStoreOwnerScoping(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	ownerA := createIdentity(t, factory.IdentityStore(), "ada")
	ownerB := createIdentity(t, factory.IdentityStore(), "grace")

	task, err := factory.TaskStore().Create(ctx, core.Task{
		Title:    "private",
		Status:   core.TaskStatusTodo,
		Priority: core.TaskPriorityMedium,
		OwnerID:  ownerA.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := factory.TaskStore().Get(ctx, ownerB.ID, task.ID); !core.IsNotFound(err) {
		t.Fatalf("expected cross-owner get to be not found, got %v", err)
	}

	title := "hijacked"
	if _, err := factory.TaskStore().Update(ctx, ownerB.ID, task.ID, core.TaskPatch{Title: &title}); !core.IsNotFound(err) {
		t.Fatalf("expected cross-owner update to be not found, got %v", err)
	}
	if err := factory.TaskStore().Delete(ctx, ownerB.ID, task.ID); !core.IsNotFound(err) {
		t.Fatalf("expected cross-owner delete to be not found, got %v", err)
	}

	intact, err := factory.TaskStore().Get(ctx, ownerA.ID, task.ID)
	if err != nil {
		t.Fatalf("owner get after denied writes: %v", err)
	}
	if intact.Title != "private" {
		t.Fatalf("task modified by denied update: %+v", intact)
	}

	page, err := factory.TaskStore().List(ctx, ownerB.ID, core.Window{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list for other owner: %v", err)
	}
	if len(page.Items) != 0 || page.Total != 0 {
		t.Fatalf("other owner sees foreign tasks: %+v", page)
	}
}

func TestTaskStorePagination(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	owner := createIdentity(t, factory.IdentityStore(), "ada")
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		_, err := factory.TaskStore().Create(ctx, core.Task{
			Title:     fmt.Sprintf("task-%02d", i),
			Status:    core.TaskStatusTodo,
			Priority:  core.TaskPriorityMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			OwnerID:   owner.ID,
		})
		if err != nil {
			t.Fatalf("create task %d: %v", i, err)
		}
	}

	first, err := factory.TaskStore().List(ctx, owner.ID, core.Window{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(first.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(first.Items))
	}
	if first.Total != 50 {
		t.Fatalf("expected total 50, got %d", first.Total)
	}
	if !first.HasNext {
		t.Fatalf("expected has_next on page 1")
	}
	if first.Items[0].Title != "task-49" {
		t.Fatalf("expected newest first, got %q", first.Items[0].Title)
	}

	last, err := factory.TaskStore().List(ctx, owner.ID, core.Window{Page: 5, Limit: 10, Offset: 40})
	if err != nil {
		t.Fatalf("list page 5: %v", err)
	}
	if len(last.Items) != 10 || last.HasNext {
		t.Fatalf("unexpected final page: items=%d has_next=%v", len(last.Items), last.HasNext)
	}

	beyond, err := factory.TaskStore().List(ctx, owner.ID, core.Window{Page: 6, Limit: 10, Offset: 50})
	if err != nil {
		t.Fatalf("list page 6: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.HasNext || beyond.Total != 50 {
		t.Fatalf("unexpected page beyond end: %+v", beyond)
	}
}

func TestTaskStorePartialUpdatePersists(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	owner := createIdentity(t, factory.IdentityStore(), "ada")
	dueDate, err := core.ParseDueDate("2025-12-31")
	if err != nil {
		t.Fatalf("parse due date: %v", err)
	}
	created, err := factory.TaskStore().Create(ctx, core.Task{
		Title:       "write docs",
		Description: "initial pass",
		Status:      core.TaskStatusTodo,
		Priority:    core.TaskPriorityHigh,
		DueDate:     &dueDate,
		OwnerID:     owner.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	status := core.TaskStatusDone
	updated, err := factory.TaskStore().Update(ctx, owner.ID, created.ID, core.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != core.TaskStatusDone {
		t.Fatalf("expected status done, got %q", updated.Status)
	}
	if updated.Title != "write docs" || updated.Description != "initial pass" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.Priority != core.TaskPriorityHigh {
		t.Fatalf("untouched priority changed: %q", updated.Priority)
	}
	if updated.DueDate == nil || updated.DueDate.String() != "2025-12-31" {
		t.Fatalf("untouched due date changed: %+v", updated.DueDate)
	}

	reread, err := factory.TaskStore().Get(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("reread task: %v", err)
	}
	if reread.Status != core.TaskStatusDone {
		t.Fatalf("update did not persist: %+v", reread)
	}
}

func TestTaskStoreEmptyPatchReadsCurrent(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	owner := createIdentity(t, factory.IdentityStore(), "ada")
	created, err := factory.TaskStore().Create(ctx, core.Task{
		Title:    "unchanged",
		Status:   core.TaskStatusTodo,
		Priority: core.TaskPriorityMedium,
		OwnerID:  owner.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	result, err := factory.TaskStore().Update(ctx, owner.ID, created.ID, core.TaskPatch{})
	if err != nil {
		t.Fatalf("empty patch update: %v", err)
	}
	if result.Title != "unchanged" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := factory.TaskStore().Update(ctx, owner.ID, 9999, core.TaskPatch{}); !core.IsNotFound(err) {
		t.Fatalf("expected not found for unknown task, got %v", err)
	}
}

func TestAuditStoreRecordAndList(t *testing.T) {
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	ctx := context.Background()

	owner := createIdentity(t, factory.IdentityStore(), "ada")
	intruder := createIdentity(t, factory.IdentityStore(), "grace")

	events := []core.AuditEvent{
		{Action: core.AuditActionIdentityRegistered, IdentityID: owner.ID},
		{Action: core.AuditActionTaskDenied, IdentityID: intruder.ID, TaskID: 42, Metadata: map[string]any{"operation": "update"}},
		{Action: core.AuditActionTaskDenied, IdentityID: intruder.ID, TaskID: 42, Metadata: map[string]any{"operation": "delete"}},
	}
	for _, event := range events {
		if err := factory.AuditStore().Record(ctx, event); err != nil {
			t.Fatalf("record %s: %v", event.Action, err)
		}
	}

	denied, err := factory.AuditStore().List(ctx, core.AuditFilter{
		IdentityID: intruder.ID,
		Action:     core.AuditActionTaskDenied,
	})
	if err != nil {
		t.Fatalf("list denied: %v", err)
	}
	if denied.Total != 2 || len(denied.Items) != 2 {
		t.Fatalf("expected two denial events, got total=%d items=%d", denied.Total, len(denied.Items))
	}
	for _, event := range denied.Items {
		if event.TaskID != 42 {
			t.Fatalf("denial bound to wrong task: %+v", event)
		}
		if event.ID == "" {
			t.Fatalf("expected generated event id")
		}
	}

	all, err := factory.AuditStore().List(ctx, core.AuditFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("expected three events, got %d", all.Total)
	}
}
