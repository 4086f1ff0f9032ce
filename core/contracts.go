package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// TokenCodec converts a verified identity into an opaque bearer
// credential and back. Issue is a pure function of the identity id so
// any replica can resolve any token without shared state. Resolve
// checks shape only; whether the id still exists in the store is the
// authorization gate's concern.
type TokenCodec interface {
	Issue(identityID int64) (string, error)
	Resolve(credential string) (int64, error)
}

// PasswordHasher produces and checks one-way salted digests of login
// secrets. Verify returns an error on mismatch.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(digest string, secret string) error
}

type CreateIdentityInput struct {
	Username   string
	Email      string
	SecretHash string
}

// IdentityStore holds user identity records. Create relies on storage
// level unique constraints for username and email; a prior existence
// check is never the source of truth.
type IdentityStore interface {
	Create(ctx context.Context, input CreateIdentityInput) (Identity, error)
	GetByID(ctx context.Context, id int64) (Identity, error)
	GetByUsername(ctx context.Context, username string) (Identity, error)
}

// TaskStore is always owner-scoped: every read and write filters by
// the owning identity first, and a row under a different owner is
// reported as not found.
type TaskStore interface {
	Create(ctx context.Context, task Task) (Task, error)
	Get(ctx context.Context, ownerID int64, taskID int64) (Task, error)
	List(ctx context.Context, ownerID int64, window Window) (TaskPage, error)
	Update(ctx context.Context, ownerID int64, taskID int64, patch TaskPatch) (Task, error)
	Delete(ctx context.Context, ownerID int64, taskID int64) error
}

type AuditStore interface {
	Record(ctx context.Context, event AuditEvent) error
	List(ctx context.Context, filter AuditFilter) (AuditPage, error)
}

// StoreProvider exposes the persistence-backed stores built by a
// repository factory.
type StoreProvider interface {
	IdentityStore() IdentityStore
	TaskStore() TaskStore
	AuditStore() AuditStore
}

// RepositoryStoreFactory builds stores from an opaque persistence
// client (a go-persistence-bun client or a bare bun.DB).
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// NopAuditStore drops events. It stands in when no audit trail is
// wired, so service operations never nil-check the store.
type NopAuditStore struct{}

func (NopAuditStore) Record(context.Context, AuditEvent) error {
	return nil
}

func (NopAuditStore) List(context.Context, AuditFilter) (AuditPage, error) {
	return AuditPage{Items: []AuditEvent{}}, nil
}
