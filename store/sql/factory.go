package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tasks/core"
)

type RepositoryFactory struct {
	db *bun.DB

	identityStore *IdentityStore
	taskStore     *TaskStore
	auditStore    *AuditStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.identityStore != nil && f.taskStore != nil && f.auditStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) IdentityStore() core.IdentityStore {
	if f == nil {
		return nil
	}
	return f.identityStore
}

func (f *RepositoryFactory) TaskStore() core.TaskStore {
	if f == nil {
		return nil
	}
	return f.taskStore
}

func (f *RepositoryFactory) AuditStore() core.AuditStore {
	if f == nil {
		return nil
	}
	return f.auditStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	identityStore, err := NewIdentityStore(f.db)
	if err != nil {
		return err
	}
	f.identityStore = identityStore

	taskStore, err := NewTaskStore(f.db)
	if err != nil {
		return err
	}
	f.taskStore = taskStore

	auditStore, err := NewAuditStore(f.db)
	if err != nil {
		return err
	}
	f.auditStore = auditStore

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
