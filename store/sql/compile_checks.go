package sqlstore

import "github.com/goliatone/go-tasks/core"

var (
	_ core.IdentityStore          = (*IdentityStore)(nil)
	_ core.TaskStore              = (*TaskStore)(nil)
	_ core.AuditStore             = (*AuditStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
