package tasks

import "github.com/goliatone/go-tasks/core"

type Config = core.Config

type PaginationConfig = core.PaginationConfig

type TokenConfig = core.TokenConfig

type Option = core.Option

type Service = core.Service

type Identity = core.Identity
type Task = core.Task
type TaskPage = core.TaskPage
type TaskStatus = core.TaskStatus
type TaskPriority = core.TaskPriority

type RegisterInput = core.RegisterInput
type LoginInput = core.LoginInput
type LoginResult = core.LoginResult
type CreateTaskInput = core.CreateTaskInput
type UpdateTaskInput = core.UpdateTaskInput

type TokenCodec = core.TokenCodec
type PasswordHasher = core.PasswordHasher
type IdentityStore = core.IdentityStore
type TaskStore = core.TaskStore
type AuditStore = core.AuditStore
type StoreProvider = core.StoreProvider

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithTokenCodec        = core.WithTokenCodec
	WithPasswordHasher    = core.WithPasswordHasher
	WithIdentityStore     = core.WithIdentityStore
	WithTaskStore         = core.WithTaskStore
	WithAuditStore        = core.WithAuditStore
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
