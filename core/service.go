package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-tasks/auth"
)

// Service is the operation surface of the task tracker: account
// registration and login, credential authorization, and owner-scoped
// task CRUD. It holds no long-lived mutable state beyond the injected
// stores; every operation is a request-scoped unit of work.
type Service struct {
	config             Config
	logger             Logger
	loggerProvider     LoggerProvider
	errorMapper        ErrorMapper
	tokenCodec         TokenCodec
	passwordHasher     PasswordHasher
	identityStore      IdentityStore
	taskStore          TaskStore
	auditStore         AuditStore
	gate               *AuthorizationGate
	fallbackSecretHash string
	now                func() time.Time
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("tasks", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("tasks"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, builder.errorMapper(err)
	}

	if err := resolveBuilderStores(&builder); err != nil {
		return nil, builder.errorMapper(err)
	}
	if builder.identityStore == nil {
		return nil, fmt.Errorf("core: identity store is required")
	}
	if builder.taskStore == nil {
		return nil, fmt.Errorf("core: task store is required")
	}
	if builder.auditStore == nil {
		builder.auditStore = NopAuditStore{}
	}

	if builder.tokenCodec == nil {
		codec, codecErr := defaultTokenCodec(finalConfig.Token)
		if codecErr != nil {
			return nil, codecErr
		}
		builder.tokenCodec = codec
	}
	if builder.passwordHasher == nil {
		builder.passwordHasher = auth.NewBcryptHasher(finalConfig.Password.Cost)
	}

	// Hashing a throwaway secret up front gives Login a digest to
	// verify against when the username is unknown, so both failure
	// paths cost the same.
	fallbackHash, err := builder.passwordHasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("core: prepare fallback digest: %w", err)
	}

	gate, err := NewAuthorizationGate(builder.tokenCodec, builder.identityStore)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		errorMapper:        builder.errorMapper,
		tokenCodec:         builder.tokenCodec,
		passwordHasher:     builder.passwordHasher,
		identityStore:      builder.identityStore,
		taskStore:          builder.taskStore,
		auditStore:         builder.auditStore,
		gate:               gate,
		fallbackSecretHash: fallbackHash,
		now:                builder.clock,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) TokenCodec() TokenCodec {
	if s == nil {
		return nil
	}
	return s.tokenCodec
}

// Authorize resolves a bearer credential to the full identity record.
// Callers use only the id for scoping, never the secret hash.
func (s *Service) Authorize(ctx context.Context, credential string) (Identity, error) {
	if s == nil || s.gate == nil {
		return Identity{}, fmt.Errorf("core: service is not configured")
	}
	identity, err := s.gate.Authorize(ctx, credential)
	if err != nil {
		return Identity{}, s.errorMapper(err)
	}
	return identity, nil
}

func resolveBuilderStores(builder *serviceBuilder) error {
	if builder.identityStore != nil && builder.taskStore != nil && builder.auditStore != nil {
		return nil
	}
	if builder.repositoryFactory == nil {
		return nil
	}

	var provider StoreProvider
	switch typed := builder.repositoryFactory.(type) {
	case RepositoryStoreFactory:
		built, err := typed.BuildStores(builder.persistenceClient)
		if err != nil {
			return err
		}
		provider = built
	case StoreProvider:
		provider = typed
	default:
		return fmt.Errorf("core: unsupported repository factory type %T", builder.repositoryFactory)
	}
	if provider == nil {
		return nil
	}

	if builder.identityStore == nil {
		builder.identityStore = provider.IdentityStore()
	}
	if builder.taskStore == nil {
		builder.taskStore = provider.TaskStore()
	}
	if builder.auditStore == nil {
		builder.auditStore = provider.AuditStore()
	}
	return nil
}

func defaultTokenCodec(cfg TokenConfig) (TokenCodec, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.Mode)) {
	case "", TokenModeLegacy:
		return LegacyTokenCodec{}, nil
	case TokenModeSigned:
		return NewSignedTokenCodec([]byte(cfg.SigningKey), time.Duration(cfg.TTLMinutes)*time.Minute)
	default:
		return nil, fmt.Errorf("core: unsupported token mode %q", cfg.Mode)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, identityID int64, taskID int64, metadata map[string]any) {
	if s == nil || s.auditStore == nil {
		return
	}
	event := AuditEvent{
		ID:         uuid.NewString(),
		Action:     action,
		IdentityID: identityID,
		TaskID:     taskID,
		Metadata:   metadata,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.auditStore.Record(ctx, event); err != nil {
		// The trail never changes a caller-visible outcome.
		s.logError(ctx, "audit record failed", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}
