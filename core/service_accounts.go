package core

import (
	"context"
	"strings"
)

// Register creates a new identity. Username and email uniqueness is
// enforced by the store's unique constraints, never by a prior
// existence check, so two concurrent registrations of the same name
// resolve to exactly one success and one conflict.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Identity, error) {
	startedAt := s.now()

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	fields := map[string]any{"username": username}

	if username == "" {
		err := NewValidationError("username", "core: username is required")
		s.observeOperation(ctx, startedAt, "register", err, fields)
		return Identity{}, err
	}
	if email == "" {
		err := NewValidationError("email", "core: email is required")
		s.observeOperation(ctx, startedAt, "register", err, fields)
		return Identity{}, err
	}
	if input.Secret == "" {
		err := NewValidationError("password", "core: password is required")
		s.observeOperation(ctx, startedAt, "register", err, fields)
		return Identity{}, err
	}

	secretHash, err := s.passwordHasher.Hash(input.Secret)
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "register", mapped, fields)
		return Identity{}, mapped
	}

	identity, err := s.identityStore.Create(ctx, CreateIdentityInput{
		Username:   username,
		Email:      email,
		SecretHash: secretHash,
	})
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "register", mapped, fields)
		return Identity{}, mapped
	}

	s.recordAudit(ctx, AuditActionIdentityRegistered, identity.ID, 0, map[string]any{
		"username": identity.Username,
	})
	s.observeOperation(ctx, startedAt, "register", nil, fields)
	return identity, nil
}

// Login verifies credentials and issues a bearer token. An unknown
// username and a wrong password return the identical failure, and both
// paths perform exactly one digest verification so neither is cheaper
// to probe.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	startedAt := s.now()

	username := strings.TrimSpace(input.Username)
	fields := map[string]any{"username": username}

	identity, lookupErr := s.identityStore.GetByUsername(ctx, username)
	if lookupErr != nil && !IsNotFound(lookupErr) {
		mapped := s.errorMapper(lookupErr)
		s.observeOperation(ctx, startedAt, "login", mapped, fields)
		return LoginResult{}, mapped
	}

	digest := identity.SecretHash
	if lookupErr != nil {
		digest = s.fallbackSecretHash
	}
	verifyErr := s.passwordHasher.Verify(digest, input.Secret)
	if lookupErr != nil || verifyErr != nil {
		err := NewAuthError(AuthReasonBadCredentials, "core: invalid username or password")
		s.observeOperation(ctx, startedAt, "login", err, fields)
		return LoginResult{}, err
	}

	token, err := s.tokenCodec.Issue(identity.ID)
	if err != nil {
		mapped := s.errorMapper(err)
		s.observeOperation(ctx, startedAt, "login", mapped, fields)
		return LoginResult{}, mapped
	}

	s.observeOperation(ctx, startedAt, "login", nil, fields)
	return LoginResult{Token: token, IdentityID: identity.ID}, nil
}
