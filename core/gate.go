package core

import (
	"context"
	"fmt"
	"strings"
)

// AuthorizationGate resolves a bearer credential to a concrete
// identity: codec first, then a store lookup. It is a pure read — no
// mutation, no rate limiting — and safe to run on every request.
type AuthorizationGate struct {
	codec      TokenCodec
	identities IdentityStore
}

func NewAuthorizationGate(codec TokenCodec, identities IdentityStore) (*AuthorizationGate, error) {
	if codec == nil {
		return nil, fmt.Errorf("core: token codec is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("core: identity store is required")
	}
	return &AuthorizationGate{codec: codec, identities: identities}, nil
}

// Authorize decodes the credential and looks the identity up. A codec
// failure passes through with its reason; a well-formed credential
// whose identity no longer exists (user removed after issuance) fails
// with its own reason. Both surface as unauthorized.
func (g *AuthorizationGate) Authorize(ctx context.Context, credential string) (Identity, error) {
	if g == nil || g.codec == nil || g.identities == nil {
		return Identity{}, fmt.Errorf("core: authorization gate is not configured")
	}
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return Identity{}, NewAuthError(AuthReasonMissing, "core: credential is required")
	}

	identityID, err := g.codec.Resolve(trimmed)
	if err != nil {
		if IsAuthFailure(err) {
			return Identity{}, err
		}
		return Identity{}, NewAuthError(AuthReasonInvalid, "core: credential did not resolve")
	}

	identity, err := g.identities.GetByID(ctx, identityID)
	if err != nil {
		if IsNotFound(err) {
			return Identity{}, NewAuthError(AuthReasonUnknownIdentity, "core: credential does not belong to a known identity")
		}
		return Identity{}, err
	}
	return identity, nil
}
