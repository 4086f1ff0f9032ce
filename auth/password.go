// Package auth provides the credential primitives consumed by the core
// service: one-way password digests today, with room for additional
// verification strategies behind the same contracts.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher produces salted, one-way digests with a tunable work
// factor. bcrypt embeds a random per-digest salt, so equal secrets
// never share a digest.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps the cost into bcrypt's supported range; zero
// or negative selects the library default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if h == nil {
		return "", fmt.Errorf("auth: bcrypt hasher is not configured")
	}
	if secret == "" {
		return "", fmt.Errorf("auth: secret is required")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify reports a mismatch as an error. Callers must not distinguish
// "unknown digest" from "wrong secret" in anything they surface.
func (h *BcryptHasher) Verify(digest string, secret string) error {
	if h == nil {
		return fmt.Errorf("auth: bcrypt hasher is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)); err != nil {
		return fmt.Errorf("auth: secret does not match digest: %w", err)
	}
	return nil
}
