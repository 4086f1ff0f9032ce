package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const legacyTokenPrefix = "user_id:"

// LegacyTokenCodec encodes the identity id reversibly as
// "user_id:<id>". It carries no expiry and no signature; it exists so
// tokens issued by the previous generation of the service keep
// resolving, and it is the default codec until a signing key is
// configured.
type LegacyTokenCodec struct{}

func (LegacyTokenCodec) Issue(identityID int64) (string, error) {
	if identityID <= 0 {
		return "", fmt.Errorf("core: identity id must be positive, got %d", identityID)
	}
	return legacyTokenPrefix + strconv.FormatInt(identityID, 10), nil
}

func (LegacyTokenCodec) Resolve(credential string) (int64, error) {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return 0, NewAuthError(AuthReasonMissing, "core: credential is required")
	}
	rest, found := strings.CutPrefix(trimmed, legacyTokenPrefix)
	if !found {
		return 0, NewAuthError(AuthReasonInvalid, "core: credential does not match the expected encoding")
	}
	identityID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || identityID <= 0 {
		return 0, NewAuthError(AuthReasonInvalid, "core: credential does not resolve to an identity id")
	}
	return identityID, nil
}

type signedTokenClaims struct {
	IdentityID int64 `json:"identity_id"`
	jwt.RegisteredClaims
}

// SignedTokenCodec binds an expiry and an HMAC signature to the
// credential. Expired and tampered tokens produce distinct internal
// reasons so diagnostics can differ, but both map to the same external
// unauthorized status.
type SignedTokenCodec struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewSignedTokenCodec(signingKey []byte, ttl time.Duration) (*SignedTokenCodec, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("core: signing key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("core: token ttl must be positive")
	}
	return &SignedTokenCodec{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source. Test seam.
func (c *SignedTokenCodec) WithClock(now func() time.Time) *SignedTokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *SignedTokenCodec) Issue(identityID int64) (string, error) {
	if c == nil || len(c.signingKey) == 0 {
		return "", fmt.Errorf("core: signed token codec is not configured")
	}
	if identityID <= 0 {
		return "", fmt.Errorf("core: identity id must be positive, got %d", identityID)
	}
	issuedAt := c.now().UTC()
	claims := signedTokenClaims{
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identityID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("core: sign credential: %w", err)
	}
	return signed, nil
}

func (c *SignedTokenCodec) Resolve(credential string) (int64, error) {
	if c == nil || len(c.signingKey) == 0 {
		return 0, fmt.Errorf("core: signed token codec is not configured")
	}
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return 0, NewAuthError(AuthReasonMissing, "core: credential is required")
	}

	claims := signedTokenClaims{}
	_, err := jwt.ParseWithClaims(trimmed, &claims, func(*jwt.Token) (any, error) {
		return c.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, NewAuthError(AuthReasonExpired, "core: credential has expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, NewAuthError(AuthReasonTampered, "core: credential signature does not verify")
		default:
			return 0, NewAuthError(AuthReasonInvalid, "core: credential does not match the expected encoding")
		}
	}
	if claims.IdentityID <= 0 {
		return 0, NewAuthError(AuthReasonInvalid, "core: credential does not resolve to an identity id")
	}
	return claims.IdentityID, nil
}
