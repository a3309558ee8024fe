// Package audit implements the Audit & Authentication component (C12,
// spec §4.12): Argon2id password storage (via pkg/crypto), self-signed
// session JWTs, failed-attempt lockout bookkeeping, wildcard/condition
// permission checks, and an append-only encrypted audit log. Session JWT
// issuance is grounded on
// wisbric-nightowl/internal/auth/session.go's go-jose HS256
// self-signed-token shape; lockout bookkeeping is grounded on
// wisbric-nightowl/internal/auth/ratelimit.go's counter+TTL shape,
// reimplemented in-process (no Redis in this module's dependency set —
// see DESIGN.md).
package audit

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// SessionClaims are embedded in the bearer token issued on successful
// authentication. Authenticator sets SessionID to the user's ID; no
// server-side session store backs it.
type SessionClaims struct {
	Subject   string `json:"sub"`
	SessionID string `json:"sid"`
}

// SessionManager issues and validates self-signed session JWTs.
type SessionManager struct {
	signingKey []byte
	ttl        time.Duration
}

// NewSessionManager builds a SessionManager. secret must be at least 32
// bytes (HS256 key-strength floor).
func NewSessionManager(secret []byte, ttl time.Duration) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("audit: session secret must be at least 32 bytes, got %d", len(secret))
	}
	return &SessionManager{signingKey: secret, ttl: ttl}, nil
}

// IssueToken signs and returns a bearer token for claims.
func (sm *SessionManager) IssueToken(claims SessionClaims) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: sm.signingKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("audit: creating signer: %w", err)
	}

	now := time.Now()
	registered := jwt.Claims{
		Subject:  claims.Subject,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(sm.ttl)),
		Issuer:   "aegis",
	}

	token, err := jwt.Signed(signer).Claims(registered).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("audit: signing token: %w", err)
	}
	return token, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
func (sm *SessionManager) ValidateToken(raw string) (*SessionClaims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("audit: parsing token: %w", err)
	}

	var registered jwt.Claims
	var custom SessionClaims
	if err := tok.Claims(sm.signingKey, &registered, &custom); err != nil {
		return nil, fmt.Errorf("audit: verifying token: %w", err)
	}

	if err := registered.ValidateWithLeeway(jwt.Expected{Issuer: "aegis", Time: time.Now()}, 5*time.Second); err != nil {
		return nil, fmt.Errorf("audit: validating claims: %w", err)
	}

	return &custom, nil
}
