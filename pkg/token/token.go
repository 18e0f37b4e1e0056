// Package token issues and verifies the signed bearer tokens used by the
// authoring API (platform accounts) and the mock auth endpoints
// (synthetic end users).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fauxsmith/fauxsmith/internal/id"
)

// Audience values distinguish the two token populations. A mock
// end-user token must not grant access to the authoring API.
const (
	AudienceAccount  = "account"
	AudienceMockUser = "mock-user"
)

// Verification errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims are the claims embedded in issued tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens and consults a revocation set
// before accepting any bearer token.
type Issuer struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker Revoker
}

// NewIssuer creates an Issuer. The revoker may be nil, in which case no
// revocation check is performed.
func NewIssuer(secret []byte, issuer string, ttl time.Duration, revoker Revoker) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: secret, issuer: issuer, ttl: ttl, revoker: revoker}
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed, time-bound token embedding the subject record
// ID and the audience.
func (i *Issuer) Issue(subject, audience string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New(),
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string for the expected audience.
// Revoked tokens fail with ErrRevokedToken.
func (i *Issuer) Verify(raw, audience string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if i.revoker != nil && i.revoker.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke adds the token's jti to the revocation set until the token
// would have expired anyway.
func (i *Issuer) Revoke(claims *Claims) {
	if i.revoker == nil || claims.ExpiresAt == nil {
		return
	}
	i.revoker.Revoke(claims.ID, claims.ExpiresAt.Time)
}
