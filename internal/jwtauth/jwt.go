// Package jwtauth validates caller tokens. The registry does not issue
// researcher identities; an external identity provider signs tokens whose
// subject is the hex-encoded caller identity, and this package only checks
// the signature and extracts that identity.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
)

// Service verifies HS256 tokens against the shared signing key.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken mints a token for the given identity. Used by operator
// tooling and tests; production callers bring tokens from the identity
// provider that shares the signing key.
func (s *Service) GenerateToken(identity id.Identity, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   identity.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		ID:        uuid.NewString(),
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken checks the signature and expiry and returns the caller
// identity from the subject claim.
func (s *Service) ValidateToken(tokenString string) (id.Identity, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !token.Valid {
		return id.Identity{}, dErrors.Wrap(err, dErrors.CodeNotAuthorized, "invalid or expired token")
	}
	return id.ParseIdentity(claims.Subject)
}
