// Package auth verifies bearer tokens issued by the user service and gates
// admin operations. Token issuance lives with the user service; this side only
// validates and extracts identity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// Verifier validates HMAC-signed access tokens.
type Verifier struct {
	Secret    []byte
	Algorithm jwa.SignatureAlgorithm
	Issuer    string
	ClockSkew time.Duration
}

// NewVerifier builds a verifier with the default HS256 algorithm.
func NewVerifier(secret string) *Verifier {
	return &Verifier{Secret: []byte(secret), Algorithm: jwa.HS256}
}

// Verify parses and validates the token and extracts the caller identity. The
// subject claim must be a UUID; email and role ride in private claims.
func (v *Verifier) Verify(token string, now time.Time) (Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Identity{}, errors.New("auth: token missing")
	}
	algorithm := v.Algorithm
	if algorithm == "" {
		algorithm = jwa.HS256
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.Secret))
	if err != nil {
		return Identity{}, fmt.Errorf("auth: parse token: %w", err)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if err := jwt.Validate(parsed, options...); err != nil {
		return Identity{}, fmt.Errorf("auth: validate token: %w", err)
	}

	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return Identity{}, fmt.Errorf("auth: token subject is not a user id: %w", err)
	}
	id := Identity{UserID: userID}
	if email, ok := parsed.Get("email"); ok {
		if s, ok := email.(string); ok {
			id.Email = s
		}
	}
	if role, ok := parsed.Get("role"); ok {
		if s, ok := role.(string); ok {
			id.Role = s
		}
	}
	return id, nil
}
