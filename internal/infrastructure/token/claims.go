// Package token issues session tokens and verifies bearer tokens under the
// single trust model selected at startup.
package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/paghive/paghive/internal/core/domain"
)

// sessionClaims is the payload of tokens issued by this service and the
// subset of external issuer claims the verifier reads.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *sessionClaims) toDomain() *domain.TokenClaims {
	out := &domain.TokenClaims{
		Subject: c.Subject,
		Email:   c.Email,
		ID:      c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
