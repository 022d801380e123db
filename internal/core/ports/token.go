package ports

import (
	"context"
	"time"

	"github.com/paghive/paghive/internal/core/domain"
)

// TokenIssuer signs session tokens for users.
type TokenIssuer interface {
	Issue(user *domain.User) (token string, claims domain.TokenClaims, err error)
}

// TokenVerifier validates a bearer token under the single trust model chosen
// at startup.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*domain.TokenClaims, error)
}

// RevocationStore records tokens revoked before their expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
