package ports

import (
	"context"
	"time"

	"github.com/paghive/paghive/internal/core/domain"
)

// AuthResult is returned by sign-up and login. Token is empty when the
// deployment trusts an external issuer.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService defines account and session operations.
type AuthService interface {
	SignUp(ctx context.Context, name, email string) (*AuthResult, error)
	LogIn(ctx context.Context, name, email string) (*AuthResult, error)
	LogOut(ctx context.Context, id *domain.Identity) error
	Me(ctx context.Context, id *domain.Identity) (*domain.User, error)
}

// Authenticator turns a raw bearer token into a verified identity.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error)
}
