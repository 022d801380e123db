package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/paghive/paghive/internal/core/domain"
)

// Verifier validates bearer tokens with one pinned algorithm and key source.
// The algorithm named in the token header is never trusted on its own.
type Verifier struct {
	alg     string
	keyFunc jwt.Keyfunc
}

// NewHS256Verifier accepts tokens signed by Issuer with the same secret.
func NewHS256Verifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("token: empty signing secret")
	}
	key := []byte(secret)
	return &Verifier{
		alg:     jwt.SigningMethodHS256.Alg(),
		keyFunc: func(*jwt.Token) (interface{}, error) { return key, nil },
	}, nil
}

// NewJWKSVerifier accepts RS256 tokens from an external issuer whose public
// keys are published at jwksURL. Keys are refreshed in the background until
// ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*Verifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("token: load jwks: %w", err)
	}
	return newRS256Verifier(k.Keyfunc), nil
}

func newRS256Verifier(kf jwt.Keyfunc) *Verifier {
	return &Verifier{alg: jwt.SigningMethodRS256.Alg(), keyFunc: kf}
}

func (v *Verifier) Alg() string { return v.alg }

func (v *Verifier) Verify(_ context.Context, raw string) (*domain.TokenClaims, error) {
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, v.keyFunc,
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !tkn.Valid {
		return nil, errors.New("verify token: invalid")
	}
	if claims.Subject == "" && claims.Email == "" {
		return nil, errors.New("verify token: no subject or email")
	}
	return claims.toDomain(), nil
}
