package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

const minNameLength = 2

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService implements sign-up, login and bearer-token authentication.
type AuthService struct {
	users       ports.UserRepository
	issuer      ports.TokenIssuer // nil when an external issuer signs tokens
	verifier    ports.TokenVerifier
	revocations ports.RevocationStore
	logger      zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	issuer ports.TokenIssuer,
	verifier ports.TokenVerifier,
	revocations ports.RevocationStore,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		issuer:      issuer,
		verifier:    verifier,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, name, email string) (*ports.AuthResult, error) {
	name, email = normalizeCredentials(name, email)
	if name == "" || email == "" {
		return nil, domain.Invalid("name", "Name and email are required")
	}
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, domain.Invalid("name", "Name must be at least 2 characters long")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.Invalid("email", "Please enter a valid email")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("find user: %w: %w", domain.ErrUpstream, err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		ProfileImage: domain.AvatarURL(email),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w: %w", domain.ErrUpstream, err)
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user signed up")
	return s.session(created)
}

// LogIn matches an existing account by email; the name must match
// case-insensitively. There is no password.
func (s *AuthService) LogIn(ctx context.Context, name, email string) (*ports.AuthResult, error) {
	name, email = normalizeCredentials(name, email)
	if name == "" || email == "" {
		return nil, domain.Invalid("name", "Name and email are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w: %w", domain.ErrUpstream, err)
	}
	if !strings.EqualFold(user.Name, name) {
		return nil, domain.ErrNameMismatch
	}

	return s.session(user)
}

func normalizeCredentials(name, email string) (string, string) {
	return strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) session(user *domain.User) (*ports.AuthResult, error) {
	if s.issuer == nil {
		return &ports.AuthResult{User: user}, nil
	}
	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.AuthResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// LogOut revokes the caller's token until it would have expired anyway.
func (s *AuthService) LogOut(ctx context.Context, id *domain.Identity) error {
	if id == nil || id.TokenID == "" || s.revocations == nil {
		return nil
	}
	until := id.ExpiresAt
	if until.IsZero() {
		until = s.now().Add(24 * time.Hour)
	}
	if err := s.revocations.Revoke(ctx, id.TokenID, until); err != nil {
		return fmt.Errorf("revoke token: %w: %w", domain.ErrUpstream, err)
	}
	s.logger.Info().Str("user_id", id.UserID).Msg("session revoked")
	return nil
}

func (s *AuthService) Me(ctx context.Context, id *domain.Identity) (*domain.User, error) {
	if id == nil || id.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.FindByID(ctx, id.UserID)
}

// Authenticate verifies rawToken with the configured verifier, rejects revoked
// tokens and resolves the local user by subject, then by email claim.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error) {
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token verification failed")
		return nil, domain.ErrUnauthorized
	}

	if claims.ID != "" && s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("revocation check: %w: %w", domain.ErrUpstream, err)
		}
		if revoked {
			return nil, domain.ErrUnauthorized
		}
	}

	user, err := s.resolveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AuthService) resolveUser(ctx context.Context, claims *domain.TokenClaims) (*domain.User, error) {
	if claims.Subject != "" {
		user, err := s.users.FindByID(ctx, claims.Subject)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w: %w", domain.ErrUpstream, err)
		}
	}
	if claims.Email != "" {
		user, err := s.users.FindByEmail(ctx, strings.ToLower(claims.Email))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w: %w", domain.ErrUpstream, err)
		}
	}
	return nil, domain.ErrUnauthorized
}
