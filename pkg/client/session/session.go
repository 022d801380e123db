// Package session keeps the signed-in identity of a client, mirrored to
// on-device storage.
//
// A Store moves through Uninitialized → Loading → Authenticated | Anonymous.
// Initialize must run once before any other operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrAlreadyInitialized = errors.New("session: already initialized")
	ErrNotInitialized     = errors.New("session: not initialized")
	ErrNameRequired       = errors.New("Name is required")
	ErrEmailRequired      = errors.New("Email is required")
	ErrInvalidEmail       = errors.New("Please enter a valid email")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is the persisted identity. Token is set only when the server issued a
// session.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Token        string    `json:"token,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// Storage persists at most one identity.
type Storage interface {
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context) (*User, error)
	Save(ctx context.Context, u *User) error
	Clear(ctx context.Context) error
}

// Authenticator turns credentials into an identity.
type Authenticator interface {
	SignUp(ctx context.Context, name, email string) (*User, error)
	LogIn(ctx context.Context, name, email string) (*User, error)
	LogOut(ctx context.Context, u *User) error
}

type Store struct {
	storage Storage
	auth    Authenticator
	log     zerolog.Logger

	mu    sync.RWMutex
	state State
	user  *User
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithAuthenticator overrides the default LocalAuthenticator.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Store) { s.auth = a }
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		auth:    LocalAuthenticator{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted identity. A storage failure is logged and
// leaves the store Anonymous.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.state = Loading
	s.mu.Unlock()

	u, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored session")
		u = nil
	}
	if u != nil && !u.ExpiresAt.IsZero() && time.Now().After(u.ExpiresAt) {
		s.log.Info().Msg("stored session expired")
		if err := s.storage.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear expired session")
		}
		u = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u != nil {
		s.state, s.user = Authenticated, u
	} else {
		s.state = Anonymous
	}
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the signed-in identity, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token is the bearer token of the current session, if any.
func (s *Store) Token() string {
	if u := s.User(); u != nil {
		return u.Token
	}
	return ""
}

func (s *Store) SignUp(ctx context.Context, name, email string) (*User, error) {
	name, email, err := s.checkCredentials(name, email)
	if err != nil {
		return nil, err
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	u, err := s.auth.SignUp(ctx, name, email)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, u)
}

func (s *Store) LogIn(ctx context.Context, name, email string) (*User, error) {
	name, email, err := s.checkCredentials(name, email)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.LogIn(ctx, name, email)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, u)
}

// LogOut ends the session with the authenticator, then forgets it locally.
// An authenticator failure is logged; the local identity is cleared anyway.
func (s *Store) LogOut(ctx context.Context) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	if u := s.User(); u != nil {
		if err := s.auth.LogOut(ctx, u); err != nil {
			s.log.Warn().Err(err).Msg("remote logout failed")
		}
	}
	return s.Forget(ctx)
}

// Forget clears the identity without contacting the authenticator. Use it
// when the server already rejected the session.
func (s *Store) Forget(ctx context.Context) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	s.mu.Lock()
	s.state, s.user = Anonymous, nil
	s.mu.Unlock()
	return nil
}

func (s *Store) checkCredentials(name, email string) (string, string, error) {
	if !s.ready() {
		return "", "", ErrNotInitialized
	}
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return "", "", ErrNameRequired
	}
	if email == "" {
		return "", "", ErrEmailRequired
	}
	return name, email, nil
}

func (s *Store) adopt(ctx context.Context, u *User) (*User, error) {
	if err := s.storage.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}
	s.mu.Lock()
	s.state, s.user = Authenticated, u
	s.mu.Unlock()
	cp := *u
	return &cp, nil
}

func (s *Store) ready() bool {
	st := s.State()
	return st == Authenticated || st == Anonymous
}
