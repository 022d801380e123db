package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paghive/paghive/pkg/client"
)

// LocalAuthenticator accepts any credentials and mints a device-local
// identity. Nothing is verified; login cannot fail for a mismatched account.
type LocalAuthenticator struct{}

func (LocalAuthenticator) SignUp(_ context.Context, name, email string) (*User, error) {
	return &User{ID: uuid.NewString(), Name: name, Email: email}, nil
}

func (LocalAuthenticator) LogIn(_ context.Context, name, email string) (*User, error) {
	return &User{ID: uuid.NewString(), Name: name, Email: email}, nil
}

func (LocalAuthenticator) LogOut(context.Context, *User) error { return nil }

// RemoteAuthenticator obtains a verified identity and session token from the
// API.
type RemoteAuthenticator struct {
	API *client.Client
}

func (a RemoteAuthenticator) SignUp(ctx context.Context, name, email string) (*User, error) {
	sess, err := a.API.SignUp(ctx, name, email)
	if err != nil {
		return nil, err
	}
	return fromSession(sess)
}

func (a RemoteAuthenticator) LogIn(ctx context.Context, name, email string) (*User, error) {
	sess, err := a.API.LogIn(ctx, name, email)
	if err != nil {
		return nil, err
	}
	return fromSession(sess)
}

// LogOut revokes the session token on the server.
func (a RemoteAuthenticator) LogOut(ctx context.Context, u *User) error {
	if u.Token == "" {
		return nil
	}
	return a.API.RevokeToken(ctx, u.Token)
}

func fromSession(sess *client.Session) (*User, error) {
	u := &User{
		ID:           sess.User.ID,
		Name:         sess.User.Name,
		Email:        sess.User.Email,
		ProfileImage: sess.User.ProfileImage,
		Token:        sess.Token,
	}
	if sess.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339, sess.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("session: parse expiry: %w", err)
		}
		u.ExpiresAt = exp
	}
	return u, nil
}
